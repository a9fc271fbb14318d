package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agrilink/negotiation-service/internal/model"
)

const (
	tokenTTL = 30 * time.Minute

	issuer = "negotiation-service"

	// Audiences keep a room token from authenticating API calls and the reverse.
	connectAudience = "negotiation-api"
	roomAudience    = "negotiation-room"
)

// Generator issues and checks the HS256 tokens used for API access and for
// joining negotiation rooms.
type Generator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Generator {
	return &Generator{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (g *Generator) GenerateConnectToken(userID string) (string, int64, error) {
	claims := &model.ConnectClaims{}
	expiresAt := g.register(&claims.RegisteredClaims, userID, connectAudience)

	token, err := g.sign(claims)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign connect token: %w", err)
	}

	return token, expiresAt, nil
}

func (g *Generator) GenerateSubscribeToken(userID, negotiationID string) (string, int64, error) {
	claims := &model.RoomClaims{
		Channel:       model.NegotiationChannel(negotiationID),
		UserID:        userID,
		NegotiationID: negotiationID,
	}
	expiresAt := g.register(&claims.RegisteredClaims, userID, roomAudience)

	token, err := g.sign(claims)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign room token: %w", err)
	}

	return token, expiresAt, nil
}

func (g *Generator) ValidateConnectToken(tokenString string) (*model.ConnectClaims, error) {
	claims := &model.ConnectClaims{}
	if err := g.parse(tokenString, claims, connectAudience); err != nil {
		return nil, fmt.Errorf("invalid connect token: %w", err)
	}
	return claims, nil
}

func (g *Generator) ValidateSubscribeToken(tokenString string) (*model.RoomClaims, error) {
	claims := &model.RoomClaims{}
	if err := g.parse(tokenString, claims, roomAudience); err != nil {
		return nil, fmt.Errorf("invalid room token: %w", err)
	}
	if claims.NegotiationID == "" || claims.UserID != claims.Subject {
		return nil, fmt.Errorf("invalid room token: inconsistent claims")
	}
	return claims, nil
}

// register fills the standard claims and returns the expiry as a unix time.
func (g *Generator) register(rc *jwt.RegisteredClaims, subject, audience string) int64 {
	now := g.now()
	expiresAt := now.Add(tokenTTL)

	*rc = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	return expiresAt.Unix()
}

func (g *Generator) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *Generator) parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("token not valid")
	}
	return nil
}
