package model

import "github.com/golang-jwt/jwt/v5"

// ConnectClaims authenticate API calls and the realtime socket. The user is the subject.
type ConnectClaims struct {
	jwt.RegisteredClaims
}

// RoomClaims allow one user to join one negotiation room. Channel carries the
// room name in the form Centrifugo subscription tokens use.
type RoomClaims struct {
	jwt.RegisteredClaims

	Channel       string `json:"channel"`
	UserID        string `json:"user_id"`
	NegotiationID string `json:"negotiation_id"`
}
