package infra

import (
	"context"
	"net/http"
	"strings"

	"github.com/agrilink/negotiation-service/internal/config"
	"github.com/agrilink/negotiation-service/internal/model"
)

// UserHeader carries the user id asserted by the API gateway.
const UserHeader = "X-User-UUID"

type ConnectTokenValidator interface {
	ValidateConnectToken(tokenString string) (*model.ConnectClaims, error)
}

// AuthInterceptorHTTP resolves the caller from a connect token (Authorization
// header or token query parameter) or from the gateway header, and stores it
// under config.KeyUUID.
func AuthInterceptorHTTP(next http.Handler, tokens ConnectTokenValidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := ""

		if token := bearerToken(r); token != "" {
			claims, err := tokens.ValidateConnectToken(token)
			if err != nil || claims.Subject == "" {
				writeUnauthorized(w, "invalid token")
				return
			}
			userID = claims.Subject
		} else {
			userID = strings.TrimSpace(r.Header.Get(UserHeader))
		}

		if userID == "" {
			writeUnauthorized(w, "missing credentials")
			return
		}

		ctx := context.WithValue(r.Context(), config.KeyUUID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return r.URL.Query().Get("token")
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"unauthorized"}`))
}
