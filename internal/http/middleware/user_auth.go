package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/internal/tenancy"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// UserIDHeader carries the caller's id when token auth is disabled.
const UserIDHeader = "X-User-Id"

type contextKey string

const userSinkKey contextKey = "user_sink"

// withUserSink lets an outer middleware observe the user id resolved further
// down the chain.
func withUserSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, userSinkKey, sink)
}

// RequireUser resolves the calling sales user and stores the id in the
// request context. With a secret, an HS256 bearer token is required and its
// subject becomes the user id. Without one, UserIDHeader is trusted, which
// is only suitable for local development.
func RequireUser(secret string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if secret == "" {
		logger.Warn("auth secret not set: trusting " + UserIDHeader + " header")
	}
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if secret == "" {
				userID = strings.TrimSpace(r.Header.Get(UserIDHeader))
			} else {
				auth := r.Header.Get("Authorization")
				if !strings.HasPrefix(auth, "Bearer ") {
					leads.WriteError(w, http.StatusUnauthorized, "missing authorization header")
					return
				}
				claims := jwt.RegisteredClaims{}
				token, err := parser.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(*jwt.Token) (any, error) {
					return key, nil
				})
				if err != nil || !token.Valid {
					leads.WriteError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				userID = strings.TrimSpace(claims.Subject)
			}

			if userID == "" {
				leads.WriteError(w, http.StatusUnauthorized, "missing user")
				return
			}
			if sink, ok := r.Context().Value(userSinkKey).(*string); ok && sink != nil {
				*sink = userID
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithUserID(r.Context(), userID)))
		})
	}
}
