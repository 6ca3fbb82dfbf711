package tenancy

import (
	"context"
	"strings"
)

type ctxKey string

const userKey ctxKey = "leadpilot.user_id"

// WithUserID stores the authenticated sales user id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, strings.TrimSpace(userID))
}

// UserIDFromContext extracts the user id if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok && userID != ""
}
