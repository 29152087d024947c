package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ai-calculator/internal/respond"
)

type contextKey string

const identityKey = contextKey("identity")

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID   string
	Username string
}

// JWTMiddleware rejects requests without a valid Bearer token.
func JWTMiddleware(svc *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respond.Error(w, http.StatusUnauthorized, "Authentication token is missing")
			return
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			respond.Error(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}
		claims, err := svc.ParseToken(strings.TrimSpace(tokenStr))
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				respond.Error(w, http.StatusUnauthorized, "Authentication token has expired")
				return
			}
			respond.Error(w, http.StatusUnauthorized, "Invalid authentication token")
			return
		}
		ctx := ContextWithIdentity(r.Context(), Identity{UserID: claims.UserID, Username: claims.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}
