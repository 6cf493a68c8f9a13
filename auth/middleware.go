package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/user/taskman-go/apperror"
)

// ContextKey is a dedicated type for context keys to avoid collisions with
// other packages.
type ContextKey string

// UserIDKey is the context key the authenticated user's ID is stored under.
const UserIDKey ContextKey = "userID"

// TokenMiddleware authenticates requests carrying "Authorization: Bearer
// <token>". The presented token is hashed and resolved through the token
// repository; on success the owning user's ID is added to the request context.
// Any failure, including a token revoked by logout, yields 401.
func TokenMiddleware(tokens TokenRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, r, apperror.NewAuthError("Authorization header is missing", nil))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteError(w, r, apperror.NewAuthError("Authorization header format must be Bearer {token}", nil))
				return
			}

			userID, err := tokens.FindUserID(r.Context(), HashToken(parts[1]))
			if err != nil {
				if apperror.IsNotFound(err) {
					WriteError(w, r, apperror.NewAuthError("Invalid or expired token", nil))
					return
				}
				WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns false if the middleware did not run.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
