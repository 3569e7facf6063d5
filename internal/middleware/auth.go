package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/hostel/internal/auth"
	"github.com/mmynk/hostel/internal/models"
	"github.com/mmynk/hostel/internal/storage"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserKey is the context key for storing the authenticated user.
const UserKey contextKey = "user"

// UserLoader fetches the account a token was issued to.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// GetUser extracts the authenticated user from the context.
// Returns nil for anonymous requests.
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if info, ok := ctx.Value(infoKey).(*requestInfo); ok {
		info.userID = user.ID
	}
	return context.WithValue(ctx, UserKey, user)
}

// Authenticate returns a middleware that resolves a Bearer access token to
// the user it was issued to. Requests without an Authorization header pass
// through anonymously. A malformed or invalid token, or a token whose user
// is gone or inactive, is rejected with 401.
func Authenticate(jwtManager *auth.JWTManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			claims, err := jwtManager.Validate(parts[1], auth.AccessToken)
			if err != nil {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if errors.Is(err, storage.ErrNotFound) || (err == nil && !user.IsActive) {
				unauthorized(w, errors.New("user not found or inactive"))
				return
			}
			if err != nil {
				slog.Error("Failed to load token user", "user_id", claims.UserID, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"detail": "internal server error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}
