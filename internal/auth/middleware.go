package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/httpx"
)

type contextKey string

const UsernameKey contextKey = "username"

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, UsernameKey, username)
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(UsernameKey).(string)
	return u, ok && u != ""
}

// CurrentUser returns the authenticated caller or an Unauthorized error.
func CurrentUser(r *http.Request) (string, error) {
	u, ok := UsernameFromContext(r.Context())
	if !ok {
		return "", apperr.Unauthorized("Unauthorized")
	}
	return u, nil
}

func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.ReportError(w, r, apperr.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpx.ReportError(w, r, apperr.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := ValidateToken(strings.TrimSpace(parts[1]), jwtSecret)
			if err != nil {
				httpx.ReportError(w, r, apperr.Unauthorized("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), claims.Username)))
		})
	}
}

// EnsureCorrectUser only lets the caller through when they are the {username} in the path.
func EnsureCorrectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := CurrentUser(r)
		if err != nil {
			httpx.ReportError(w, r, err)
			return
		}
		if caller != mux.Vars(r)["username"] {
			httpx.ReportError(w, r, apperr.Unauthorized("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
