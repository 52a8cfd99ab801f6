package middleware

import (
	"net/http"
	"strings"

	"github.com/applytrack/applytrack-backend/internal/auth"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (auth.Identity, error)
}

// Auth rejects requests without a valid bearer token and stores the caller's
// identity in the request context.
func Auth(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			identity, err := validator.ValidateToken(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := ctxutil.WithUserID(r.Context(), identity.UserID)
			ctx = ctxutil.WithAdmin(ctx, identity.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose identity lacks the admin role. Must run
// inside Auth.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ctxutil.IsAdminCtx(r.Context()) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
