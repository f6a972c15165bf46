package middleware

import (
	"context"
	"net/http"
	"strings"

	"doctors-portal/pkg/utils"

	"go.uber.org/zap"
)

// AuthJWT verifies the bearer token and stores the caller email in the request context.
func AuthJWT(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := utils.ParseToken(secret, token)
			if err != nil {
				logger.Warn("Rejected access token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Forbidden access")
				return
			}

			ctx := utils.SetEmailContext(r.Context(), claims.Email)
			ctx = utils.SetTokenContext(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminChecker reports whether the email belongs to an admin.
type AdminChecker func(ctx context.Context, email string) (bool, error)

// Admin must run after AuthJWT.
func Admin(isAdmin AdminChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := utils.GetEmailFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			admin, err := isAdmin(r.Context(), email)
			if err != nil {
				logger.Error("Admin check: failed to get user", zap.Error(err), zap.String("email", email))
				utils.ResponseServiceUnavailable(w, "Service temporarily unavailable")
				return
			}

			if !admin {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("email", email),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
