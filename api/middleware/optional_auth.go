package middleware

import (
	"context"
	"net/http"
	"strings"

	pkgAuth "github.com/carnimore/storefront-backend/pkg/auth"
	"github.com/carnimore/storefront-backend/pkg/auth/session"
	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

// OptionalAuth seeds the request context when a valid bearer token is
// presented but lets anonymous requests through untouched. Storefront
// endpoints use it so signed-in shoppers get attributed without forcing a
// login to browse or buy.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil || claims.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil || !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			ctx = pkgAuth.ContextWithClaims(ctx, claims)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
