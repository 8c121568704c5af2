package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/logger"
	"github.com/dom/storefront/internal/service"
)

type contextKey string

const (
	PrincipalKey    contextKey = "principal"
	SessionTokenKey contextKey = "sessionToken"
)

// Session resolves the signed session cookie into a principal. Requests
// without a valid, unexpired session continue anonymously.
func Session(sessions *service.SessionService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionTokenKey, cookie.Value)

			principal, err := sessions.Resolve(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					l := logger.Ctx(ctx)
					l.Error().Err(err).Msg("session lookup failed, continuing anonymously")
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			l := logger.Ctx(ctx).With().Str(logger.FieldPrincipal, principal.Key()).Logger()
			ctx = logger.WithLogger(ctx, l)
			ctx = context.WithValue(ctx, PrincipalKey, *principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal rejects anonymous requests.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			http.Error(w, "Login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anyone but an authenticated admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "Login required", http.StatusUnauthorized)
			return
		}
		if !principal.IsAdmin() {
			http.Error(w, "Admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok
}

func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(SessionTokenKey).(string)
	return token, ok
}
