package middleware

import (
	"net/http"
	"time"

	"github.com/modecraft/storefront-backend/api/responses"
	"github.com/modecraft/storefront-backend/pkg/auth/session"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
	"github.com/modecraft/storefront-backend/pkg/logger"
)

// CartSession establishes the anonymous storefront session. Every
// browser gets a signed cookie naming its cart key; a missing or
// invalid cookie is silently replaced with a fresh session rather than
// rejected, so first-time visitors can add to cart immediately.
func CartSession(manager *session.Manager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cartKey := ""
			if cookie, err := r.Cookie(manager.CookieName()); err == nil {
				if key, err := manager.Verify(cookie.Value); err == nil {
					cartKey = key
				} else if logg != nil {
					logg.Warn(ctx, "invalid session cookie, issuing a new session")
				}
			}

			if cartKey == "" {
				token, key, err := manager.Issue(time.Now())
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to establish session"))
					return
				}
				cartKey = key
				http.SetCookie(w, &http.Cookie{
					Name:     manager.CookieName(),
					Value:    token,
					Path:     "/",
					MaxAge:   int(manager.TTL().Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = WithCartKey(ctx, cartKey)
			if logg != nil {
				ctx = logg.WithCartKey(ctx, cartKey)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
