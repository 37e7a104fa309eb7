package middleware

import (
	"net/http"
	"strconv"

	"github.com/waynejunj/prosperv1/api/responses"
	"github.com/waynejunj/prosperv1/internal/guard"
	"github.com/waynejunj/prosperv1/internal/session"
	pkgerrors "github.com/waynejunj/prosperv1/pkg/errors"
	"github.com/waynejunj/prosperv1/pkg/logger"
)

type sessionSource interface {
	Current() *session.Session
}

// Guard gates a route group through the same access rules the views use.
// Denied requests answer with the redirect target so the caller can follow
// it.
func Guard(view guard.View, sessions sessionSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Current()
			decision := guard.CanEnter(view, sess)
			if !decision.Allowed {
				w.Header().Set("X-Redirect-To", decision.RedirectTo)
				code := pkgerrors.CodeUnauthorized
				msg := "sign in required"
				if sess != nil {
					code = pkgerrors.CodeForbidden
					msg = "admin access required"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(code, msg))
				return
			}

			ctx := r.Context()
			if logg != nil && sess != nil {
				ctx = logg.WithUserID(ctx, strconv.FormatInt(sess.UserID, 10))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
