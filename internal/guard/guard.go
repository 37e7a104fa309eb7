// Package guard decides whether a session may enter a view. It holds no
// state of its own and is re-evaluated on every navigation.
package guard

import "github.com/waynejunj/prosperv1/internal/session"

// View describes one navigable surface and its access requirements.
type View struct {
	Name          string
	RequiresAuth  bool
	RequiresAdmin bool
}

// Well-known redirect targets.
const (
	SignInPath = "/signin"
	HomePath   = "/"
)

// Decision is the outcome of an access check. When Allowed is false,
// RedirectTo names where navigation should land instead.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// CanEnter gates a view against the current session. Protected views without
// a session redirect to sign-in; admin views without the admin flag redirect
// home.
func CanEnter(view View, sess *session.Session) Decision {
	if (view.RequiresAuth || view.RequiresAdmin) && sess == nil {
		return Decision{Allowed: false, RedirectTo: SignInPath}
	}
	if view.RequiresAdmin && !sess.Admin {
		return Decision{Allowed: false, RedirectTo: HomePath}
	}
	return Decision{Allowed: true}
}
