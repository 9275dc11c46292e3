// Package guard decides whether the current identity may enter a route.
//
// A decision is a pure function of the identity. Nothing is cached: callers
// evaluate the guard again on every navigation.
package guard

import (
	"github.com/atinyakov/GophChat/internal/client/storage"
)

// Route names a client screen.
type Route string

const (
	// RouteLogin is the sign-in screen.
	RouteLogin Route = "login"
	// RouteChat is the default landing screen for any signed-in user.
	RouteChat Route = "chat"
	// RouteKnowledge lists indexes (admin only).
	RouteKnowledge Route = "admin/knowledge"
	// RouteDocuments manages the documents of one index (admin only).
	RouteDocuments Route = "admin/docs"
)

// State is the outcome of a guard evaluation.
type State int

const (
	// Checking is the state before the identity has been read.
	Checking State = iota
	// Authorized lets the navigation through.
	Authorized
	// Denied redirects elsewhere.
	Denied
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a guard.
type Decision struct {
	State State
	// RedirectTo is set when State is Denied.
	RedirectTo Route
	// Replace means the redirect replaces the current history entry, so going
	// back does not return to the guarded route.
	Replace bool
	// AlsoRedirect is a second, imperative redirect issued by the admin guard
	// when there is no identity at all. It duplicates what the user guard
	// already does and may fire during the same evaluation.
	AlsoRedirect Route
}

// Allowed reports whether the decision lets the navigation through.
func (d Decision) Allowed() bool {
	return d.State == Authorized
}

// Guard evaluates an identity into a decision.
type Guard func(storage.Identity) Decision

// RequireUser admits any identity with an id and sends everyone else to login.
func RequireUser(id storage.Identity) Decision {
	if id.Authenticated() {
		return Decision{State: Authorized}
	}
	return Decision{State: Denied, RedirectTo: RouteLogin, Replace: true}
}

// RequireAdmin admits only admins. Others go to the chat landing screen; an
// absent identity additionally triggers a login redirect.
func RequireAdmin(id storage.Identity) Decision {
	if id.IsAdmin() {
		return Decision{State: Authorized}
	}
	d := Decision{State: Denied, RedirectTo: RouteChat, Replace: true}
	if !id.Authenticated() {
		d.AlsoRedirect = RouteLogin
	}
	return d
}

// Chain evaluates guards in order and returns the first denial.
func Chain(guards ...Guard) Guard {
	return func(id storage.Identity) Decision {
		for _, g := range guards {
			if d := g(id); !d.Allowed() {
				return d
			}
		}
		return Decision{State: Authorized}
	}
}

// ForRoute returns the guard protecting r. Admin routes sit inside the
// signed-in area, so both guards apply.
func ForRoute(r Route) Guard {
	switch r {
	case RouteLogin:
		return func(storage.Identity) Decision { return Decision{State: Authorized} }
	case RouteKnowledge, RouteDocuments:
		return Chain(RequireUser, RequireAdmin)
	default:
		return RequireUser
	}
}
