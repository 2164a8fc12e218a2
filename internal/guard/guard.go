// Package guard decides, per navigation, whether the requested view is
// permitted given session state and role, and where to send the visitor
// otherwise.
package guard

import (
	"github.com/scorpion00100/crealith/internal/domain"
	"github.com/scorpion00100/crealith/internal/redirect"
)

// Kind enumerates guard outcomes.
type Kind int

const (
	Allowed Kind = iota
	RedirectToLogin
	RedirectToUnauthorized
	RedirectToVerify
	RedirectAway
)

// Decision is a guard's verdict for one navigation. Target is the redirect
// location for every kind except Allowed.
type Decision struct {
	Kind   Kind
	Target string
}

var allowed = Decision{Kind: Allowed}

// PublicOnly redirects authenticated users away to their role's default
// route. Used for login and registration pages.
func PublicOnly(s domain.Session) Decision {
	if s.IsAuthenticated {
		role := ""
		if s.User != nil {
			role = s.User.Role
		}
		return Decision{Kind: RedirectAway, Target: redirect.RoleDefault(role)}
	}
	return allowed
}

// RequireAuth captures the intended URL and sends unauthenticated visitors
// to the login page.
func RequireAuth(s domain.Session, mem *redirect.Memory, requested string) Decision {
	if !s.IsAuthenticated {
		mem.Capture(requested)
		return Decision{Kind: RedirectToLogin, Target: redirect.RouteLogin}
	}
	return allowed
}

// RequireRole composes RequireAuth with a role check. A role mismatch is
// terminal: the user is authenticated, just not permitted, so they go to the
// unauthorized page rather than back to login.
func RequireRole(s domain.Session, mem *redirect.Memory, requested, role string) Decision {
	if d := RequireAuth(s, mem, requested); d.Kind != Allowed {
		return d
	}
	if !s.HasRole(role) {
		return Decision{Kind: RedirectToUnauthorized, Target: redirect.RouteUnauthorized}
	}
	return allowed
}

// RequireVerified composes RequireAuth with an email-verification check.
func RequireVerified(s domain.Session, mem *redirect.Memory, requested string) Decision {
	if d := RequireAuth(s, mem, requested); d.Kind != Allowed {
		return d
	}
	if !s.IsEmailVerified() {
		return Decision{Kind: RedirectToVerify, Target: redirect.RouteVerifyEmail}
	}
	return allowed
}
