// Package redirect remembers the URL a visitor was trying to reach before
// being diverted to the login page, and replays it after authentication.
package redirect

import (
	"net/url"
	"strings"
	"sync"

	"github.com/scorpion00100/crealith/internal/domain"
)

// Route constants for the auth flow pages. Capturing any of these as an
// intended destination would bounce the user straight back into the flow
// they just finished, so they are never stored.
const (
	RouteLogin           = "/login"
	RouteRegister        = "/register"
	RouteForgotPassword  = "/forgot-password"
	RouteResetPassword   = "/reset-password"
	RouteVerifyEmail     = "/verify-email"
	RouteUnauthorized    = "/unauthorized"
	RouteHome            = "/"
	RouteSellerDashboard = "/seller/dashboard"
	RouteAdminDashboard  = "/admin"
)

var blacklist = []string{
	RouteLogin,
	RouteRegister,
	RouteForgotPassword,
	RouteResetPassword,
	RouteVerifyEmail,
	RouteUnauthorized,
}

// RoleDefault returns the landing route for a role when no better redirect
// target is known.
func RoleDefault(role string) string {
	switch role {
	case domain.RoleSeller:
		return RouteSellerDashboard
	case domain.RoleAdmin:
		return RouteAdminDashboard
	default:
		return RouteHome
	}
}

// Memory holds at most one intended URL per session. Capture rejects auth-flow
// pages; Consume is read-once.
type Memory struct {
	mu       sync.Mutex
	intended string
	origin   string
}

// NewMemory creates a redirect memory. origin is the site's own origin
// (scheme://host); absolute URLs pointing anywhere else are rejected. An
// empty origin permits relative paths only.
func NewMemory(origin string) *Memory {
	return &Memory{origin: strings.TrimSuffix(origin, "/")}
}

// Capture stores url as the pending redirect target. Invalid or blacklisted
// targets are silently dropped; the previous slot value, if any, survives.
func (m *Memory) Capture(target string) {
	if !m.IsValidRedirectTarget(target) {
		return
	}
	m.mu.Lock()
	m.intended = target
	m.mu.Unlock()
}

// Consume returns the pending redirect target and clears it. The second
// return is false when nothing was captured.
func (m *Memory) Consume() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.intended == "" {
		return "", false
	}
	target := m.intended
	m.intended = ""
	return target, true
}

// IsValidRedirectTarget reports whether target is safe to redirect to:
// same-origin (or relative) and not an auth-flow page.
func (m *Memory) IsValidRedirectTarget(target string) bool {
	if target == "" {
		return false
	}

	// Browsers normalize backslashes to slashes, so "/\evil.com" reaches the
	// client as the protocol-relative "//evil.com". No legitimate target
	// contains one.
	if strings.ContainsRune(target, '\\') {
		return false
	}

	path := target
	if strings.Contains(target, "://") || strings.HasPrefix(target, "//") {
		// Absolute URL: must match our origin exactly.
		if m.origin == "" || !strings.HasPrefix(target, m.origin+"/") && target != m.origin {
			return false
		}
		u, err := url.Parse(target)
		if err != nil {
			return false
		}
		path = u.Path
	} else if !strings.HasPrefix(target, "/") {
		return false
	} else {
		u, err := url.Parse(target)
		if err != nil {
			return false
		}
		path = u.Path
	}

	for _, blocked := range blacklist {
		if path == blocked || strings.HasPrefix(path, blocked+"/") {
			return false
		}
	}

	return true
}

// AfterLogin resolves the post-login destination. Resolution order: the
// captured intended URL, then navState (a "next" value carried through the
// login form), then the role default. Each candidate must still pass
// validation at resolution time.
func (m *Memory) AfterLogin(navState, role string) string {
	if target, ok := m.Consume(); ok && m.IsValidRedirectTarget(target) {
		return target
	}
	if navState != "" && m.IsValidRedirectTarget(navState) {
		return navState
	}
	return RoleDefault(role)
}
