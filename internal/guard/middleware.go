package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/scorpion00100/crealith/internal/session"
	"github.com/scorpion00100/crealith/pkg/httputil"
)

// SessionProvider resolves the session context bound to a request. The
// cookie middleware in the handler layer supplies it.
type SessionProvider func(r *http.Request) *session.Context

// Middleware adapts guard decisions to HTTP: browser navigations get 303
// redirects, API requests get JSON errors.
type Middleware struct {
	sessions SessionProvider
	logger   *slog.Logger
}

// NewMiddleware creates a guard middleware set.
func NewMiddleware(sessions SessionProvider, logger *slog.Logger) *Middleware {
	return &Middleware{sessions: sessions, logger: logger}
}

// PublicOnly keeps authenticated users off login/registration pages.
func (m *Middleware) PublicOnly() func(http.Handler) http.Handler {
	return m.adapt(func(sc *session.Context, r *http.Request) Decision {
		return PublicOnly(sc.Snapshot())
	})
}

// RequireAuth admits only authenticated sessions.
func (m *Middleware) RequireAuth() func(http.Handler) http.Handler {
	return m.adapt(func(sc *session.Context, r *http.Request) Decision {
		return RequireAuth(sc.Snapshot(), sc.Redirects(), r.URL.RequestURI())
	})
}

// RequireRole admits only authenticated sessions with the given role.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return m.adapt(func(sc *session.Context, r *http.Request) Decision {
		return RequireRole(sc.Snapshot(), sc.Redirects(), r.URL.RequestURI(), role)
	})
}

// RequireVerified admits only sessions whose user has confirmed their email.
func (m *Middleware) RequireVerified() func(http.Handler) http.Handler {
	return m.adapt(func(sc *session.Context, r *http.Request) Decision {
		return RequireVerified(sc.Snapshot(), sc.Redirects(), r.URL.RequestURI())
	})
}

func (m *Middleware) adapt(evaluate func(sc *session.Context, r *http.Request) Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := m.sessions(r)
			if sc == nil {
				m.deny(w, r, Decision{Kind: RedirectToLogin, Target: "/login"})
				return
			}

			// Never evaluate a not-yet-hydrated session; that is where
			// redirect flicker comes from.
			if err := sc.AwaitHydration(r.Context()); err != nil {
				m.logger.WarnContext(r.Context(), "request canceled while awaiting session hydration",
					slog.String("path", r.URL.Path),
				)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			d := evaluate(sc, r)
			if d.Kind == Allowed {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r, d)
		})
	}
}

// deny translates a non-Allowed decision. Guard denials are silent
// redirects on the navigation surface, never user-visible errors.
func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	if wantsHTML(r) {
		http.Redirect(w, r, d.Target, http.StatusSeeOther)
		return
	}

	switch d.Kind {
	case RedirectToLogin:
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHENTICATED", Message: "authentication required"},
		})
	case RedirectToUnauthorized:
		httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "insufficient role"},
		})
	case RedirectToVerify:
		httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "EMAIL_NOT_VERIFIED", Message: "email verification required"},
		})
	default:
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "ALREADY_AUTHENTICATED", Message: "already signed in"},
		})
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
