package http

import (
	"context"
	"net/http"

	"github.com/scorpion00100/crealith/internal/session"
)

// SessionCookieName is the HttpOnly cookie binding a browser to its
// server-side session context.
const SessionCookieName = "crealith_sid"

type sessionCtxKeyType struct{}
type sessionIDKeyType struct{}

var (
	sessionCtxKey sessionCtxKeyType
	sessionIDKey  sessionIDKeyType
)

// SessionBinder resolves the session cookie to its server-side context,
// creating a fresh session (and setting the cookie) when none exists.
func SessionBinder(manager *session.Manager, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				sid string
				sc  *session.Context
			)

			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if got, ok := manager.Get(cookie.Value); ok {
					sid, sc = cookie.Value, got
				}
			}

			if sc == nil {
				sid, sc = manager.New()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				// A fresh session has an empty vault, so this resolves
				// immediately and guards never wait on it.
				sc.Hydrate(r.Context())
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey, sc)
			ctx = context.WithValue(ctx, sessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromRequest returns the session context bound by SessionBinder,
// or nil when the middleware did not run.
func SessionFromRequest(r *http.Request) *session.Context {
	sc, _ := r.Context().Value(sessionCtxKey).(*session.Context)
	return sc
}

func sessionIDFromRequest(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
