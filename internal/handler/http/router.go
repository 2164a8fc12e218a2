package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scorpion00100/crealith/internal/auth"
	"github.com/scorpion00100/crealith/internal/domain"
	"github.com/scorpion00100/crealith/internal/guard"
	"github.com/scorpion00100/crealith/internal/proxy"
	"github.com/scorpion00100/crealith/internal/session"
	"github.com/scorpion00100/crealith/pkg/health"
	"github.com/scorpion00100/crealith/pkg/middleware"
)

// RouterConfig carries the wired dependencies for the HTTP surface.
type RouterConfig struct {
	Auth     AuthService
	Sessions *session.Manager
	JWT      *auth.JWTManager
	Proxy    *proxy.ServiceProxy
	Health   *health.Handler
	Logger   *slog.Logger
	CORS     CORSConfig

	// SecureCookies marks the session cookie Secure (HTTPS only).
	SecureCookies bool

	// Per-IP limit on the credential endpoints.
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with the auth API, the guarded navigation
// surface, and operational endpoints registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing("crealith-gateway"))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("gateway"))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	bindSession := SessionBinder(cfg.Sessions, cfg.SecureCookies)
	authHandler := NewAuthHandler(cfg.Auth, cfg.Sessions, cfg.SecureCookies, cfg.Logger)

	// Bridges bearer tokens to the internal JWT manager for the API profile
	// endpoint.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWT.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(bindSession)

		// Credential endpoints are the brute-force surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot-password", authHandler.ForgotPassword)
		})

		r.Post("/refresh", authHandler.RefreshToken)
		r.Post("/logout", authHandler.Logout)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Post("/verify-email", authHandler.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/profile", authHandler.Profile)
		})
	})

	// Navigation surface: every route is bound to its browser session and
	// passed through the matching guard before being proxied downstream.
	guards := guard.NewMiddleware(SessionFromRequest, cfg.Logger)

	r.Group(func(r chi.Router) {
		r.Use(bindSession)

		proxyTo := func(service string) http.Handler { return cfg.Proxy.Handler(service) }

		mount := func(r chi.Router, pattern, service string, mw func(http.Handler) http.Handler) {
			r.With(mw).Handle(pattern, proxyTo(service))
			r.With(mw).Handle(pattern+"/*", proxyTo(service))
		}

		mount(r, "/cart", "cart", guards.RequireVerified())
		mount(r, "/favorites", "favorites", guards.RequireVerified())
		mount(r, "/checkout", "orders", guards.RequireVerified())
		mount(r, "/account", "users", guards.RequireAuth())
		mount(r, "/seller", "seller", guards.RequireRole(domain.RoleSeller))
		mount(r, "/admin", "admin", guards.RequireRole(domain.RoleAdmin))
		mount(r, "/login", "web", guards.PublicOnly())
		mount(r, "/register", "web", guards.PublicOnly())

		// Guard redirect destinations must resolve on this surface too.
		r.Handle("/", proxyTo("web"))
		r.Handle("/verify-email", proxyTo("web"))
		r.Handle("/unauthorized", proxyTo("web"))
	})

	return r
}
