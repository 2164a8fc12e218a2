package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/scorpion00100/crealith/pkg/config"
)

// Config holds all configuration for the auth gateway.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost          string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort          int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser          string `env:"POSTGRES_USER" envDefault:"crealith"`
	PostgresPass          string `env:"POSTGRES_PASSWORD" envDefault:"crealith_secret"`
	PostgresDB            string `env:"AUTH_DB_NAME" envDefault:"crealith_auth"`
	PostgresSSL           string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns            int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int    `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int    `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"15"`
	SlowQueryThresholdMs  int    `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis (refresh token and one-time token store)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret        string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry string `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Browser sessions
	PublicOrigin         string        `env:"PUBLIC_ORIGIN" envDefault:""`
	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	ProfileFailurePolicy string        `env:"PROFILE_FAILURE_POLICY" envDefault:"ignore"`
	SecureCookies        bool          `env:"SECURE_COOKIES" envDefault:"false"`

	// Rate limiting on the credential endpoints
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Downstream services behind the guarded navigation routes
	CartServiceURL      string `env:"CART_SERVICE_URL" envDefault:"http://localhost:8001"`
	FavoritesServiceURL string `env:"FAVORITES_SERVICE_URL" envDefault:"http://localhost:8002"`
	OrdersServiceURL    string `env:"ORDERS_SERVICE_URL" envDefault:"http://localhost:8003"`
	UsersServiceURL     string `env:"USERS_SERVICE_URL" envDefault:"http://localhost:8004"`
	SellerServiceURL    string `env:"SELLER_SERVICE_URL" envDefault:"http://localhost:8005"`
	AdminServiceURL     string `env:"ADMIN_SERVICE_URL" envDefault:"http://localhost:8006"`
	WebServiceURL       string `env:"WEB_SERVICE_URL" envDefault:"http://localhost:5173"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load auth gateway config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	switch cfg.ProfileFailurePolicy {
	case "ignore", "retry", "logout":
	default:
		return nil, fmt.Errorf("invalid PROFILE_FAILURE_POLICY %q: must be ignore, retry or logout", cfg.ProfileFailurePolicy)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// ServiceURLs maps downstream service names to their base URLs for the proxy.
func (c *Config) ServiceURLs() map[string]string {
	return map[string]string{
		"cart":      c.CartServiceURL,
		"favorites": c.FavoritesServiceURL,
		"orders":    c.OrdersServiceURL,
		"users":     c.UsersServiceURL,
		"seller":    c.SellerServiceURL,
		"admin":     c.AdminServiceURL,
		"web":       c.WebServiceURL,
	}
}
