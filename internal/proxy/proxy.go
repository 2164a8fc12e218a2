// Package proxy forwards guarded navigation routes to the downstream
// marketplace services. The guards decide whether a request gets this far;
// the proxy itself passes traffic through verbatim.
package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	pkghttputil "github.com/scorpion00100/crealith/pkg/httputil"
	"github.com/scorpion00100/crealith/pkg/logger"
)

// ServiceProxy holds one reverse proxy per downstream marketplace service.
type ServiceProxy struct {
	routes map[string]*httputil.ReverseProxy
	logger *slog.Logger
}

// NewServiceProxy builds proxies from a service name (catalog, cart, orders,
// ...) to its base URL. A malformed URL skips that service instead of
// failing startup; its routes answer 502 until the config is fixed.
func NewServiceProxy(serviceURLs map[string]string, logger *slog.Logger) *ServiceProxy {
	sp := &ServiceProxy{
		routes: make(map[string]*httputil.ReverseProxy),
		logger: logger,
	}
	for name, rawURL := range serviceURLs {
		sp.register(name, rawURL)
	}
	return sp
}

func (sp *ServiceProxy) register(name, rawURL string) {
	target, err := url.Parse(rawURL)
	if err != nil {
		sp.logger.Error("invalid service URL",
			slog.String("service", name),
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		// Downstream logs join ours through the same correlation ID.
		if id := logger.CorrelationIDFromContext(r.Context()); id != "" {
			r.Header.Set("X-Correlation-ID", id)
		}
	}
	proxy.ErrorHandler = sp.errorHandler(name)
	sp.routes[name] = proxy

	sp.logger.Info("registered service proxy",
		slog.String("service", name),
		slog.String("target", rawURL),
	)
}

// Handler returns the proxy for the named downstream service.
func (sp *ServiceProxy) Handler(serviceName string) http.Handler {
	proxy, ok := sp.routes[serviceName]
	if !ok {
		sp.logger.Error("no proxy registered for service", slog.String("service", serviceName))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pkghttputil.WriteJSON(w, http.StatusBadGateway, pkghttputil.Response{
				Error: &pkghttputil.ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "service not configured"},
			})
		})
	}
	return proxy
}

// errorHandler logs upstream failures and answers with a JSON 502. Upstream
// errors pass through untranslated; the guards never mask them.
func (sp *ServiceProxy) errorHandler(serviceName string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		sp.logger.Error("proxy error",
			slog.String("service", serviceName),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		pkghttputil.WriteJSON(w, http.StatusBadGateway, pkghttputil.Response{
			Error: &pkghttputil.ErrorResponse{Code: "BAD_GATEWAY", Message: "upstream service unavailable"},
		})
	}
}
