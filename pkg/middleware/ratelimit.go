package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorStore keeps one token bucket per client IP. Entries not seen within
// ttl are swept by a background loop so the map cannot grow unbounded.
type visitorStore struct {
	mu    sync.Mutex
	seen  map[string]*visitor
	limit rate.Limit
	burst int
	ttl   time.Duration
	clock func() time.Time // injectable for tests
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newVisitorStore(rps, burst int, ttl time.Duration) *visitorStore {
	s := &visitorStore{
		seen:  make(map[string]*visitor),
		limit: rate.Limit(rps),
		burst: burst,
		ttl:   ttl,
		clock: time.Now,
	}
	go s.sweepLoop()
	return s
}

// allow consumes one token from the bucket for ip, creating the bucket on
// first sight.
func (s *visitorStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.seen[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(s.limit, s.burst)}
		s.seen[ip] = v
	}
	v.lastSeen = s.clock()
	return v.bucket.Allow()
}

func (s *visitorStore) sweepLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for range ticker.C {
		s.sweep()
	}
}

// sweep evicts every visitor idle for longer than the TTL.
func (s *visitorStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock().Add(-s.ttl)
	for ip, v := range s.seen {
		if v.lastSeen.Before(cutoff) {
			delete(s.seen, ip)
		}
	}
}

func (s *visitorStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// RateLimit enforces a per-IP token bucket of rps requests per second with
// the given burst, answering 429 once the bucket is empty. Mounted on the
// credential endpoints to slow brute forcing.
func RateLimit(rps, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	const sweepInterval = 3 * time.Minute
	store := newVisitorStore(rps, burst, sweepInterval)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !store.allow(ip) {
				logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "RATE_LIMITED",
					"message": "too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating client address, trusting proxy headers
// before RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First parseable address in the chain is the originating client.
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
