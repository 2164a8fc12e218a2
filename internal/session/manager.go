package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scorpion00100/crealith/internal/redirect"
)

// Manager is the registry of session contexts, keyed by the session-ID
// cookie. Idle sessions are evicted by a janitor goroutine.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	done     chan struct{}
	stopOnce sync.Once

	auth    AuthAPI
	origin  string
	policy  ProfileFailurePolicy
	idleTTL time.Duration
	logger  *slog.Logger
}

type entry struct {
	ctx      *Context
	lastSeen time.Time
}

// NewManager creates a session manager. origin is used for redirect-target
// validation; idleTTL is how long an untouched session survives.
func NewManager(auth AuthAPI, origin string, policy ProfileFailurePolicy, idleTTL time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		done:     make(chan struct{}),
		auth:     auth,
		origin:   origin,
		policy:   policy,
		idleTTL:  idleTTL,
		logger:   logger,
	}
	go m.janitor()
	return m
}

// New creates a fresh session context and returns its ID for the cookie.
func (m *Manager) New() (string, *Context) {
	id := uuid.New().String()
	ctx := NewContext(m.auth, NewMemoryVault(), redirect.NewMemory(m.origin), m.policy, m.logger)

	m.mu.Lock()
	m.sessions[id] = &entry{ctx: ctx, lastSeen: time.Now()}
	m.mu.Unlock()

	return id, ctx
}

// Get returns the session context for an ID and refreshes its idle timer.
func (m *Manager) Get(id string) (*Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.ctx, true
}

// Delete removes a session, e.g. after logout.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the janitor goroutine.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) janitor() {
	interval := m.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
