package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scorpion00100/crealith/internal/domain"
	"github.com/scorpion00100/crealith/internal/redirect"
	"github.com/scorpion00100/crealith/internal/service"
)

// ProfileFailurePolicy decides what happens when the profile fetch behind an
// otherwise-valid session fails.
type ProfileFailurePolicy string

const (
	// PolicyIgnore logs the failure and keeps the session authenticated
	// with a nil user. A later RefreshProfile call may still resolve it.
	PolicyIgnore ProfileFailurePolicy = "ignore"

	// PolicyRetry retries the fetch once before falling back to ignore.
	PolicyRetry ProfileFailurePolicy = "retry"

	// PolicyLogout treats the failure as session invalidation.
	PolicyLogout ProfileFailurePolicy = "logout"
)

// AuthAPI is the credential-validator surface the session context consumes.
type AuthAPI interface {
	Login(ctx context.Context, input service.LoginInput) (*domain.User, *domain.TokenPair, error)
	Register(ctx context.Context, input service.RegisterInput) (*domain.User, *domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// Context is the single owner of one browser session's authenticated state.
// All mutation goes through its methods; readers get value snapshots.
//
// Overlapping mutating calls are fenced with a generation counter: each call
// takes a generation on entry, and a completion whose generation has been
// superseded does not write state. The newest submission wins.
type Context struct {
	mu    sync.Mutex
	state domain.Session
	gen   uint64

	hydrateOnce sync.Once
	hydrated    chan struct{}

	auth      AuthAPI
	vault     TokenVault
	redirects *redirect.Memory
	policy    ProfileFailurePolicy
	logger    *slog.Logger
}

// NewContext creates a session context in the initial (unauthenticated,
// not yet hydrated) state.
func NewContext(auth AuthAPI, vault TokenVault, redirects *redirect.Memory, policy ProfileFailurePolicy, logger *slog.Logger) *Context {
	if policy == "" {
		policy = PolicyIgnore
	}
	return &Context{
		state:     domain.Session{IsLoading: true},
		hydrated:  make(chan struct{}),
		auth:      auth,
		vault:     vault,
		redirects: redirects,
		policy:    policy,
		logger:    logger,
	}
}

// Snapshot returns a copy of the current session state.
func (c *Context) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Redirects returns this session's redirect memory.
func (c *Context) Redirects() *redirect.Memory {
	return c.redirects
}

// begin takes a new generation and marks the session loading.
func (c *Context) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state.IsLoading = true
	return c.gen
}

// commit applies fn to the session state unless gen has been superseded by a
// newer operation, in which case the late result is discarded.
func (c *Context) commit(gen uint64, fn func(s *domain.Session)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	fn(&c.state)
	c.state.IsLoading = false
	return true
}

// Login authenticates and, on success, persists the refresh token and marks
// the session authenticated. On failure the error message lands in
// Session.Error and the error is returned so a form can stay open.
// The issued token pair is returned for clients that manage tokens directly.
func (c *Context) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	gen := c.begin()

	user, tokens, err := c.auth.Login(ctx, service.LoginInput{Email: email, Password: password})
	if err != nil {
		c.commit(gen, func(s *domain.Session) {
			s.User = nil
			s.IsAuthenticated = false
			s.Error = err.Error()
		})
		return nil, err
	}

	if c.commit(gen, func(s *domain.Session) {
		s.User = user
		s.IsAuthenticated = true
		s.Error = ""
	}) {
		c.vault.StoreRefreshToken(tokens.RefreshToken)
	}

	return tokens, nil
}

// Register creates an account and signs the session in. The account starts
// unverified; the guard layer keeps it on the verification page until the
// email is confirmed.
func (c *Context) Register(ctx context.Context, input service.RegisterInput) (*domain.TokenPair, error) {
	gen := c.begin()

	user, tokens, err := c.auth.Register(ctx, input)
	if err != nil {
		c.commit(gen, func(s *domain.Session) {
			s.User = nil
			s.IsAuthenticated = false
			s.Error = err.Error()
		})
		return nil, err
	}

	if c.commit(gen, func(s *domain.Session) {
		s.User = user
		s.IsAuthenticated = true
		s.Error = ""
	}) {
		c.vault.StoreRefreshToken(tokens.RefreshToken)
	}

	return tokens, nil
}

// Logout revokes the refresh token best-effort and always clears local
// state. A backend hiccup must never keep a user signed in.
func (c *Context) Logout(ctx context.Context) {
	gen := c.begin()

	if token := c.vault.RefreshToken(); token != "" {
		if err := c.auth.Revoke(ctx, token); err != nil {
			c.logger.WarnContext(ctx, "revoke on logout failed, clearing local session anyway",
				slog.String("error", err.Error()),
			)
		}
	}

	// The clear rides inside the commit so a newer login that already won
	// the generation race keeps its stored token.
	c.commit(gen, func(s *domain.Session) {
		c.vault.Clear()
		*s = domain.Session{}
	})
}

// RefreshProfile fetches the user record when the session is authenticated
// but the profile is still unresolved. Failure handling follows the
// configured policy.
func (c *Context) RefreshProfile(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.IsAuthenticated || c.state.User != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.fetchProfile(ctx, c.policy)
}

func (c *Context) fetchProfile(ctx context.Context, policy ProfileFailurePolicy) error {
	token := c.vault.RefreshToken()
	if token == "" {
		return nil
	}

	user, tokens, err := c.auth.Refresh(ctx, token)
	if err != nil {
		switch policy {
		case PolicyRetry:
			return c.fetchProfile(ctx, PolicyIgnore)
		case PolicyLogout:
			c.logger.InfoContext(ctx, "profile fetch failed, logging out per policy",
				slog.String("error", err.Error()),
			)
			c.Logout(ctx)
			return err
		default:
			// Transient network trouble should not evict a valid session.
			c.logger.WarnContext(ctx, "profile fetch failed, keeping session",
				slog.String("error", err.Error()),
			)
			return err
		}
	}

	gen := c.begin()
	if c.commit(gen, func(s *domain.Session) {
		s.User = user
		s.IsAuthenticated = true
		s.Error = ""
	}) {
		c.vault.StoreRefreshToken(tokens.RefreshToken)
	}
	return nil
}

// ClearError resets the last error without other side effects.
func (c *Context) ClearError() {
	c.mu.Lock()
	c.state.Error = ""
	c.mu.Unlock()
}

// Hydrate resolves the session's startup state from the persisted refresh
// token. It runs at most once; guards wait on AwaitHydration so they never
// evaluate a not-yet-hydrated session.
func (c *Context) Hydrate(ctx context.Context) {
	c.hydrateOnce.Do(func() {
		defer close(c.hydrated)

		gen := c.begin()

		token := c.vault.RefreshToken()
		if token == "" {
			c.commit(gen, func(s *domain.Session) {
				*s = domain.Session{}
			})
			return
		}

		user, tokens, err := c.auth.Refresh(ctx, token)
		if err != nil {
			// Stale or revoked token: drop it and start signed out.
			c.commit(gen, func(s *domain.Session) {
				c.vault.Clear()
				*s = domain.Session{}
			})
			return
		}

		if c.commit(gen, func(s *domain.Session) {
			s.User = user
			s.IsAuthenticated = true
			s.Error = ""
		}) {
			c.vault.StoreRefreshToken(tokens.RefreshToken)
		}
	})
}

// AwaitHydration blocks until Hydrate has resolved or ctx is done.
func (c *Context) AwaitHydration(ctx context.Context) error {
	select {
	case <-c.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
