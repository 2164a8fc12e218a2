package session

import "sync"

// TokenVault is the durable credential storage for one browser session. The
// refresh token is the only durable credential; access tokens stay in process
// memory.
type TokenVault interface {
	// StoreRefreshToken replaces the persisted refresh token.
	StoreRefreshToken(token string)

	// RefreshToken returns the persisted refresh token, or "" when absent.
	RefreshToken() string

	// Clear removes all persisted credentials.
	Clear()
}

// MemoryVault is an in-process TokenVault. The session cookie is what
// persists across requests; the vault lives as long as its session.
type MemoryVault struct {
	mu    sync.Mutex
	token string
}

// NewMemoryVault creates an empty vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{}
}

func (v *MemoryVault) StoreRefreshToken(token string) {
	v.mu.Lock()
	v.token = token
	v.mu.Unlock()
}

func (v *MemoryVault) RefreshToken() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.token
}

func (v *MemoryVault) Clear() {
	v.mu.Lock()
	v.token = ""
	v.mu.Unlock()
}
