package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(idleTTL time.Duration) *Manager {
	m := NewManager(&stubAuth{}, "https://crealith.example.com", PolicyIgnore, idleTTL, testLogger())
	return m
}

func TestManager_NewAndGet(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	id, ctx := m.New()
	require.NotEmpty(t, id)
	require.NotNil(t, ctx)

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Same(t, ctx, got)
}

func TestManager_Get_UnknownID(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	got, ok := m.Get("no-such-session")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestManager_DistinctSessions(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	id1, ctx1 := m.New()
	id2, ctx2 := m.New()

	assert.NotEqual(t, id1, id2)
	assert.NotSame(t, ctx1, ctx2)
	// Redirect memories are per session.
	ctx1.Redirects().Capture("/cart")
	_, ok := ctx2.Redirects().Consume()
	assert.False(t, ok)
}

func TestManager_Delete(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	id, _ := m.New()
	m.Delete(id)

	_, ok := m.Get(id)
	assert.False(t, ok)
}

func TestManager_EvictsIdleSessions(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	id, _ := m.New()

	// Backdate the session past the idle cutoff and run the sweep directly.
	m.mu.Lock()
	m.sessions[id].lastSeen = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	m.evictIdle()

	_, ok := m.Get(id)
	assert.False(t, ok)
}

func TestManager_GetRefreshesIdleTimer(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	id, _ := m.New()

	m.mu.Lock()
	m.sessions[id].lastSeen = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	// Touching the session saves it from the next sweep.
	_, ok := m.Get(id)
	require.True(t, ok)

	m.evictIdle()

	_, ok = m.Get(id)
	assert.True(t, ok)
}

func TestManager_Len(t *testing.T) {
	m := newTestManager(time.Hour)
	defer m.Close()

	assert.Equal(t, 0, m.Len())
	m.New()
	m.New()
	assert.Equal(t, 2, m.Len())
}
