package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{
			name:      "expired in past",
			expiresAt: time.Now().Add(-1 * time.Hour),
			expected:  true,
		},
		{
			name:      "expires soon (within 60s)",
			expiresAt: time.Now().Add(30 * time.Second),
			expected:  true,
		},
		{
			name:      "not expired",
			expiresAt: time.Now().Add(2 * time.Hour),
			expected:  false,
		},
		{
			name:      "zero time never expires (static token, no auth)",
			expiresAt: time.Time{},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, ctx.IsExpired())
		})
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()

	oldXDG := os.Getenv("XDG_CONFIG_HOME")
	_ = os.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Cleanup(func() { _ = os.Setenv("XDG_CONFIG_HOME", oldXDG) })

	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestStore_ConfigPathUnderXDGConfigHome(t *testing.T) {
	tmpDir := t.TempDir()
	_ = os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Unsetenv("XDG_CONFIG_HOME")

	store, err := NewStore()
	require.NoError(t, err)

	expectedPath := filepath.Join(tmpDir, DefaultConfigDir, ConfigFileName)
	assert.Equal(t, expectedPath, store.ConfigPath())
}

func TestStore_NoCurrentContextInitially(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.GetCurrentContextName())
}

func TestStore_SetContextMakesItCurrent(t *testing.T) {
	store := newTestStore(t)

	ctx := &Context{
		ServerAddr: "127.0.0.1:8733",
		Token:      "token1",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SetContext("default", ctx))

	assert.Equal(t, "default", store.GetCurrentContextName())

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8733", current.ServerAddr)
	assert.Equal(t, "token1", current.Token)
}

func TestStore_SetContextPersistsAcrossReload(t *testing.T) {
	tmpDir := t.TempDir()
	_ = os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Unsetenv("XDG_CONFIG_HOME")

	store, err := NewStore()
	require.NoError(t, err)
	require.NoError(t, store.SetContext("default", &Context{ServerAddr: "127.0.0.1:8733", Token: "tok"}))

	reloaded, err := NewStore()
	require.NoError(t, err)

	current, err := reloaded.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8733", current.ServerAddr)
	assert.Equal(t, "tok", current.Token)
}

func TestStore_ClearCurrentContextLogsOut(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetContext("default", &Context{ServerAddr: "127.0.0.1:8733", Token: "tok"}))
	require.NoError(t, store.ClearCurrentContext())

	assert.Empty(t, store.GetCurrentContextName())
	_, err := store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
}

func TestStore_ClearCurrentContextWithoutOneIsAnError(t *testing.T) {
	store := newTestStore(t)

	err := store.ClearCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
}
