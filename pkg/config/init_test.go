package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func withXDGConfigHome(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", dir)
}

func TestDefaultConfigPath_UsesXDGConfigHome(t *testing.T) {
	tmpDir := t.TempDir()
	withXDGConfigHome(t, tmpDir)

	require.Equal(t, filepath.Join(tmpDir, "vassist", "config.yaml"), DefaultConfigPath())
}

func TestDefaultConfigExists_FalseUntilSaved(t *testing.T) {
	tmpDir := t.TempDir()
	withXDGConfigHome(t, tmpDir)

	require.False(t, DefaultConfigExists())

	cfg := DefaultConfig()
	require.NoError(t, SaveConfig(cfg, DefaultConfigPath()))
	require.True(t, DefaultConfigExists())
}

func TestSaveConfig_WritesRestrictedPermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, SaveConfig(DefaultConfig(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
