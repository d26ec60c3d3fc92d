package auditstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_SQLiteRecordAndQuery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(&Config{Type: DriverSQLite, SQLite: SQLiteConfig{Path: dbPath}})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.RecordUXTransition(ctx, "IDLE", "LISTENING"))
	require.NoError(t, s.RecordFocusAcquisition(ctx, "dialog", "speaker"))
	require.NoError(t, s.RecordFocusRelease(ctx, "dialog", "speaker"))

	events, err := s.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, EventFocusRelease, events[0].Kind)
}

func TestConfig_ApplyDefaults_SQLite(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	require.Equal(t, DriverSQLite, cfg.Type)
	require.NotEmpty(t, cfg.SQLite.Path)
}

func TestConfig_Validate_PostgresRequiresHost(t *testing.T) {
	cfg := &Config{Type: DriverPostgres}
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate())
}
