package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	require.Equal(t, 5*time.Minute, cfg.Interval)
}

func TestUploader_SkipsUploadWhenSourceErrors(t *testing.T) {
	calls := 0
	source := func(ctx context.Context) (Snapshot, error) {
		calls++
		return Snapshot{}, errors.New("source unavailable")
	}

	// client is nil: uploadOnce must never reach the S3 call when the
	// source errors first, so a nil client is safe here.
	u := New(nil, Config{Interval: 5 * time.Millisecond}, source)
	u.Start()
	defer u.Stop()

	require.Eventually(t, func() bool {
		return calls >= 2
	}, time.Second, time.Millisecond)
}

func TestSnapshot_MarshalsExpectedShape(t *testing.T) {
	snap := Snapshot{
		UXTransitions: []Event{{Kind: "ux_transition", FromState: "IDLE", ToState: "LISTENING"}},
	}
	snap.TakenAt = time.Unix(0, 0).UTC()

	b, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded.UXTransitions, 1)
	require.Equal(t, "LISTENING", decoded.UXTransitions[0].ToState)
}
