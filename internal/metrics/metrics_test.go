package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordEventIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordEvent("THINKING_TIMEOUT_EXPIRES", nil)
	r.RecordEvent("THINKING_TIMEOUT_EXPIRES", nil)

	count := testutil.ToFloat64(r.uxEvents.WithLabelValues("THINKING_TIMEOUT_EXPIRES"))
	require.Equal(t, float64(2), count)
}

func TestRecorder_RecordFocusChange(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFocusChange("dialog", "FOREGROUND")

	count := testutil.ToFloat64(r.focusChanges.WithLabelValues("dialog", "FOREGROUND"))
	require.Equal(t, float64(1), count)
}
