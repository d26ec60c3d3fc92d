package focus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// sharedSequence records notifications from multiple observers into a
// single ordered log, so tests can assert cross-observer interleaving
// rather than each observer's own call sequence in isolation.
type sharedSequence struct {
	mu      sync.Mutex
	entries []string
}

func (s *sharedSequence) record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *sharedSequence) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.entries...)
}

type recordingChannelObserver struct {
	mu     sync.Mutex
	calls  []string
	shared *sharedSequence
}

func (o *recordingChannelObserver) OnFocusChanged(channelName string, newFocus FocusState, mixing MixingBehavior) {
	o.mu.Lock()
	o.calls = append(o.calls, channelName+":"+newFocus.String())
	o.mu.Unlock()
	if o.shared != nil {
		o.shared.record(channelName + ":" + newFocus.String())
	}
}

func (o *recordingChannelObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string{}, o.calls...)
}

func waitForLen(t *testing.T, get func() []string, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(get()) >= n
	}, time.Second, time.Millisecond)
	return get()
}

// TestFocusManager_S4_AcquireOrdering verifies the cross-observer
// notification order for scenario S4: a newly backgrounded channel must
// be told BACKGROUND before the newly foregrounded one is told
// FOREGROUND, not the reverse. A per-observer assertion can't catch a
// swap here since each observer's own sequence still looks correct in
// isolation; only the interleaving across observers exposes it.
func TestFocusManager_S4_AcquireOrdering(t *testing.T) {
	m := NewManager(
		[]ChannelConfig{{Name: "dialog", Priority: 1}, {Name: "alerts", Priority: 2}, {Name: "content", Priority: 3}},
		nil, nil, nil,
	)
	defer m.Close()

	seq := &sharedSequence{}
	oc := &recordingChannelObserver{shared: seq}
	oa := &recordingChannelObserver{shared: seq}
	od := &recordingChannelObserver{shared: seq}

	m.AcquireChannel("content", oc, "if-content")
	waitForLen(t, seq.snapshot, 1)
	require.Equal(t, []string{"content:FOREGROUND"}, seq.snapshot())

	m.AcquireChannel("alerts", oa, "if-alerts")
	waitForLen(t, seq.snapshot, 3)
	require.Equal(t, []string{
		"content:FOREGROUND",
		"content:BACKGROUND",
		"alerts:FOREGROUND",
	}, seq.snapshot())

	m.AcquireChannel("dialog", od, "if-dialog")
	waitForLen(t, seq.snapshot, 5)
	require.Equal(t, []string{
		"content:FOREGROUND",
		"content:BACKGROUND",
		"alerts:FOREGROUND",
		"alerts:BACKGROUND",
		"dialog:FOREGROUND",
	}, seq.snapshot())

	// content stays backgrounded; no additional notification since it
	// was already BACKGROUND before dialog's acquire.
	require.Equal(t, []string{"content:FOREGROUND", "content:BACKGROUND"}, oc.snapshot())
	require.Equal(t, []string{"alerts:FOREGROUND", "alerts:BACKGROUND"}, oa.snapshot())
	require.Equal(t, []string{"dialog:FOREGROUND"}, od.snapshot())
}

func TestFocusManager_S5_StopForeground(t *testing.T) {
	m := NewManager(
		[]ChannelConfig{{Name: "dialog", Priority: 1}, {Name: "alerts", Priority: 2}, {Name: "content", Priority: 3}},
		nil, nil, nil,
	)
	defer m.Close()

	oc, oa, od := &recordingChannelObserver{}, &recordingChannelObserver{}, &recordingChannelObserver{}
	m.AcquireChannel("content", oc, "if-content")
	m.AcquireChannel("alerts", oa, "if-alerts")
	m.AcquireChannel("dialog", od, "if-dialog")
	waitForLen(t, od.snapshot, 1)

	m.StopForegroundActivity()

	waitForLen(t, od.snapshot, 2)
	require.Equal(t, []string{"dialog:FOREGROUND", "dialog:NONE"}, od.snapshot())
	waitForLen(t, oa.snapshot, 3)
	require.Equal(t, []string{"alerts:FOREGROUND", "alerts:BACKGROUND", "alerts:FOREGROUND"}, oa.snapshot())
}

func TestFocusManager_R2_AcquireReleaseRoundTrip(t *testing.T) {
	m := NewManager([]ChannelConfig{{Name: "dialog", Priority: 1}}, nil, nil, nil)
	defer m.Close()

	o := &recordingChannelObserver{}
	m.AcquireChannel("dialog", o, "if-0")
	waitForLen(t, o.snapshot, 1)

	ok := m.ReleaseChannel("dialog", o)
	require.True(t, ok)

	require.Equal(t, []string{"dialog:FOREGROUND", "dialog:NONE"}, o.snapshot())

	_, hasForeground := m.Foreground()
	require.False(t, hasForeground)
}

func TestFocusManager_AcquireSameChannelForceUpdates(t *testing.T) {
	m := NewManager([]ChannelConfig{{Name: "dialog", Priority: 1}}, nil, nil, nil)
	defer m.Close()

	o1 := &recordingChannelObserver{}
	m.AcquireChannel("dialog", o1, "if-0")
	waitForLen(t, o1.snapshot, 1)

	o2 := &recordingChannelObserver{}
	m.AcquireChannel("dialog", o2, "if-1")
	waitForLen(t, o2.snapshot, 1)
	require.Equal(t, []string{"dialog:FOREGROUND"}, o2.snapshot())
}

type fakeInterruptModel struct{}

func (fakeInterruptModel) GetMixingBehavior(lowerChannel string, lowerContentType ContentType, higherChannel string, higherContentType ContentType) MixingBehavior {
	if lowerContentType == "music" {
		return MixingDuck
	}
	return MixingMustPause
}

func TestFocusManager_InterruptModelConsulted(t *testing.T) {
	m := NewManager(
		[]ChannelConfig{{Name: "dialog", Priority: 1}, {Name: "content", Priority: 2}},
		nil, fakeInterruptModel{}, nil,
	)
	defer m.Close()

	oc := &recordingChannelObserver{}
	m.AcquireChannelWithActivity("content", Activity{InterfaceName: "if-content", Observer: oc, ContentType: "music"})
	waitForLen(t, oc.snapshot, 1)

	od := &recordingChannelObserver{}
	m.AcquireChannel("dialog", od, "if-dialog")
	waitForLen(t, oc.snapshot, 2)

	var found bool
	for _, call := range oc.snapshot() {
		if call == "content:BACKGROUND" {
			found = true
		}
	}
	require.True(t, found)
}

type fakeAuditRecorder struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAuditRecorder) RecordFocusAcquisition(ctx context.Context, channel, interfaceName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "acquire:"+channel+":"+interfaceName)
	return nil
}

func (f *fakeAuditRecorder) RecordFocusRelease(ctx context.Context, channel, interfaceName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "release:"+channel+":"+interfaceName)
	return nil
}

func (f *fakeAuditRecorder) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func TestFocusManager_AuditRecorderWiredOnAcquireAndRelease(t *testing.T) {
	m := NewManager([]ChannelConfig{{Name: "dialog", Priority: 1}}, nil, nil, nil)
	defer m.Close()

	audit := &fakeAuditRecorder{}
	m.SetAuditRecorder(audit)

	o := &recordingChannelObserver{}
	m.AcquireChannel("dialog", o, "if-1")
	waitForLen(t, o.snapshot, 1)

	require.True(t, m.ReleaseChannel("dialog", o))

	require.Eventually(t, func() bool {
		return len(audit.snapshot()) == 2
	}, time.Second, time.Millisecond)
	require.Equal(t, []string{"acquire:dialog:if-1", "release:dialog:if-1"}, audit.snapshot())
}
