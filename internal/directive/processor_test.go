package directive

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingHandler accepts every pre-handle and handle call, recording
// call order and capturing the sink so tests can drive BLOCKING
// directives to completion/failure deterministically.
type recordingHandler struct {
	mu          sync.Mutex
	calls       []string
	sinks       map[string]ResultSink
	rejectPre   map[string]bool
	rejectOnHandle map[string]bool
	deregistered int
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		sinks:          make(map[string]ResultSink),
		rejectPre:      make(map[string]bool),
		rejectOnHandle: make(map[string]bool),
	}
}

func (h *recordingHandler) HandleDirectiveImmediately(d Directive) error { return nil }

func (h *recordingHandler) PreHandleDirective(d Directive, sink ResultSink) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "preHandle:"+d.MessageID)
	h.sinks[d.MessageID] = sink
	if h.rejectPre[d.MessageID] {
		return errUnwanted
	}
	return nil
}

func (h *recordingHandler) HandleDirective(messageID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "handle:"+messageID)
	if h.rejectOnHandle[messageID] {
		return errUnwanted
	}
	return nil
}

func (h *recordingHandler) CancelDirective(messageID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, "cancel:"+messageID)
	return nil
}

func (h *recordingHandler) OnDeregistered() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deregistered++
}

func (h *recordingHandler) callLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.calls...)
}

func (h *recordingHandler) sinkFor(messageID string) ResultSink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sinks[messageID]
}

var errUnwanted = &testError{"rejected"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestProcessor_S1_NonBlockingHandledInOrder(t *testing.T) {
	router := NewRouter()
	h := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: h, Policy: PolicyNonBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")

	accepted := p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"})
	require.True(t, accepted)

	require.Eventually(t, func() bool {
		log := h.callLog()
		return len(log) == 2 && log[0] == "preHandle:M00" && log[1] == "handle:M00"
	}, time.Second, time.Millisecond)
}

func TestProcessor_S2_BlockingGatesNonBlocking(t *testing.T) {
	router := NewRouter()
	hBlock := newRecordingHandler()
	hNB := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: hBlock, Policy: PolicyBlocking},
		id("ns0", "n1"): {Handler: hNB, Policy: PolicyNonBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")

	require.True(t, p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"}))
	require.True(t, p.OnDirective(Directive{MessageID: "M01", Namespace: "ns0", Name: "n1", DialogRequestID: "D0"}))

	require.Eventually(t, func() bool {
		log := hBlock.callLog()
		return len(log) == 2 && log[1] == "handle:M00"
	}, time.Second, time.Millisecond)

	// M01 must be pre-handled and queued, but not handled, while M00
	// (BLOCKING) is still in flight.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []string{"preHandle:M01"}, hNB.callLog())

	sink := hBlock.sinkFor("M00")
	require.NotNil(t, sink)
	sink.SetCompleted()

	require.Eventually(t, func() bool {
		log := hNB.callLog()
		return len(log) == 2 && log[1] == "handle:M01"
	}, time.Second, time.Millisecond)
}

func TestProcessor_S3_SetDialogRequestIDScrubsInFlight(t *testing.T) {
	router := NewRouter()
	hBlock := newRecordingHandler()
	hNB := newRecordingHandler()
	h2 := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: hBlock, Policy: PolicyBlocking},
		id("ns0", "n1"): {Handler: hNB, Policy: PolicyNonBlocking},
		id("ns1", "n0"): {Handler: h2, Policy: PolicyNonBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")

	require.True(t, p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"}))
	require.True(t, p.OnDirective(Directive{MessageID: "M01", Namespace: "ns0", Name: "n1", DialogRequestID: "D0"}))

	require.Eventually(t, func() bool {
		return len(hBlock.callLog()) == 2 // preHandle + handle, now blocked
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return len(hNB.callLog()) == 1 // preHandle only, queued behind the blocking directive
	}, time.Second, time.Millisecond)

	p.SetDialogRequestID("D1")

	require.Eventually(t, func() bool {
		return containsCall(hBlock.callLog(), "cancel:M00") && containsCall(hNB.callLog(), "cancel:M01")
	}, time.Second, time.Millisecond)

	accepted := p.OnDirective(Directive{MessageID: "M10", Namespace: "ns1", Name: "n0", DialogRequestID: "D1"})
	require.True(t, accepted)

	require.Eventually(t, func() bool {
		log := h2.callLog()
		return len(log) == 2 && log[0] == "preHandle:M10" && log[1] == "handle:M10"
	}, time.Second, time.Millisecond)
}

func containsCall(log []string, want string) bool {
	for _, c := range log {
		if c == want {
			return true
		}
	}
	return false
}

func TestProcessor_MismatchedDialogIsDroppedButConsumed(t *testing.T) {
	router := NewRouter()
	h := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: h, Policy: PolicyNonBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")

	consumed := p.OnDirective(Directive{MessageID: "M99", Namespace: "ns0", Name: "n0", DialogRequestID: "wrong-dialog"})
	require.True(t, consumed, "mismatched-dialog directives are dropped as consumed, not retried")

	time.Sleep(10 * time.Millisecond)
	require.Empty(t, h.callLog())
}

func TestProcessor_EmptyDialogIDBypassesMatchCheck(t *testing.T) {
	router := NewRouter()
	h := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: h, Policy: PolicyNonBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")

	accepted := p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: ""})
	require.True(t, accepted)

	require.Eventually(t, func() bool {
		log := h.callLog()
		return len(log) == 2 && log[1] == "handle:M00"
	}, time.Second, time.Millisecond)
}

func TestProcessor_RouterRejectionScrubsDialog(t *testing.T) {
	router := NewRouter()
	hReject := newRecordingHandler()
	hSibling := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: hReject, Policy: PolicyBlocking},
		id("ns0", "n1"): {Handler: hSibling, Policy: PolicyBlocking},
	}))
	hReject.rejectPre["M00"] = true

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")

	// M01 is a BLOCKING sibling of the same dialog, still in flight when
	// M00's pre-handle is rejected; the rejection scrubs D0 and cancels it.
	require.True(t, p.OnDirective(Directive{MessageID: "M01", Namespace: "ns0", Name: "n1", DialogRequestID: "D0"}))
	require.Eventually(t, func() bool {
		return containsCall(hSibling.callLog(), "handle:M01")
	}, time.Second, time.Millisecond)

	accepted := p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"})
	require.False(t, accepted)

	require.Eventually(t, func() bool {
		return containsCall(hSibling.callLog(), "cancel:M01")
	}, time.Second, time.Millisecond)
}

func TestProcessor_DisableScrubsAndRefusesNewWork(t *testing.T) {
	router := NewRouter()
	h := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: h, Policy: PolicyBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	p.SetDialogRequestID("D0")
	require.True(t, p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"}))

	require.Eventually(t, func() bool { return len(h.callLog()) == 2 }, time.Second, time.Millisecond)

	p.Disable()

	require.Eventually(t, func() bool {
		return containsCall(h.callLog(), "cancel:M00")
	}, time.Second, time.Millisecond)

	consumed := p.OnDirective(Directive{MessageID: "M01", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"})
	require.True(t, consumed)
	require.False(t, containsCall(h.callLog(), "preHandle:M01"))
}

// fakeDurableSink is a minimal in-memory DurableSink double, used to
// verify the processor's put/remove wiring without depending on
// internal/durable's concrete badger-backed Store.
type fakeDurableSink struct {
	mu      sync.Mutex
	records map[string]bool // dialogRequestId\x00messageId -> present
}

func newFakeDurableSink() *fakeDurableSink {
	return &fakeDurableSink{records: make(map[string]bool)}
}

func (f *fakeDurableSink) Put(dialogRequestID, messageID, namespace, name string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[dialogRequestID+"\x00"+messageID] = true
	return nil
}

func (f *fakeDurableSink) Remove(dialogRequestID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, dialogRequestID+"\x00"+messageID)
	return nil
}

func (f *fakeDurableSink) has(dialogRequestID, messageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[dialogRequestID+"\x00"+messageID]
}

func (f *fakeDurableSink) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func TestProcessor_DurableSinkPutAndRemove(t *testing.T) {
	router := NewRouter()
	h := newRecordingHandler()
	require.NoError(t, router.AddDirectiveHandlers(Config{
		id("ns0", "n0"): {Handler: h, Policy: PolicyNonBlocking},
	}))

	p := NewProcessor(router)
	defer p.Shutdown()
	sink := newFakeDurableSink()
	p.SetDurableStore(sink)
	p.SetDialogRequestID("D0")

	require.True(t, p.OnDirective(Directive{MessageID: "M00", Namespace: "ns0", Name: "n0", DialogRequestID: "D0"}))

	require.Eventually(t, func() bool {
		return sink.has("D0", "M00")
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return h.sinkFor("M00") != nil
	}, time.Second, time.Millisecond)
	h.sinkFor("M00").SetCompleted()

	require.Eventually(t, func() bool {
		return sink.len() == 0
	}, time.Second, time.Millisecond)
}
