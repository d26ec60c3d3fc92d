package dialogux

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

// AuditRecorder is an optional sink for UX state transitions, satisfied
// structurally by internal/auditstore.Store so this core package never
// imports the domain-stack store. A nil AuditRecorder (the default)
// disables auditing entirely.
type AuditRecorder interface {
	RecordUXTransition(ctx context.Context, from, to string) error
}

// Aggregator derives one UXState from recognizer, synthesizer,
// interaction-model, and connection-status inputs. All logic runs on a
// single cooperative executor goroutine so callbacks never race each
// other; the only cross-thread access is a best-effort atomic mirror of
// the current state for State().
//
// Grounded on the teacher's flusher single-goroutine-with-timers shape,
// generalized from one periodic ticker into several named, restartable
// timers feeding one command channel.
type Aggregator struct {
	cmds   chan func()
	closed chan struct{}
	wg     sync.WaitGroup

	timers  Timers
	metrics MetricsRecorder
	audit   AuditRecorder

	state            UXState
	stateMirror      atomic.Int32
	recognizerState  RecognizerState
	synthesizerState SynthesizerState
	connectedEngines map[string]bool

	activeTimer     *time.Timer
	activeTimerKind string
	timerGen        uint64

	observers map[DialogUXStateObserver]struct{}
}

// New constructs an Aggregator with the given timer configuration
// (zero fields fall back to documented defaults) and an optional
// best-effort metrics sink.
func New(timers Timers, metrics MetricsRecorder) *Aggregator {
	a := &Aggregator{
		cmds:             make(chan func(), 64),
		closed:           make(chan struct{}),
		timers:           timers.withDefaults(),
		metrics:          metrics,
		state:            UXIdle,
		recognizerState:  RecognizerIdle,
		synthesizerState: SynthesizerFinished,
		connectedEngines: make(map[string]bool),
		observers:        make(map[DialogUXStateObserver]struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// SetAuditRecorder wires an optional audit sink. Pass nil to disable.
func (a *Aggregator) SetAuditRecorder(r AuditRecorder) {
	a.post(func() {
		a.audit = r
	})
}

func (a *Aggregator) run() {
	defer a.wg.Done()
	for {
		select {
		case fn := <-a.cmds:
			fn()
		case <-a.closed:
			// Drain any already-queued commands before exiting so a
			// Close racing with an in-flight post does not lose it.
			for {
				select {
				case fn := <-a.cmds:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Close stops the executor. No further posted commands run afterward.
func (a *Aggregator) Close() {
	close(a.closed)
	a.wg.Wait()
}

func (a *Aggregator) post(fn func()) {
	select {
	case a.cmds <- fn:
	case <-a.closed:
	}
}

// State returns the most recently assigned UX state. This is a
// best-effort atomic read, not routed through the executor, intended for
// diagnostics snapshots.
func (a *Aggregator) State() UXState {
	return UXState(a.stateMirror.Load())
}

// AddObserver registers o and immediately delivers the current state to
// it, both on the executor.
func (a *Aggregator) AddObserver(o DialogUXStateObserver) {
	a.post(func() {
		a.observers[o] = struct{}{}
		o.OnDialogUXStateChanged(a.state)
	})
}

// RemoveObserver unregisters o. Per the documented precondition, this
// must not be called from inside an observer callback: doing so would
// post a command that can never run until the callback (already running
// on the executor) returns, deadlocking the caller if it waits — callers
// that need this must fire-and-forget.
func (a *Aggregator) RemoveObserver(o DialogUXStateObserver) {
	a.post(func() {
		delete(a.observers, o)
	})
}

// OnceObserver returns a DialogUXStateObserver that invokes fn exactly
// once, the first time the aggregator reaches target, then removes
// itself. Supplemented from the original SDK's single-shot UX wait used
// by CLI tooling such as "wait until idle".
func (a *Aggregator) OnceObserver(target UXState, fn func()) DialogUXStateObserver {
	var fired atomic.Bool
	var obs DialogUXStateObserver
	obs = ObserverFunc(func(s UXState) {
		if s != target {
			return
		}
		if !fired.CompareAndSwap(false, true) {
			return
		}
		go a.RemoveObserver(obs)
		fn()
	})
	return obs
}

func (a *Aggregator) notifyLocked() {
	snapshot := make([]DialogUXStateObserver, 0, len(a.observers))
	for o := range a.observers {
		snapshot = append(snapshot, o)
	}
	for _, o := range snapshot {
		o.OnDialogUXStateChanged(a.state)
	}
}

// setState must only be called on the executor. It cancels any
// outstanding timer, assigns the new state, mirrors it for State(), and
// notifies observers (a copy of the set, taken before iteration).
func (a *Aggregator) setState(s UXState) {
	a.cancelTimer()
	previous := a.state
	a.state = s
	a.stateMirror.Store(int32(s))
	a.notifyLocked()
	a.recordAudit(previous, s)
}

// recordAudit best-effort persists a transition outside the executor's
// critical path; failures are logged, never propagated, since auditing
// must never affect UX-state control flow.
func (a *Aggregator) recordAudit(from, to UXState) {
	if a.audit == nil {
		return
	}
	if err := a.audit.RecordUXTransition(context.Background(), from.String(), to.String()); err != nil {
		logger.Warn("dialogux: audit record failed", "error", err.Error())
	}
}

func (a *Aggregator) cancelTimer() {
	if a.activeTimer != nil {
		a.activeTimer.Stop()
		a.activeTimer = nil
		a.activeTimerKind = ""
	}
	a.timerGen++
}

// startTimer arms a one-shot timer that, on expiry, posts fn back onto
// the executor tagged with the generation active at arm time so a timer
// cancelled-and-replaced between arming and firing is a no-op.
func (a *Aggregator) startTimer(kind string, d time.Duration, fn func()) {
	a.cancelTimer()
	a.activeTimerKind = kind
	gen := a.timerGen
	a.activeTimer = time.AfterFunc(d, func() {
		a.post(func() {
			if a.timerGen != gen {
				return // superseded or cancelled before firing
			}
			fn()
		})
	})
}

func (a *Aggregator) recordMetric(name string) {
	if a.metrics == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("dialogux: metrics recorder panicked", "panic", r)
			}
		}()
		a.metrics.RecordEvent(name, map[string]string{"ux_state": a.state.String()})
	}()
}

// OnRecognizerState reports a recognizer transition.
func (a *Aggregator) OnRecognizerState(s RecognizerState) {
	a.post(func() {
		a.recognizerState = s
		switch s {
		case RecognizerRecognizing:
			a.setState(UXListening)
		case RecognizerExpectingSpeech:
			a.setState(UXExpecting)
		case RecognizerBusy:
			if a.state == UXListening {
				a.startTimer("listening-to-idle", time.Duration(a.timers.ListeningToIdleMs)*time.Millisecond, func() {
					a.recordMetric("LISTENING_TIMEOUT_EXPIRES")
					a.setState(UXIdle)
				})
			}
		case RecognizerIdle:
			// No direct transition; idle recognizer alone does not
			// drive the UX state.
		}
	})
}

// OnSynthesizerState reports a synthesizer transition.
func (a *Aggregator) OnSynthesizerState(s SynthesizerState) {
	a.post(func() {
		a.synthesizerState = s
		switch s {
		case SynthesizerPlaying:
			a.setState(UXSpeaking)
		case SynthesizerFinished, SynthesizerInterrupted:
			// FINISHED triggers no notifications: it only arms the
			// short-thinking timer, leaving the externally-visible
			// state unchanged until the timer resolves it to IDLE.
			a.startTimer("short-thinking", time.Duration(a.timers.ShortThinkingToIdleMs)*time.Millisecond, func() {
				if a.recognizerState == RecognizerIdle &&
					(a.synthesizerState == SynthesizerFinished || a.synthesizerState == SynthesizerInterrupted) {
					a.setState(UXIdle)
				}
			})
		case SynthesizerGainingFocus, SynthesizerLosingFocus:
			// Focus transitions alone do not drive the UX state; they
			// gate the RPC-while-THINKING rule below.
		}
	})
}

// OnRequestProcessingStarted reports the interaction model's RPS signal.
func (a *Aggregator) OnRequestProcessingStarted() {
	a.post(func() {
		if a.state != UXListening && a.state != UXIdle {
			logger.Warn("dialogux: RPS received outside LISTENING/IDLE", logger.KeyUXState, a.state.String())
		}
		if a.state == UXListening || a.state == UXIdle {
			a.setState(UXThinking)
			a.startTimer("long-thinking", time.Duration(a.timers.ThinkingToIdleMs)*time.Millisecond, func() {
				a.recordMetric("THINKING_TIMEOUT_EXPIRES")
				a.setState(UXIdle)
			})
		}
	})
}

// OnRequestProcessingCompleted reports the interaction model's RPC signal.
func (a *Aggregator) OnRequestProcessingCompleted() {
	a.post(func() {
		switch a.state {
		case UXListening:
			a.setState(UXIdle)
		case UXThinking:
			if a.synthesizerState != SynthesizerGainingFocus {
				a.startTimer("short-thinking", time.Duration(a.timers.ShortThinkingToIdleMs)*time.Millisecond, func() {
					a.setState(UXIdle)
				})
			}
		}
	})
}

// OnInboundMessage reports an opaque inbound message notification, used
// only to restart the short-thinking race so a directive closely
// following RPC does not get misread as "speech about to start".
func (a *Aggregator) OnInboundMessage() {
	a.post(func() {
		if a.activeTimerKind == "short-thinking" {
			a.startTimer("short-thinking", time.Duration(a.timers.ShortThinkingToIdleMs)*time.Millisecond, func() {
				a.setState(UXIdle)
			})
		}
	})
}

// UpdateConnectionStatus reports per-engine connection status. When all
// known engines are disconnected, the aggregator is forced to IDLE.
// Supplemented from the original SDK, which tracks connection status per
// engine (AVS, alerts) rather than one aggregate boolean.
func (a *Aggregator) UpdateConnectionStatus(engine string, connected bool) {
	a.post(func() {
		a.connectedEngines[engine] = connected
		if len(a.connectedEngines) == 0 {
			return
		}
		for _, c := range a.connectedEngines {
			if c {
				return
			}
		}
		a.setState(UXIdle)
	})
}
