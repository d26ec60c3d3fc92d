// Package dialogux aggregates recognizer, synthesizer, interaction-model,
// and connection-status signals into one user-visible dialog UX state,
// driven by a small set of restartable timers on a single cooperative
// executor.
package dialogux

// RecognizerState is a transition reported by the speech recognizer.
type RecognizerState int

const (
	RecognizerIdle RecognizerState = iota
	RecognizerRecognizing
	RecognizerExpectingSpeech
	RecognizerBusy
)

// SynthesizerState is a transition reported by the speech synthesizer.
type SynthesizerState int

const (
	SynthesizerPlaying SynthesizerState = iota
	SynthesizerFinished
	SynthesizerInterrupted
	SynthesizerGainingFocus
	SynthesizerLosingFocus
)

// UXState is the single, user-visible dialog state the aggregator
// derives from its inputs.
type UXState int

const (
	UXIdle UXState = iota
	UXListening
	UXExpecting
	UXThinking
	UXSpeaking
	// UXFinished exists for parity with the observer interface's
	// enumeration but is never assigned: a synthesizer FINISHED/
	// INTERRUPTED transition triggers no notification at all, only
	// arming the short-thinking timer that later resolves to IDLE.
	UXFinished
)

func (s UXState) String() string {
	switch s {
	case UXIdle:
		return "IDLE"
	case UXListening:
		return "LISTENING"
	case UXExpecting:
		return "EXPECTING"
	case UXThinking:
		return "THINKING"
	case UXSpeaking:
		return "SPEAKING"
	case UXFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// DialogUXStateObserver is notified synchronously on every UX state
// change, including once immediately upon registration with the current
// state.
type DialogUXStateObserver interface {
	OnDialogUXStateChanged(newState UXState)
}

// ObserverFunc adapts a plain function to a DialogUXStateObserver.
type ObserverFunc func(UXState)

func (f ObserverFunc) OnDialogUXStateChanged(newState UXState) { f(newState) }

// MetricsRecorder receives best-effort side-channel metric events;
// failure to record is never propagated and never affects control flow.
type MetricsRecorder interface {
	RecordEvent(name string, attrs map[string]string)
}

// Timers configures the three timeouts the aggregator drives state
// transitions with. Zero values fall back to the documented defaults.
type Timers struct {
	// ThinkingToIdleMs bounds time spent in THINKING with no speech start.
	ThinkingToIdleMs int
	// ShortThinkingToIdleMs restarts the IDLE race after a message arrives,
	// distinguishing "speech about to start" from an unrelated directive.
	ShortThinkingToIdleMs int
	// ListeningToIdleMs bounds time spent in LISTENING waiting for RPS.
	ListeningToIdleMs int
}

const (
	defaultThinkingToIdleMs      = 8000
	defaultShortThinkingToIdleMs = 200
	defaultListeningToIdleMs     = 8000
)

func (t Timers) withDefaults() Timers {
	if t.ThinkingToIdleMs <= 0 {
		t.ThinkingToIdleMs = defaultThinkingToIdleMs
	}
	if t.ShortThinkingToIdleMs <= 0 {
		t.ShortThinkingToIdleMs = defaultShortThinkingToIdleMs
	}
	if t.ListeningToIdleMs <= 0 {
		t.ListeningToIdleMs = defaultListeningToIdleMs
	}
	return t
}
