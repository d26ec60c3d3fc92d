// Package focus implements a priority-ordered channel arbiter for audio and
// visual resources. Interfaces acquire named channels; the manager decides
// which channel is foreground and what mixing behavior backgrounded
// channels should adopt, then notifies observers on a single in-order
// executor.
package focus

// FocusState is the transition a channel observer is notified of.
type FocusState int

const (
	// FocusNone means the channel has no owning activity.
	FocusNone FocusState = iota
	// FocusForeground means the channel is the sole foreground channel.
	FocusForeground
	// FocusBackground means the channel is active but not foreground.
	FocusBackground
)

func (f FocusState) String() string {
	switch f {
	case FocusNone:
		return "NONE"
	case FocusForeground:
		return "FOREGROUND"
	case FocusBackground:
		return "BACKGROUND"
	default:
		return "UNKNOWN"
	}
}

// MixingBehavior is the secondary hint delivered alongside a BACKGROUND (or
// NONE) transition telling the observer whether to stop, pause, duck, or mix
// its output with the new foreground activity.
type MixingBehavior int

const (
	// MixingNone applies when there is no backgrounded activity to mix.
	MixingNone MixingBehavior = iota
	// MixingPrimary is assigned to the foreground activity itself.
	MixingPrimary
	// MixingMustStop means the channel lost its last activity outright.
	MixingMustStop
	// MixingMustPause means the backgrounded activity must pause output.
	MixingMustPause
	// MixingDuck means the backgrounded activity may continue at reduced volume.
	MixingDuck
	// MixingMix means the backgrounded activity may continue unattenuated.
	MixingMix
)

func (m MixingBehavior) String() string {
	switch m {
	case MixingNone:
		return "NONE"
	case MixingPrimary:
		return "PRIMARY"
	case MixingMustStop:
		return "MUST_STOP"
	case MixingMustPause:
		return "MUST_PAUSE"
	case MixingDuck:
		return "DUCK"
	case MixingMix:
		return "MIX"
	default:
		return "UNKNOWN"
	}
}

// ContentType is an opaque, caller-defined classification of what an
// activity is producing (speech, music, earcon, ...). The focus manager
// never interprets it; it is only forwarded to the interrupt model.
type ContentType string

// Activity is the (interface, observer, content type) currently bound to a
// channel.
type Activity struct {
	InterfaceName string
	Observer      ChannelObserver
	ContentType   ContentType
}

// ChannelConfig declares one channel's name and fixed priority. Lower
// numbers are higher priority (win arbitration), matching the default
// channel ordering in pkg/config.
type ChannelConfig struct {
	Name     string
	Priority uint32
}

// ChannelObserver is notified of focus transitions and the associated
// mixing behavior for the channel it is bound to.
type ChannelObserver interface {
	OnFocusChanged(channelName string, newFocus FocusState, mixing MixingBehavior)
}

// FocusManagerObserver is notified of focus transitions for any channel,
// without a mixing behavior.
type FocusManagerObserver interface {
	OnFocusChanged(channelName string, newFocus FocusState)
}

// ActivityTracker receives a full snapshot of channel states after every
// mutation. Supplemented from original_source/'s activity-tracker, which
// rebuilds its entire view on every update rather than applying deltas.
type ActivityTracker interface {
	NotifyOfActivityUpdates(snapshot []ChannelState)
}

// ChannelState is one channel's view within an ActivityTracker snapshot.
type ChannelState struct {
	Name          string
	Priority      uint32
	Focus         FocusState
	InterfaceName string
	ContentType   ContentType
}

// InterruptModel is consulted to decide the mixing behavior a backgrounded
// channel should adopt relative to whatever channel is now foreground. The
// focus manager never computes this itself; it only forwards the four
// inputs.
type InterruptModel interface {
	GetMixingBehavior(lowerChannel string, lowerContentType ContentType, higherChannel string, higherContentType ContentType) MixingBehavior
}
