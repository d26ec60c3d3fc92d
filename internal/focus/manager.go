package focus

import (
	"context"
	"sort"
	"sync"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

// AuditRecorder is an optional sink for channel acquisitions/releases,
// satisfied structurally by internal/auditstore.Store so this core
// package never imports the domain-stack store. A nil AuditRecorder
// (the default) disables auditing entirely.
type AuditRecorder interface {
	RecordFocusAcquisition(ctx context.Context, channel, interfaceName string) error
	RecordFocusRelease(ctx context.Context, channel, interfaceName string) error
}

// channelState is the manager's internal record for one configured
// channel: its fixed identity plus whatever activity currently owns it.
type channelState struct {
	name     string
	priority uint32
	focus    FocusState
	activity *Activity
}

// Manager arbitrates ownership of named, prioritized channels. All state
// mutations are serialized on a single in-order executor; cross-thread
// reads of foreground state take the short mu lock instead of going
// through the executor.
type Manager struct {
	executor *executor

	mu       sync.Mutex
	channels map[string]*channelState
	order    []string // channel names, sorted by ascending priority number (highest priority first)

	interruptModel  InterruptModel
	activityTracker ActivityTracker
	audit           AuditRecorder

	obsMu     sync.Mutex
	observers map[FocusManagerObserver]struct{}
}

// SetAuditRecorder wires an optional audit sink. Pass nil to disable.
func (m *Manager) SetAuditRecorder(r AuditRecorder) {
	m.executor.Submit(func() {
		m.audit = r
	})
}

func (m *Manager) recordAuditAcquire(channel, interfaceName string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.RecordFocusAcquisition(context.Background(), channel, interfaceName); err != nil {
		logger.Warn("focus: audit record failed", logger.KeyChannel, channel, "error", err.Error())
	}
}

func (m *Manager) recordAuditRelease(channel, interfaceName string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.RecordFocusRelease(context.Background(), channel, interfaceName); err != nil {
		logger.Warn("focus: audit record failed", logger.KeyChannel, channel, "error", err.Error())
	}
}

// NewManager builds a Manager from physical and virtual channel
// configuration lists. Names and priorities must be globally unique;
// later duplicate entries are dropped with a warning log, matching the
// source behavior of ignoring the collision rather than failing
// construction.
func NewManager(physical, virtual []ChannelConfig, interruptModel InterruptModel, tracker ActivityTracker) *Manager {
	m := &Manager{
		executor:        newExecutor(),
		channels:        make(map[string]*channelState),
		interruptModel:  interruptModel,
		activityTracker: tracker,
		observers:       make(map[FocusManagerObserver]struct{}),
	}

	seenNames := make(map[string]bool)
	seenPriorities := make(map[uint32]bool)
	for _, cfg := range append(append([]ChannelConfig{}, physical...), virtual...) {
		if seenNames[cfg.Name] {
			logger.Warn("focus: duplicate channel name ignored", logger.KeyChannel, cfg.Name)
			continue
		}
		if seenPriorities[cfg.Priority] {
			logger.Warn("focus: duplicate channel priority ignored", logger.KeyChannel, cfg.Name)
			continue
		}
		seenNames[cfg.Name] = true
		seenPriorities[cfg.Priority] = true
		m.channels[cfg.Name] = &channelState{name: cfg.Name, priority: cfg.Priority, focus: FocusNone}
	}

	m.order = make([]string, 0, len(m.channels))
	for name := range m.channels {
		m.order = append(m.order, name)
	}
	sort.Slice(m.order, func(i, j int) bool {
		return m.channels[m.order[i]].priority < m.channels[m.order[j]].priority
	})

	return m
}

// Close drains and stops the executor. No further channel operations are
// accepted afterward.
func (m *Manager) Close() {
	m.executor.Close()
}

// AddObserver registers a manager-wide focus observer.
func (m *Manager) AddObserver(o FocusManagerObserver) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers[o] = struct{}{}
}

// RemoveObserver unregisters a manager-wide focus observer.
func (m *Manager) RemoveObserver(o FocusManagerObserver) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	delete(m.observers, o)
}

func (m *Manager) notifyObservers(channelName string, focus FocusState) {
	m.obsMu.Lock()
	snapshot := make([]FocusManagerObserver, 0, len(m.observers))
	for o := range m.observers {
		snapshot = append(snapshot, o)
	}
	m.obsMu.Unlock()

	for _, o := range snapshot {
		o.OnFocusChanged(channelName, focus)
	}
}

// AcquireChannel binds interfaceName to channelName through observer,
// running the acquire algorithm on the executor.
func (m *Manager) AcquireChannel(channelName string, observer ChannelObserver, interfaceName string) {
	m.AcquireChannelWithActivity(channelName, Activity{InterfaceName: interfaceName, Observer: observer})
}

// AcquireChannelWithActivity is the full-Activity variant of AcquireChannel.
func (m *Manager) AcquireChannelWithActivity(channelName string, activity Activity) {
	m.executor.Submit(func() {
		m.acquireLocked(channelName, activity)
	})
}

func (m *Manager) acquireLocked(channelName string, activity Activity) {
	m.mu.Lock()
	ch, ok := m.channels[channelName]
	if !ok {
		m.mu.Unlock()
		logger.Warn("focus: acquire on unknown channel", logger.KeyChannel, channelName)
		return
	}

	priorForeground := m.foregroundChannelLocked()

	ch.activity = &activity
	ch.focus = FocusBackground // provisional; corrected below

	var toNotify []struct {
		ch      *channelState
		focus   FocusState
		mixing  MixingBehavior
	}

	switch {
	case priorForeground == nil:
		ch.focus = FocusForeground
		toNotify = append(toNotify, struct {
			ch     *channelState
			focus  FocusState
			mixing MixingBehavior
		}{ch, FocusForeground, MixingPrimary})

	case priorForeground.name == channelName:
		// Force-update: same channel remains foreground, but the
		// interface/observer may have changed, so notify regardless.
		ch.focus = FocusForeground
		toNotify = append(toNotify, struct {
			ch     *channelState
			focus  FocusState
			mixing MixingBehavior
		}{ch, FocusForeground, MixingPrimary})

	case m.higherPriority(channelName, priorForeground.name):
		ch.focus = FocusForeground

		for _, name := range m.order {
			other := m.channels[name]
			if other == nil || other.name == channelName || other.activity == nil || other.focus == FocusBackground {
				continue
			}
			mixing := m.mixingFor(other, ch)
			other.focus = FocusBackground
			toNotify = append(toNotify, struct {
				ch     *channelState
				focus  FocusState
				mixing MixingBehavior
			}{other, FocusBackground, mixing})
		}

		toNotify = append(toNotify, struct {
			ch     *channelState
			focus  FocusState
			mixing MixingBehavior
		}{ch, FocusForeground, MixingPrimary})

	default:
		ch.focus = FocusBackground
		mixing := m.mixingFor(ch, priorForeground)
		toNotify = append(toNotify, struct {
			ch     *channelState
			focus  FocusState
			mixing MixingBehavior
		}{ch, FocusBackground, mixing})
	}

	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	for _, n := range toNotify {
		if n.ch.activity != nil && n.ch.activity.Observer != nil {
			n.ch.activity.Observer.OnFocusChanged(n.ch.name, n.focus, n.mixing)
		}
		m.notifyObservers(n.ch.name, n.focus)
	}
	m.recordAuditAcquire(channelName, activity.InterfaceName)
	m.emitActivityUpdate(snapshot)
}

// mixingFor consults the interrupt model (if configured) for the mixing
// behavior `lower` should adopt relative to foreground channel `higher`.
// Absent a configured model, backgrounded channels default to MUST_PAUSE.
func (m *Manager) mixingFor(lower, higher *channelState) MixingBehavior {
	if m.interruptModel == nil {
		return MixingMustPause
	}
	var lowerCT, higherCT ContentType
	if lower.activity != nil {
		lowerCT = lower.activity.ContentType
	}
	if higher.activity != nil {
		higherCT = higher.activity.ContentType
	}
	return m.interruptModel.GetMixingBehavior(lower.name, lowerCT, higher.name, higherCT)
}

// higherPriority reports whether channel a has strictly higher priority
// (lower priority number) than channel b.
func (m *Manager) higherPriority(a, b string) bool {
	return m.channels[a].priority < m.channels[b].priority
}

// foregroundChannelLocked must be called with mu held.
func (m *Manager) foregroundChannelLocked() *channelState {
	for _, name := range m.order {
		ch := m.channels[name]
		if ch.focus == FocusForeground {
			return ch
		}
	}
	return nil
}

// ReleaseChannel releases observer's hold on channelName and reports
// whether the release was applied.
func (m *Manager) ReleaseChannel(channelName string, observer ChannelObserver) bool {
	return m.executor.SubmitWait(func() bool {
		return m.releaseLocked(channelName, observer)
	})
}

func (m *Manager) releaseLocked(channelName string, observer ChannelObserver) bool {
	m.mu.Lock()
	ch, ok := m.channels[channelName]
	if !ok || ch.activity == nil {
		m.mu.Unlock()
		return false
	}
	wasForeground := ch.focus == FocusForeground
	releasedActivity := *ch.activity
	ch.activity = nil
	ch.focus = FocusNone

	var toNotify []struct {
		ch     *channelState
		focus  FocusState
		mixing MixingBehavior
	}
	toNotify = append(toNotify, struct {
		ch     *channelState
		focus  FocusState
		mixing MixingBehavior
	}{ch, FocusNone, MixingMustStop})

	if wasForeground {
		if next := m.highestPriorityActiveLocked(); next != nil {
			next.focus = FocusForeground

			for _, name := range m.order {
				other := m.channels[name]
				if other == nil || other.name == next.name || other.activity == nil {
					continue
				}
				mixing := m.mixingFor(other, next)
				other.focus = FocusBackground
				toNotify = append(toNotify, struct {
					ch     *channelState
					focus  FocusState
					mixing MixingBehavior
				}{other, FocusBackground, mixing})
			}

			toNotify = append(toNotify, struct {
				ch     *channelState
				focus  FocusState
				mixing MixingBehavior
			}{next, FocusForeground, MixingPrimary})
		}
	}

	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	releasedActivity.Observer.OnFocusChanged(channelName, FocusNone, MixingMustStop)
	m.notifyObservers(channelName, FocusNone)
	for _, n := range toNotify[1:] {
		if n.ch.activity != nil && n.ch.activity.Observer != nil {
			n.ch.activity.Observer.OnFocusChanged(n.ch.name, n.focus, n.mixing)
		}
		m.notifyObservers(n.ch.name, n.focus)
	}
	m.recordAuditRelease(channelName, releasedActivity.InterfaceName)
	m.emitActivityUpdate(snapshot)
	return true
}

// highestPriorityActiveLocked must be called with mu held.
func (m *Manager) highestPriorityActiveLocked() *channelState {
	for _, name := range m.order {
		ch := m.channels[name]
		if ch.activity != nil {
			return ch
		}
	}
	return nil
}

// StopForegroundActivity submits a front-of-queue task that releases
// whichever interface owns the foreground channel, but only if that
// interface still owns it by the time the task actually runs.
func (m *Manager) StopForegroundActivity() {
	m.mu.Lock()
	fg := m.foregroundChannelLocked()
	var capturedChannel, capturedInterface string
	if fg != nil && fg.activity != nil {
		capturedChannel = fg.name
		capturedInterface = fg.activity.InterfaceName
	}
	m.mu.Unlock()

	if capturedChannel == "" {
		return
	}

	m.executor.SubmitFront(func() {
		m.mu.Lock()
		ch, ok := m.channels[capturedChannel]
		if !ok || ch.activity == nil || ch.focus != FocusForeground || ch.activity.InterfaceName != capturedInterface {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		m.releaseLocked(capturedChannel, ch.activity.Observer)
	})
}

// StopAllActivities captures the current set of (channel, interface)
// ownerships and submits a front-of-queue task releasing each.
func (m *Manager) StopAllActivities() {
	m.mu.Lock()
	type ownership struct {
		channel  string
		observer ChannelObserver
	}
	var owned []ownership
	for _, name := range m.order {
		ch := m.channels[name]
		if ch.activity != nil {
			owned = append(owned, ownership{channel: ch.name, observer: ch.activity.Observer})
		}
	}
	m.mu.Unlock()

	m.executor.SubmitFront(func() {
		for _, o := range owned {
			m.releaseLocked(o.channel, o.observer)
		}
	})
}

// ModifyContentType updates the content type of the activity owning
// channelName (if interfaceName still matches) and recomputes mixing
// behavior for any backgrounded channels affected by the change.
func (m *Manager) ModifyContentType(channelName, interfaceName string, contentType ContentType) {
	m.executor.Submit(func() {
		m.mu.Lock()
		ch, ok := m.channels[channelName]
		if !ok || ch.activity == nil || ch.activity.InterfaceName != interfaceName {
			m.mu.Unlock()
			return
		}
		ch.activity.ContentType = contentType

		fg := m.foregroundChannelLocked()
		var toNotify []struct {
			ch     *channelState
			mixing MixingBehavior
		}
		if fg != nil && fg.name == channelName {
			for _, name := range m.order {
				other := m.channels[name]
				if other == nil || other.name == channelName || other.activity == nil || other.focus != FocusBackground {
					continue
				}
				mixing := m.mixingFor(other, fg)
				toNotify = append(toNotify, struct {
					ch     *channelState
					mixing MixingBehavior
				}{other, mixing})
			}
		}
		snapshot := m.snapshotLocked()
		m.mu.Unlock()

		for _, n := range toNotify {
			if n.ch.activity != nil && n.ch.activity.Observer != nil {
				n.ch.activity.Observer.OnFocusChanged(n.ch.name, FocusBackground, n.mixing)
			}
		}
		m.emitActivityUpdate(snapshot)
	})
}

// Foreground returns the name of the current foreground channel and true,
// or ("", false) if none. This is a cross-thread snapshot read guarded by
// the short internal mutex, not routed through the executor.
func (m *Manager) Foreground() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch := m.foregroundChannelLocked(); ch != nil {
		return ch.name, true
	}
	return "", false
}

// Snapshot returns a point-in-time view of every configured channel, for
// the diagnostics API's GET /channels endpoint.
func (m *Manager) Snapshot() []ChannelState {
	var out []ChannelState
	m.executor.SubmitWait(func() bool {
		m.mu.Lock()
		out = m.snapshotLocked()
		m.mu.Unlock()
		return true
	})
	return out
}

// snapshotLocked must be called with mu held.
func (m *Manager) snapshotLocked() []ChannelState {
	snapshot := make([]ChannelState, 0, len(m.order))
	for _, name := range m.order {
		ch := m.channels[name]
		var iface string
		var ct ContentType
		if ch.activity != nil {
			iface = ch.activity.InterfaceName
			ct = ch.activity.ContentType
		}
		snapshot = append(snapshot, ChannelState{
			Name:          ch.name,
			Priority:      ch.priority,
			Focus:         ch.focus,
			InterfaceName: iface,
			ContentType:   ct,
		})
	}
	return snapshot
}

func (m *Manager) emitActivityUpdate(snapshot []ChannelState) {
	if m.activityTracker == nil {
		return
	}
	m.activityTracker.NotifyOfActivityUpdates(snapshot)
}
