package directive

import (
	"errors"
	"sync"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Error kinds surfaced by the router. Lookup failures are not represented
// as errors at all (spec.md §7): they are boolean false returns.
var (
	ErrEmptyHandler          = errors.New("directive: registration has a nil handler")
	ErrDuplicateRegistration = errors.New("directive: identity already registered")
	ErrRegistrationMismatch  = errors.New("directive: registration does not match existing entry")
)

// handlerState is the single source of truth for whether a handler is
// still "live": regCount counts active (namespace,name) registrations,
// inFlight counts router calls currently executing inside the handler.
// OnDeregistered fires exactly once, the moment both reach zero — which
// is either immediately on the batch removal that drops regCount to
// zero, or when the last in-flight call returns if one was still running
// (spec.md §4.1 "scoped acquisition", invariant I5).
type handlerState struct {
	handler        Handler
	regCount       int
	inFlight       int
	pendingDeregister bool
}

type entry struct {
	reg   Registration
	state *handlerState
}

// Router is a thread-safe registry mapping directive identity to handler.
// It reference-counts handler registrations so a handler is notified of
// deregistration exactly once, after its last mapping is removed, and
// never while a router call into that handler is in progress.
type Router struct {
	mu      sync.Mutex
	entries map[Identity]*entry
	states  map[Handler]*handlerState
}

// NewRouter creates an empty directive router.
func NewRouter() *Router {
	return &Router{
		entries: make(map[Identity]*entry),
		states:  make(map[Handler]*handlerState),
	}
}

// AddDirectiveHandlers atomically installs a batch of registrations.
// If any entry has a nil handler or collides with an existing
// registration, the whole batch is rejected with no side effects.
func (r *Router) AddDirectiveHandlers(config Config) error {
	if len(config) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, reg := range config {
		if reg.Handler == nil {
			return ErrEmptyHandler
		}
		if _, exists := r.entries[id]; exists {
			return ErrDuplicateRegistration
		}
	}

	for id, reg := range config {
		st, ok := r.states[reg.Handler]
		if !ok {
			st = &handlerState{handler: reg.Handler}
			r.states[reg.Handler] = st
		}
		st.regCount++
		r.entries[id] = &entry{reg: reg, state: st}
	}

	return nil
}

// RemoveDirectiveHandlers atomically removes a batch of registrations.
// If any entry is missing, or its (handler, policy) does not match the
// registered one, the whole batch is rejected. Handlers whose
// registration count reaches zero are notified via OnDeregistered
// exactly once, outside the registry lock, deferred until any in-flight
// router call into that handler returns.
func (r *Router) RemoveDirectiveHandlers(config Config) error {
	if len(config) == 0 {
		return nil
	}

	r.mu.Lock()

	for id, reg := range config {
		existing, ok := r.entries[id]
		if !ok || existing.reg.Handler != reg.Handler || existing.reg.Policy != reg.Policy {
			r.mu.Unlock()
			return ErrRegistrationMismatch
		}
	}

	var toDeregister []Handler
	for id, reg := range config {
		existing := r.entries[id]
		delete(r.entries, id)

		st := existing.state
		st.regCount--
		if st.regCount == 0 {
			if st.inFlight == 0 {
				delete(r.states, reg.Handler)
				toDeregister = append(toDeregister, reg.Handler)
			} else {
				st.pendingDeregister = true
			}
		}
	}

	r.mu.Unlock()

	for _, h := range toDeregister {
		h.OnDeregistered()
	}

	return nil
}

// call implements the scoped-acquisition idiom of spec.md §4.1: while
// invoking a handler method it holds a claim on the handler (via
// inFlight) so the handler cannot be deregistered mid-call, but releases
// the registry lock so the handler may re-enter other router operations.
func (r *Router) call(id Identity, fn func(Handler) error) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	st := e.state
	st.inFlight++
	handler := e.reg.Handler
	r.mu.Unlock()

	err := fn(handler)

	var deregister bool
	r.mu.Lock()
	st.inFlight--
	if st.inFlight == 0 && st.pendingDeregister {
		deregister = true
		st.pendingDeregister = false
		delete(r.states, handler)
	}
	r.mu.Unlock()

	if deregister {
		handler.OnDeregistered()
	}

	if err != nil {
		logger.Warn("directive handler call returned error", "identity", id.String(), "error", err)
	}
	return true
}

// HandleDirectiveImmediately routes a directive to its handler's
// HandleDirectiveImmediately method. Returns false if no handler is
// registered.
func (r *Router) HandleDirectiveImmediately(d Directive) bool {
	return r.call(d.Identity(), func(h Handler) error {
		return h.HandleDirectiveImmediately(d)
	})
}

// PreHandleDirective routes a directive to its handler's
// PreHandleDirective method, supplying the given result sink. Returns
// false if no handler is registered or the handler rejects the
// directive.
func (r *Router) PreHandleDirective(d Directive, sink ResultSink) bool {
	var accepted = true
	ok := r.call(d.Identity(), func(h Handler) error {
		err := h.PreHandleDirective(d, sink)
		if err != nil {
			accepted = false
		}
		return err
	})
	return ok && accepted
}

// HandleDirective routes to the handler's HandleDirective method and
// reports back the registered blocking policy. If no handler is
// registered, or the handler returns an error, ok is false and policy is
// PolicyNone.
func (r *Router) HandleDirective(messageID string, id Identity) (ok bool, policy BlockingPolicy) {
	r.mu.Lock()
	e, found := r.entries[id]
	if !found {
		r.mu.Unlock()
		return false, PolicyNone
	}
	policy = e.reg.Policy
	r.mu.Unlock()

	accepted := true
	handled := r.call(id, func(h Handler) error {
		err := h.HandleDirective(messageID)
		if err != nil {
			accepted = false
		}
		return err
	})

	if !handled || !accepted {
		return false, PolicyNone
	}
	return true, policy
}

// CancelDirective routes to the handler's CancelDirective method. Returns
// false if no handler is registered.
func (r *Router) CancelDirective(messageID string, id Identity) bool {
	return r.call(id, func(h Handler) error {
		return h.CancelDirective(messageID)
	})
}

// PolicyFor returns the registered blocking policy for an identity, for
// callers that need it without invoking the handler (e.g. capability
// introspection).
func (r *Router) PolicyFor(id Identity) (BlockingPolicy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return PolicyNone, false
	}
	return e.reg.Policy, true
}
