package directive

import "sync"

// resultSink is the completion-callback object supplied to a handler's
// PreHandleDirective call. It closes over the owning processor's handle
// (a small integer), not a pointer to the processor, so a handler that
// outlives its processor cannot dereference anything dangling: firing
// after teardown just misses the handle-table lookup and is dropped
// silently (spec.md §3, "Handler result sink"; §7, ErrorAfterTeardown).
type resultSink struct {
	handle    uint64
	directive Directive

	once sync.Once
}

func newResultSink(handle uint64, d Directive) *resultSink {
	return &resultSink{handle: handle, directive: d}
}

func (s *resultSink) SetCompleted() {
	s.once.Do(func() {
		if p, ok := globalHandles.lookup(s.handle); ok {
			p.onCompleted(s.directive)
		}
	})
}

func (s *resultSink) SetFailed(description string) {
	s.once.Do(func() {
		if p, ok := globalHandles.lookup(s.handle); ok {
			p.onFailed(s.directive, description)
		}
	})
}
