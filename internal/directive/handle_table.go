package directive

import "sync"

// handleTable is the process-wide table mapping a processor's stable
// numeric handle to the processor itself (spec.md §9, "Cyclic
// handler↔processor references"). Result sinks close over a handle, not
// a pointer, so a handler holding a sink can outlive the processor
// without a dangling reference: a lookup after the processor has shut
// down simply misses.
type handleTable struct {
	mu        sync.Mutex
	nextID    uint64
	processors map[uint64]*Processor
}

var globalHandles = &handleTable{processors: make(map[uint64]*Processor)}

func (t *handleTable) register(p *Processor) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.processors[id] = p
	return id
}

func (t *handleTable) unregister(handle uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.processors, handle)
}

func (t *handleTable) lookup(handle uint64) (*Processor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.processors[handle]
	return p, ok
}
