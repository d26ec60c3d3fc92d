package directive

import (
	"sync"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

// Stats is a non-authoritative diagnostic snapshot of a processor's
// queues, exposed for the diagnostics API (SPEC_FULL.md §C.3). It is
// read under the same mutex that guards the live state, but callers must
// not treat it as anything more than a point-in-time sample.
type Stats struct {
	DialogRequestID      string
	HandlingQueueDepth   int
	CancellingQueueDepth int
	PreHandling          bool
	InFlight             bool
}

// Processor is the per-dialog directive queueing engine described in
// spec.md §4.2. It owns one background worker goroutine and two FIFO
// queues, and enforces per-dialog correlation, at-most-one-blocking-
// in-flight ordering, and bulk cancellation on dialog supersession or
// directive failure.
type Processor struct {
	router *Router
	handle uint64

	// outerMu serialises onDirective so at most one pre-handle is in
	// flight at a time (spec.md §4.2).
	outerMu sync.Mutex

	mu   sync.Mutex
	cond *sync.Cond

	currentDialogRequestID string
	handlingQueue          []Directive
	cancellingQueue        []Directive
	preHandling            *Directive
	isHandlingDirective    bool
	isShuttingDown         bool
	isEnabled              bool

	durable DurableSink

	wg sync.WaitGroup
}

// NewProcessor creates a processor bound to the given router and starts
// its background worker.
func NewProcessor(router *Router) *Processor {
	p := &Processor{router: router, isEnabled: true}
	p.cond = sync.NewCond(&p.mu)
	p.handle = globalHandles.register(p)

	p.wg.Add(1)
	go p.worker()

	return p
}

// SetDurableStore wires an optional write-ahead log. Pass nil (the
// default) to disable durability entirely.
func (p *Processor) SetDurableStore(store DurableSink) {
	p.mu.Lock()
	p.durable = store
	p.mu.Unlock()
}

// OnDirective admits a directive into the processor. It returns true if
// the directive was "consumed" — either dropped because it does not
// belong to the current dialog (or the processor is disabled/shutting
// down), or accepted by the router's pre-handle step; it returns the
// router's own accept/reject result otherwise.
func (p *Processor) OnDirective(d Directive) bool {
	p.outerMu.Lock()
	defer p.outerMu.Unlock()

	p.mu.Lock()
	if d.DialogRequestID != "" && d.DialogRequestID != p.currentDialogRequestID {
		p.mu.Unlock()
		return true
	}
	if !p.isEnabled || p.isShuttingDown {
		p.mu.Unlock()
		return true
	}
	p.preHandling = &d
	p.mu.Unlock()

	accepted := p.router.PreHandleDirective(d, newResultSink(p.handle, d))

	p.mu.Lock()
	stillOurs := p.preHandling != nil && p.preHandling.MessageID == d.MessageID
	durable := p.durable
	if stillOurs {
		p.preHandling = nil
		if accepted {
			p.handlingQueue = append(p.handlingQueue, d)
			p.cond.Broadcast()
		}
	}
	p.mu.Unlock()

	if stillOurs && accepted && durable != nil {
		if err := durable.Put(d.DialogRequestID, d.MessageID, d.Namespace, d.Name, d.Payload); err != nil {
			logger.Warn("durable store put failed", "directive", d.String(), "error", err.Error())
		}
	}

	if !accepted {
		p.scrubDialog(d.DialogRequestID)
	}

	return accepted
}

// SetDialogRequestID changes the current dialog correlation id. If the
// new value differs from the current one, the previous value's directives
// are scrubbed: moved to the cancelling queue, including the one currently
// being pre-handled, which is then not queued when its pre-handle returns.
// An empty string is a valid value meaning "no current dialog" — the
// spec.md §9 open question is resolved this way, and empty-dialog
// directives bypass the match check in OnDirective unconditionally.
func (p *Processor) SetDialogRequestID(newValue string) {
	p.mu.Lock()
	if newValue == p.currentDialogRequestID {
		p.mu.Unlock()
		return
	}
	previous := p.currentDialogRequestID
	p.currentDialogRequestID = newValue
	moved := p.scrubLocked(previous)
	if moved {
		p.cond.Broadcast()
	}
	p.mu.Unlock()
}

// DialogRequestID returns the current correlation id.
func (p *Processor) DialogRequestID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentDialogRequestID
}

// Disable stops the processor from accepting further directives and
// scrubs the current dialog. Enable resumes acceptance.
func (p *Processor) Disable() {
	p.mu.Lock()
	p.isEnabled = false
	moved := p.scrubLocked(p.currentDialogRequestID)
	if moved {
		p.cond.Broadcast()
	}
	p.mu.Unlock()
}

func (p *Processor) Enable() {
	p.mu.Lock()
	p.isEnabled = true
	p.mu.Unlock()
}

// Shutdown scrubs the current dialog, refuses further OnDirective calls,
// signals the worker to exit, and joins it before returning. The
// processor's handle is removed from the process-wide table before the
// worker stops, so any completion arriving after Shutdown returns is
// silently dropped (spec.md §7, ResultAfterTeardown).
func (p *Processor) Shutdown() {
	p.mu.Lock()
	p.isEnabled = false
	p.scrubLocked(p.currentDialogRequestID)
	p.isShuttingDown = true
	p.cond.Broadcast()
	p.mu.Unlock()

	globalHandles.unregister(p.handle)
	p.wg.Wait()
}

// Stats returns a point-in-time snapshot of the processor's queues.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		DialogRequestID:      p.currentDialogRequestID,
		HandlingQueueDepth:   len(p.handlingQueue),
		CancellingQueueDepth: len(p.cancellingQueue),
		PreHandling:          p.preHandling != nil,
		InFlight:             p.isHandlingDirective,
	}
}

// onCompleted removes a directive from every container it may appear in.
// Safe to call for a directive already removed by a scrub — it is then a
// no-op.
func (p *Processor) onCompleted(d Directive) {
	p.mu.Lock()
	removed := p.removeLocked(d)
	if removed {
		p.cond.Broadcast()
	}
	durable := p.durable
	p.mu.Unlock()

	p.removeDurable(durable, d)
}

// onFailed removes a directive like onCompleted, and additionally scrubs
// its dialog (cancelling any siblings under the same dialog id).
func (p *Processor) onFailed(d Directive, description string) {
	logger.Warn("directive failed", "directive", d.String(), "description", description)

	p.mu.Lock()
	removed := p.removeLocked(d)
	if removed {
		p.cond.Broadcast()
	}
	durable := p.durable
	p.mu.Unlock()

	p.removeDurable(durable, d)
	p.scrubDialog(d.DialogRequestID)
}

// removeDurable best-effort deletes d's durable record outside the
// processor lock, logging (never failing) on error.
func (p *Processor) removeDurable(durable DurableSink, d Directive) {
	if durable == nil {
		return
	}
	if err := durable.Remove(d.DialogRequestID, d.MessageID); err != nil {
		logger.Warn("durable store remove failed", "directive", d.String(), "error", err.Error())
	}
}

// scrubDialog scrubs the given dialog id; a no-op for the empty id,
// since empty-dialog directives are not affiliated with any one dialog.
func (p *Processor) scrubDialog(dialogID string) {
	if dialogID == "" {
		return
	}
	p.mu.Lock()
	moved := p.scrubLocked(dialogID)
	if moved {
		p.cond.Broadcast()
	}
	p.mu.Unlock()
}

// scrubLocked implements spec.md §4.2's scrub: move
// directiveBeingPreHandled to cancellingQueue if its id matches; clear
// isHandlingDirective if the head of handlingQueue matches (it is still
// re-delivered for cancellation below); split handlingQueue, keeping
// non-matching entries and appending matching ones to cancellingQueue.
// Must be called with p.mu held. A no-op for the empty dialog id.
func (p *Processor) scrubLocked(dialogID string) (moved bool) {
	if dialogID == "" {
		return false
	}

	if p.preHandling != nil && p.preHandling.DialogRequestID == dialogID {
		p.cancellingQueue = append(p.cancellingQueue, *p.preHandling)
		p.preHandling = nil
		moved = true
	}

	if len(p.handlingQueue) > 0 && p.handlingQueue[0].DialogRequestID == dialogID && p.isHandlingDirective {
		p.isHandlingDirective = false
	}

	kept := p.handlingQueue[:0:0]
	for _, d := range p.handlingQueue {
		if d.DialogRequestID == dialogID {
			p.cancellingQueue = append(p.cancellingQueue, d)
			moved = true
		} else {
			kept = append(kept, d)
		}
	}
	p.handlingQueue = kept

	return moved
}

// removeLocked removes a directive (by message id) from whichever of
// {preHandling, cancellingQueue, handlingQueue} it appears in. Must be
// called with p.mu held.
func (p *Processor) removeLocked(d Directive) (removed bool) {
	if p.preHandling != nil && p.preHandling.MessageID == d.MessageID {
		p.preHandling = nil
		removed = true
	}

	filteredCancel := p.cancellingQueue[:0:0]
	for _, x := range p.cancellingQueue {
		if x.MessageID == d.MessageID {
			removed = true
			continue
		}
		filteredCancel = append(filteredCancel, x)
	}
	p.cancellingQueue = filteredCancel

	filteredHandling := p.handlingQueue[:0:0]
	for i, x := range p.handlingQueue {
		if x.MessageID == d.MessageID {
			removed = true
			if i == 0 && p.isHandlingDirective {
				p.isHandlingDirective = false
			}
			continue
		}
		filteredHandling = append(filteredHandling, x)
	}
	p.handlingQueue = filteredHandling

	return removed
}

// tryPopHead pops head off handlingQueue and clears isHandlingDirective,
// but only if the state is still exactly as this call left it before
// calling into the router: isHandlingDirective must still be set (a
// concurrent scrub/completion may already have cleared it and moved
// head elsewhere) and the queue's head must still be this directive.
// This implements spec.md §9's conservative "PolicyInversion" choice: do
// not unconditionally pop; the next worker iteration re-evaluates.
// Must be called with p.mu held.
func (p *Processor) tryPopHead(head Directive) {
	if !p.isHandlingDirective {
		return
	}
	if len(p.handlingQueue) == 0 || p.handlingQueue[0].MessageID != head.MessageID {
		logger.Warn("policy inversion: handling queue head changed concurrently", "message_id", head.MessageID)
		return
	}
	p.handlingQueue = p.handlingQueue[1:]
	p.isHandlingDirective = false
}

// worker is the single background goroutine that drains the cancelling
// queue and advances the handling queue, per spec.md §4.2.
func (p *Processor) worker() {
	defer p.wg.Done()

	p.mu.Lock()
	for {
		for !(len(p.cancellingQueue) > 0 ||
			(len(p.handlingQueue) > 0 && !p.isHandlingDirective) ||
			p.isShuttingDown) {
			p.cond.Wait()
		}

		switch {
		case len(p.cancellingQueue) > 0:
			batch := p.cancellingQueue
			p.cancellingQueue = nil
			durable := p.durable
			p.mu.Unlock()

			for _, d := range batch {
				p.router.CancelDirective(d.MessageID, d.Identity())
				p.removeDurable(durable, d)
			}

			p.mu.Lock()

		case len(p.handlingQueue) > 0 && !p.isHandlingDirective:
			head := p.handlingQueue[0]
			p.isHandlingDirective = true
			p.mu.Unlock()

			ok, policy := p.router.HandleDirective(head.MessageID, head.Identity())

			p.mu.Lock()
			if !ok {
				p.tryPopHead(head)
				p.mu.Unlock()
				p.scrubDialog(head.DialogRequestID)
				p.mu.Lock()
				continue
			}
			if policy != PolicyBlocking {
				p.tryPopHead(head)
			}
			// BLOCKING: leave isHandlingDirective set; the worker waits
			// for onCompleted/onFailed to advance the queue.

		case p.isShuttingDown:
			p.mu.Unlock()
			return
		}
	}
}
