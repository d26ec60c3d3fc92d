package focus

import (
	"container/list"
	"sync"
)

// executor is a single-consumer, in-order task queue supporting both
// back-of-queue (Submit) and front-of-queue (SubmitFront) insertion. The
// focus manager uses front-of-queue submission for stopForegroundActivity
// and stopAllActivities, which must preempt already-queued acquires.
//
// Grounded on the background-goroutine/WaitGroup/cancel shape used
// throughout the teacher's flusher package, generalized from a periodic
// sweep into an arbitrary task queue behind one mutex and one condition
// variable, per the design note on front-of-queue submission.
type executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  *list.List
	closed bool
	wg     sync.WaitGroup
}

func newExecutor() *executor {
	e := &executor{tasks: list.New()}
	e.cond = sync.NewCond(&e.mu)
	e.wg.Add(1)
	go e.run()
	return e
}

// Submit enqueues fn at the back of the queue.
func (e *executor) Submit(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.tasks.PushBack(fn)
	e.cond.Signal()
}

// SubmitFront enqueues fn at the front of the queue, so it runs before any
// task already queued.
func (e *executor) SubmitFront(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.tasks.PushFront(fn)
	e.cond.Signal()
}

// SubmitWait enqueues fn at the back of the queue and blocks until it has
// run, returning fn's result.
func (e *executor) SubmitWait(fn func() bool) bool {
	done := make(chan bool, 1)
	e.Submit(func() {
		done <- fn()
	})
	return <-done
}

func (e *executor) run() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.tasks.Len() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.tasks.Len() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		front := e.tasks.Front()
		e.tasks.Remove(front)
		e.mu.Unlock()

		fn := front.Value.(func())
		fn()
	}
}

// Close stops accepting new tasks and waits for the worker to drain the
// queue and exit.
func (e *executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()
}
