// Package realsched is the production schedapi.Scheduler: a single
// background goroutine draining a priority queue, used by cmd/reconcile
// wherever internal/fakesched's deterministic virtual-clock scheduler
// isn't appropriate (i.e. outside tests). It is grounded on the
// teacher's internal/orchestrator package for its accept-interfaces,
// typed-error, doc-comment-per-exported-field style, adapted here from
// sequential phase execution to a concurrent priority queue.
package realsched

import (
	"container/heap"
	"sync"
	"time"

	"github.com/loopcraft/reconciler/internal/schedapi"
)

// yieldSlice is how long a single callback may run before ShouldYield
// starts returning true, approximating spec §4.B's 5ms frame budget.
const yieldSlice = 5 * time.Millisecond

type task struct {
	id       uint64
	priority schedapi.Priority
	fn       func()
	canceled bool
	index    int
}

// taskHeap orders by (priority, id) so ties break FIFO, matching
// fakesched.Scheduler.Run's ordering.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].id < h[j].id
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler runs scheduled callbacks on a single worker goroutine in
// priority order, started by Start and stopped by Stop. It is safe to
// call Schedule/Cancel/RequestPaint from any goroutine; ShouldYield and
// Now are intended to be called only from the worker goroutine's
// running callback.
type Scheduler struct {
	mu       sync.Mutex
	queue    taskHeap
	nextID   uint64
	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	paints   chan struct{}

	sliceStart time.Time
}

// New returns a stopped Scheduler; call Start to begin draining tasks.
func New() *Scheduler {
	return &Scheduler{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		paints: make(chan struct{}, 1),
	}
}

// Start launches the worker goroutine. It must be called once, before
// the scheduler is handed to a reconciler.RenderContext.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop signals the worker goroutine to exit after its current callback
// (if any) returns, and waits for it to do so.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		t := s.pop()
		if t == nil {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		s.mu.Lock()
		s.sliceStart = time.Now()
		s.mu.Unlock()
		t.fn()
	}
}

func (s *Scheduler) pop() *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.Len() > 0 {
		t := heap.Pop(&s.queue).(*task)
		if !t.canceled {
			return t
		}
	}
	return nil
}

// Schedule implements schedapi.Scheduler.
func (s *Scheduler) Schedule(priority schedapi.Priority, fn func()) schedapi.Handle {
	s.mu.Lock()
	s.nextID++
	t := &task{id: s.nextID, priority: priority, fn: fn}
	heap.Push(&s.queue, t)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return t
}

// Cancel implements schedapi.Scheduler.
func (s *Scheduler) Cancel(h schedapi.Handle) {
	if t, ok := h.(*task); ok {
		s.mu.Lock()
		t.canceled = true
		s.mu.Unlock()
	}
}

// ShouldYield implements schedapi.Scheduler.
func (s *Scheduler) ShouldYield() bool {
	s.mu.Lock()
	start := s.sliceStart
	s.mu.Unlock()
	return time.Since(start) >= yieldSlice
}

// RequestPaint implements schedapi.Scheduler.
func (s *Scheduler) RequestPaint() {
	select {
	case s.paints <- struct{}{}:
	default:
	}
}

// Now implements schedapi.Scheduler.
func (s *Scheduler) Now() time.Time { return time.Now() }
