// Package fakesched provides a deterministic schedapi.Scheduler double
// driven by a virtual clock instead of real time, the way the
// teacher's test doubles stand in for its external collaborators
// (gate.GateRunner, provider.Provider) rather than hitting the real
// thing. Tests advance the clock explicitly; nothing here spawns a
// goroutine or sleeps.
package fakesched

import (
	"sort"
	"time"

	"github.com/loopcraft/reconciler/internal/schedapi"
)

// task is one pending callback, ordered for Run by (priority, seq).
type task struct {
	id       uint64
	priority schedapi.Priority
	fn       func()
	canceled bool
}

// Scheduler is a single-threaded, priority-ordered fake. It has no
// background goroutine: callbacks run only when Run or RunAll is
// called, from whatever goroutine calls them.
type Scheduler struct {
	now    time.Time
	nextID uint64
	tasks  []*task

	yieldAfter int // ShouldYield returns true once this many calls have been made since the last reset
	yieldCalls int

	paints int
}

// New returns a Scheduler whose virtual clock starts at epoch.
func New(epoch time.Time) *Scheduler {
	return &Scheduler{now: epoch}
}

// Schedule records fn at priority and returns a Handle (the task
// itself) that Cancel can later mark dead.
func (s *Scheduler) Schedule(priority schedapi.Priority, fn func()) schedapi.Handle {
	s.nextID++
	t := &task{id: s.nextID, priority: priority, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Cancel marks h dead; Run skips canceled tasks without invoking fn.
func (s *Scheduler) Cancel(h schedapi.Handle) {
	if t, ok := h.(*task); ok {
		t.canceled = true
	}
}

// SetYieldAfter configures ShouldYield to return true every n calls
// (0 disables yielding entirely), simulating a scheduler time slice
// for concurrent work-loop tests.
func (s *Scheduler) SetYieldAfter(n int) {
	s.yieldAfter = n
	s.yieldCalls = 0
}

// ShouldYield implements schedapi.Scheduler.
func (s *Scheduler) ShouldYield() bool {
	if s.yieldAfter <= 0 {
		return false
	}
	s.yieldCalls++
	if s.yieldCalls >= s.yieldAfter {
		s.yieldCalls = 0
		return true
	}
	return false
}

// RequestPaint implements schedapi.Scheduler; PaintCount reports how
// many times it was called.
func (s *Scheduler) RequestPaint() { s.paints++ }

// PaintCount returns the number of RequestPaint calls so far.
func (s *Scheduler) PaintCount() int { return s.paints }

// Now implements schedapi.Scheduler.
func (s *Scheduler) Now() time.Time { return s.now }

// Advance moves the virtual clock forward by d without running any
// tasks; pair with Run/RunAll to simulate a timer firing.
func (s *Scheduler) Advance(d time.Duration) { s.now = s.now.Add(d) }

// Run executes every non-canceled pending task once, highest priority
// first (ties broken by schedule order), then clears the queue. Tasks
// scheduled by a task that ran this tick are NOT run until the next
// Run call, matching a real scheduler's next-tick semantics.
func (s *Scheduler) Run() int {
	pending := s.tasks
	s.tasks = nil

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].priority != pending[j].priority {
			return pending[i].priority < pending[j].priority
		}
		return pending[i].id < pending[j].id
	})

	ran := 0
	for _, t := range pending {
		if t.canceled {
			continue
		}
		t.fn()
		ran++
	}
	return ran
}

// RunAll repeatedly calls Run until a tick runs nothing, draining any
// cascade of tasks scheduled by earlier ticks.
func (s *Scheduler) RunAll() int {
	total := 0
	for {
		n := s.Run()
		total += n
		if n == 0 {
			return total
		}
	}
}

// Pending reports how many non-canceled tasks are currently queued.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.canceled {
			n++
		}
	}
	return n
}
