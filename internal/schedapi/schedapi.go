// Package schedapi declares the contract the reconciler core requires
// of an external priority scheduler (spec §6). The core never
// constructs a scheduler itself; it is handed one at FiberRoot
// creation. internal/fakesched provides a deterministic test double;
// internal/termhost wires a real one for the terminal demo.
package schedapi

import "time"

// Priority is the scheduler's own priority enum, distinct from (but
// translated from, via internal/lane) the reconciler's Lane model.
type Priority int

const (
	Immediate Priority = iota
	UserBlocking
	Normal
	Low
	Idle
)

// Handle identifies a previously scheduled callback so it can be
// cancelled.
type Handle any

// Scheduler is the external collaborator described in spec §6:
// schedule/cancel/shouldYield/requestPaint/now.
type Scheduler interface {
	// Schedule enqueues fn to run at priority and returns a handle that
	// can later be passed to Cancel.
	Schedule(priority Priority, fn func()) Handle
	// Cancel prevents a previously scheduled callback from running, if
	// it hasn't started yet.
	Cancel(h Handle)
	// ShouldYield reports whether the current cooperative task has
	// exceeded its time slice and should return control to the
	// scheduler.
	ShouldYield() bool
	// RequestPaint signals that a committed frame is ready to be
	// presented to the user as soon as the host's paint loop allows.
	RequestPaint()
	// Now returns a monotonic timestamp comparable across calls.
	Now() time.Time
}
