// Package hostapi declares the contract the reconciler core requires
// of a host adapter (the DOM/native backend in spec §1, consumed only
// via §6's interface). The core never touches a concrete UI toolkit;
// internal/termhost implements this for a terminal demo.
package hostapi

import "time"

// TimeoutHandle identifies a pending delayed-commit timer, returned by
// ScheduleTimeout and accepted by CancelTimeout.
type TimeoutHandle any

// FocusHandle identifies whatever instance currently holds input
// focus, opaque to the core.
type FocusHandle any

// Mutation is one entry in the ordered list of host mutations the
// commit pipeline's mutation phase applies. The core builds these from
// a fiber's effect tag and StateNode; Host applies them without
// needing to understand fiber internals.
type Mutation struct {
	Kind     MutationKind
	Instance any // host instance being mutated
	Parent   any // host parent instance (Placement/Deletion)
	Before   any // host sibling to insert before, or nil to append
	Props    any // new props (Update)
}

// MutationKind enumerates the primitive host operations the commit
// pipeline's mutation phase may request.
type MutationKind int

const (
	MutationPlacement MutationKind = iota
	MutationUpdate
	MutationDeletion
	MutationContentReset
	MutationHydrate
)

// Host is the adapter contract consumed by the commit pipeline.
type Host interface {
	// PrepareForCommit is called once before the mutation phase and
	// returns whatever focus handle the host wants restored later.
	PrepareForCommit(container any) FocusHandle
	// ResetAfterCommit is called once after the buffer swap.
	ResetAfterCommit(container any)
	// BeforeActiveInstanceBlur/AfterActiveInstanceBlur bracket a forced
	// blur when the focused instance became hidden or was deleted.
	BeforeActiveInstanceBlur()
	AfterActiveInstanceBlur()

	// ApplyMutation performs one mutation built from a committed
	// effect. Detached refs are handled by the core before calling
	// this for Deletion mutations.
	ApplyMutation(m Mutation) error

	// ScheduleTimeout/CancelTimeout/NoTimeout back the commit
	// pipeline's delayed-commit timer (spec §4.D's busyDelayMs path and
	// §4.E's fallback throttle).
	ScheduleTimeout(fn func(), d time.Duration) TimeoutHandle
	CancelTimeout(h TimeoutHandle)
}

// NoTimeout is the sentinel "no pending timer" handle.
var NoTimeout TimeoutHandle = struct{ noTimeout bool }{true}
