// Package workhooks declares the contract between the work loop and
// the element → fiber reconciliation logic (beginWork/completeWork/
// unwindWork/throwException in spec §6), plus the tagged-union
// replacement for exception-based suspension called for in spec §9:
// instead of a thrown thenable unwinding the Go call stack, beginWork
// returns a BeginResult whose Kind the work loop dispatches on.
package workhooks

import (
	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
)

// BeginKind tags the outcome of a single beginWork call.
type BeginKind int

const (
	// Done means this fiber has no child to descend into; the work
	// loop should call completeUnitOfWork on it.
	Done BeginKind = iota
	// ContinueWith means the work loop should descend into Next.
	ContinueWith
	// Suspend means this fiber threw on Wake; the work loop delegates
	// to the suspension protocol (see internal/reconciler/suspense.go).
	Suspend
	// Errored means this fiber failed outright (not a suspension); the
	// work loop calls ThrowException.
	Errored
)

// Wakeable is the suspense protocol's notion of a pending async
// resource: something that resolves or rejects exactly once. Identity
// matters (it's used as a pingCache key), so implementations are
// expected to be reference types (pointers) or comparable values with
// stable identity, such as a UUID-keyed handle.
type Wakeable interface {
	// Subscribe registers onSettle to be called exactly once, with ok
	// true on resolve and false on reject. Subscribe may call onSettle
	// synchronously if the wakeable is already settled.
	Subscribe(onSettle func(ok bool))
}

// BeginResult is what BeginWork returns in place of either a next
// fiber.Ref or a thrown value.
type BeginResult struct {
	Kind BeginKind
	Next fiber.Ref
	Wake Wakeable
	Err  error
}

// Hooks is the full contract the work loop requires of the
// reconciliation layer. All three methods may mutate t and the fiber
// at ref (and its children), but never the fiber at ref's Alternate.
type Hooks interface {
	// BeginWork processes current -> workInProgress at the given
	// render lanes and returns the next step (see BeginKind).
	BeginWork(t *fiber.Tree, current, workInProgress fiber.Ref, renderLanes lane.Lanes) BeginResult
	// CompleteWork finalizes workInProgress once all of its children
	// have completed. Returning an error is equivalent to beginWork
	// returning Errored.
	CompleteWork(t *fiber.Tree, current, workInProgress fiber.Ref, renderLanes lane.Lanes) error
	// UnwindWork gives a fiber on the return path a chance to catch an
	// Incomplete/error state (e.g. a suspense boundary catching a
	// suspension). It returns the fiber that should become the new
	// workInProgress (typically the boundary itself, now rendering its
	// fallback), or fiber.NilRef if this fiber doesn't catch.
	UnwindWork(t *fiber.Tree, workInProgress fiber.Ref, renderLanes lane.Lanes) fiber.Ref
	// UnwindInterruptedWork pops any side-stack state workInProgress
	// pushed during an in-progress render that's about to be discarded
	// (prepareFreshStack's restart path).
	UnwindInterruptedWork(t *fiber.Tree, workInProgress fiber.Ref)
	// ThrowException attaches value to the nearest class error boundary
	// ancestor of sourceFiber, or to root if none catches, enqueuing a
	// Sync-lane error update per spec §4.D/§7.
	ThrowException(t *fiber.Tree, returnFiber, sourceFiber fiber.Ref, value error, renderLanes lane.Lanes)

	// GetSnapshotBeforeUpdate runs the before-mutation snapshot hook for
	// a fiber whose effect tag carries EffectSnapshot (spec §4.F step 7).
	GetSnapshotBeforeUpdate(t *fiber.Tree, ref fiber.Ref) error
	// CommitLayoutEffects runs layout-effect and class lifecycle
	// callbacks and attaches refs for a fiber whose effect tag carries
	// EffectUpdate|EffectCallback|EffectRef (spec §4.F step 12).
	CommitLayoutEffects(t *fiber.Tree, ref fiber.Ref) error
	// CommitPassiveUnmount runs ref's queued passive-effect destroy
	// (unmount) callback from the previous commit (spec §4.F passive
	// effects, first pass).
	CommitPassiveUnmount(t *fiber.Tree, ref fiber.Ref) error
	// CommitPassiveMount runs ref's queued passive-effect create
	// (mount) callback; its return value becomes the next destroy
	// (spec §4.F passive effects, second pass).
	CommitPassiveMount(t *fiber.Tree, ref fiber.Ref) error
}
