package reconciler

import (
	"errors"
	"fmt"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
)

// Sentinel errors for caller-checkable conditions (spec §7).
var (
	ErrNoWork                   = errors.New("reconciler: no pending work")
	ErrRootUnmounted            = errors.New("reconciler: update scheduled on an unmounted fiber")
	ErrFlushSyncInRenderContext = errors.New("reconciler: flushSync called while already rendering or committing")
	ErrNestedUpdateOverflow     = errors.New("reconciler: nested update limit exceeded")
	ErrNestedPassiveOverflow    = errors.New("reconciler: nested passive effect limit exceeded")
)

// RenderError is a render-phase failure captured while walking the
// tree (spec §7: "RenderError").
type RenderError struct {
	Lane  lane.Lane
	Fiber fiber.Ref
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("reconciler: render error on fiber %d (lane %#x): %s", e.Fiber, e.Lane, e.Err)
}
func (e *RenderError) Unwrap() error { return e.Err }

// CommitPhase names the three ordered commit sub-phases plus the
// passive-effects flush, for attributing a CommitError.
type CommitPhase int

const (
	PhaseBeforeMutation CommitPhase = iota
	PhaseMutation
	PhaseLayout
	PhasePassiveEffects
)

func (p CommitPhase) String() string {
	switch p {
	case PhaseBeforeMutation:
		return "before-mutation"
	case PhaseMutation:
		return "mutation"
	case PhaseLayout:
		return "layout"
	case PhasePassiveEffects:
		return "passive-effects"
	default:
		return "unknown"
	}
}

// CommitError is a single commit sub-step failure, attributed to the
// fiber whose effect threw (spec §7: "CommitError").
type CommitError struct {
	Phase CommitPhase
	Fiber fiber.Ref
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("reconciler: commit error in %s phase on fiber %d: %s", e.Phase, e.Fiber, e.Err)
}
func (e *CommitError) Unwrap() error { return e.Err }

// FatalError is an escalated render failure unwound to the root with
// no boundary to catch it (spec §7: "FatalError").
type FatalError struct {
	Root *FiberRoot
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("reconciler: fatal error: %s", e.Err)
}
func (e *FatalError) Unwrap() error { return e.Err }

// captureCommitPhaseErrorOnRoot attaches a commit sub-step failure to
// the nearest class error boundary ancestor of fiberRef (or root, if
// none catches), enqueuing a Sync-lane error update and rescheduling
// so the boundary's fallback renders on the next tick (spec §7).
func (rc *RenderContext) captureCommitPhaseErrorOnRoot(root *FiberRoot, fiberRef fiber.Ref, err error) {
	f := root.Tree.Get(fiberRef)
	rc.Hooks.ThrowException(root.Tree, f.Return, fiberRef, err, lane.Lanes(lane.SyncLane))
	rc.markUpdateLaneFromFiberToRoot(root, fiberRef, lane.SyncLane, rc.requestEventTime())
	rc.ensureRootIsScheduled(root)
}

// MarkLegacyBoundaryFailed implements spec §6's exposed
// markLegacyErrorBoundaryAsFailed op: ref has just caught an error once
// already, so a later UnwindWork pass that lands on the same fiber
// must not give it a second chance — it is a boundary that itself
// failed while handling a prior failure (spec §7's
// UncaughtBoundaryFailure), and completeUnitOfWork's unwind loop should
// keep climbing to the next ancestor instead of stopping here again.
func (rc *RenderContext) MarkLegacyBoundaryFailed(ref fiber.Ref) {
	rc.legacyErrorBoundariesThatAlreadyFailed[ref] = true
}

// recoverFatalError is deferred by the public entry points
// (UpdateContainer, FlushSync, FlushPassiveEffects): a *FatalError
// panicking out of the work loop or commit pipeline (spec §7's
// "unwound to the root with no boundary to catch it") is converted
// into the ordinary error return those methods already expose, rather
// than crashing the embedder's goroutine. Any other panic value is not
// ours to swallow and is re-raised.
func recoverFatalError(errp *error) {
	if r := recover(); r != nil {
		fe, ok := r.(*FatalError)
		if !ok {
			panic(r)
		}
		*errp = fe
	}
}

// guardedCall wraps a single commit sub-step, converting a panic or a
// returned error into a CommitError attributed to fiberRef, the way
// spec §9's "guarded callback" design note calls for: a single
// catch-and-attribute helper rather than per-call try/catch sprawl at
// each use site.
func guardedCall(phase CommitPhase, fiberRef fiber.Ref, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &CommitError{Phase: phase, Fiber: fiberRef, Err: e}
			} else {
				err = &CommitError{Phase: phase, Fiber: fiberRef, Err: fmt.Errorf("%v", r)}
			}
		}
	}()
	if e := fn(); e != nil {
		return &CommitError{Phase: phase, Fiber: fiberRef, Err: e}
	}
	return nil
}
