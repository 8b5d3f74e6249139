package reconciler

import (
	"time"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/hostapi"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/workhooks"
)

// prepareFreshStack implements spec §4.D: cancel any pending commit
// timer, unwind whatever partial work-in-progress exists, and reset
// all per-render scratch state.
func (rc *RenderContext) prepareFreshStack(root *FiberRoot, lanes lane.Lanes) {
	if root.TimeoutHandle != hostapi.NoTimeout {
		rc.Host.CancelTimeout(root.TimeoutHandle)
		root.TimeoutHandle = hostapi.NoTimeout
	}

	if rc.workInProgress != fiber.NilRef {
		w := root.Tree.Get(rc.workInProgress)
		for cur := rc.workInProgress; cur != fiber.NilRef; cur = w.Return {
			rc.Hooks.UnwindInterruptedWork(root.Tree, cur)
			w = root.Tree.Get(cur)
		}
	}

	root.FinishedWork = fiber.NilRef
	root.FinishedLanes = lane.NoLanes

	rc.workInProgressRoot = root
	rc.workInProgress = root.Tree.CreateWorkInProgress(root.Current, nil)
	rc.workInProgressRootRenderLanes = lanes

	rc.exitStatus = ExitIncomplete
	rc.fatalError = nil
	rc.latestProcessedEventTime = time.Time{}
	rc.latestSuspenseTimeout = time.Time{}
	rc.canSuspendUsingConfig = nil
	rc.skippedLanes = lane.NoLanes
	rc.updatedLanes = lane.NoLanes
	rc.pingedLanes = lane.NoLanes
}

// performUnitOfWork implements spec §4.D step 1-3.
func (rc *RenderContext) performUnitOfWork(root *FiberRoot, current fiber.Ref) {
	unit := rc.workInProgress
	w := root.Tree.Get(unit)
	pendingProps := w.PendingProps
	w.Lanes &^= rc.workInProgressRootRenderLanes
	w.EffectTag = fiber.EffectNone
	w.FirstEffect, w.LastEffect = fiber.NilRef, fiber.NilRef

	result := rc.Hooks.BeginWork(root.Tree, current, unit, rc.workInProgressRootRenderLanes)
	root.Tree.Get(unit).MemoizedProps = pendingProps

	switch result.Kind {
	case workhooks.Done:
		rc.completeUnitOfWork(root, rc.workInProgress)
	case workhooks.ContinueWith:
		for c := result.Next; c != fiber.NilRef; c = root.Tree.Get(c).Sibling {
			root.Tree.Get(c).Return = unit
		}
		rc.workInProgress = result.Next
	case workhooks.Suspend:
		rc.handleSuspend(root, rc.workInProgress, result.Wake)
	case workhooks.Errored:
		rc.handleThrow(root, rc.workInProgress, result.Err)
	}
}

// completeUnitOfWork implements spec §4.D's complete-phase loop.
func (rc *RenderContext) completeUnitOfWork(root *FiberRoot, unit fiber.Ref) {
	t := root.Tree
	completed := unit

	for {
		f := t.Get(completed)
		currentAlt := f.Alternate

		if !f.EffectTag.Has(fiber.EffectIncomplete) {
			if err := rc.Hooks.CompleteWork(t, currentAlt, completed, rc.workInProgressRootRenderLanes); err != nil {
				rc.handleThrow(root, completed, err)
				return
			}
			t.RecomputeChildLanes(completed)

			if parent := f.Return; parent != fiber.NilRef {
				p := t.Get(parent)
				t.AppendChildEffects(&p.FirstEffect, &p.LastEffect, f.FirstEffect, f.LastEffect)
				if f.EffectTag > fiber.EffectPerformedWork {
					t.AppendEffect(&p.FirstEffect, &p.LastEffect, completed)
				}
			}
		} else {
			caught := rc.Hooks.UnwindWork(t, completed, rc.workInProgressRootRenderLanes)
			if caught != fiber.NilRef && !rc.legacyErrorBoundariesThatAlreadyFailed[caught] {
				c := t.Get(caught)
				c.EffectTag &= fiber.HostEffectMask
				rc.workInProgress = caught
				rc.MarkLegacyBoundaryFailed(caught)
				return
			}
			if parent := f.Return; parent != fiber.NilRef {
				p := t.Get(parent)
				p.FirstEffect = fiber.NilRef
				p.LastEffect = fiber.NilRef
				p.EffectTag |= fiber.EffectIncomplete
			} else {
				rc.exitStatus = ExitIncomplete
				rc.workInProgress = fiber.NilRef
				return
			}
		}

		if sib := f.Sibling; sib != fiber.NilRef {
			rc.workInProgress = sib
			return
		}
		if f.Return == fiber.NilRef {
			if rc.exitStatus != ExitErrored && rc.exitStatus != ExitSuspended && rc.exitStatus != ExitSuspendedWithDelay {
				rc.exitStatus = ExitCompleted
			}
			rc.workInProgress = fiber.NilRef
			return
		}
		completed = f.Return
	}
}

// workLoopSync runs performUnitOfWork until the tree is exhausted,
// never yielding (spec §4.D sync loop).
func (rc *RenderContext) workLoopSync(root *FiberRoot) {
	for rc.workInProgress != fiber.NilRef {
		rc.performUnitOfWork(root, root.Tree.Get(rc.workInProgress).Alternate)
	}
}

// workLoopConcurrent runs performUnitOfWork until the tree is
// exhausted or the scheduler asks us to yield (spec §4.D concurrent
// loop and spec §5's "suspends only at the top of workLoopConcurrent").
func (rc *RenderContext) workLoopConcurrent(root *FiberRoot) {
	units := 0
	for rc.workInProgress != fiber.NilRef {
		if units > 0 && units%rc.Config.YieldCheckEvery == 0 && rc.Scheduler.ShouldYield() {
			return
		}
		rc.performUnitOfWork(root, root.Tree.Get(rc.workInProgress).Alternate)
		units++
	}
}

// jnd is the "just noticeable difference" staircase from spec §4.D.
func jnd(t time.Duration) time.Duration {
	ms := t.Milliseconds()
	switch {
	case ms < 120:
		return 120 * time.Millisecond
	case ms < 480:
		return 480 * time.Millisecond
	case ms < 1080:
		return 1080 * time.Millisecond
	case ms < 1920:
		return 1920 * time.Millisecond
	case ms < 3000:
		return 3000 * time.Millisecond
	case ms < 4320:
		return 4320 * time.Millisecond
	default:
		step := int64(1960)
		rounded := ((ms + step - 1) / step) * step
		return time.Duration(rounded) * time.Millisecond
	}
}
