package reconciler

import (
	"fmt"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/workhooks"
)

// handleSuspend implements the render-phase half of spec §4.E: a
// component suspended on wake, so the boundary's lanes are recorded as
// Suspended, a listener is attached that re-enters via
// pingSuspendedRoot on resolve (or the error path on reject), and the
// current unit is unwound like an error so completeUnitOfWork's
// UnwindWork path can find the nearest suspense boundary.
func (rc *RenderContext) handleSuspend(root *FiberRoot, wipRef fiber.Ref, wake workhooks.Wakeable) {
	lanes := rc.workInProgressRootRenderLanes
	if existing, ok := root.PingCache[wake]; ok {
		lanes |= existing
	}
	root.PingCache[wake] = lanes

	wake.Subscribe(func(ok bool) {
		if ok {
			rc.pingSuspendedRoot(root, wake, lanes)
		} else {
			rc.handleThrow(root, wipRef, fmt.Errorf("reconciler: wakeable rejected"))
		}
	})

	root.MarkRootSuspended(lanes)
	if rc.exitStatus != ExitErrored && rc.exitStatus != ExitFatalErrored {
		rc.exitStatus = ExitSuspended
	}

	w := root.Tree.Get(wipRef)
	w.EffectTag |= fiber.EffectIncomplete
	rc.completeUnitOfWork(root, wipRef)
}

// handleThrow implements the non-suspension branch of spec §4.D's
// error handling: attach an error update to the nearest boundary via
// ThrowException, then resume by unwinding the erroring fiber. A panic
// out of ThrowException (no boundary caught it) records FatalErrored and
// the error and stops the work loop; finishRenderAttempt then prepares a
// fresh stack, marks the lanes suspended and panics a *FatalError.
func (rc *RenderContext) handleThrow(root *FiberRoot, fiberRef fiber.Ref, err error) {
	defer func() {
		if r := recover(); r != nil {
			rc.exitStatus = ExitFatalErrored
			if e, ok := r.(error); ok {
				rc.fatalError = e
			} else {
				rc.fatalError = fmt.Errorf("reconciler: %v", r)
			}
			rc.workInProgress = fiber.NilRef
		}
	}()

	f := root.Tree.Get(fiberRef)
	rc.Hooks.ThrowException(root.Tree, f.Return, fiberRef, err, rc.workInProgressRootRenderLanes)

	rc.exitStatus = ExitErrored
	f.EffectTag |= fiber.EffectIncomplete
	rc.completeUnitOfWork(root, fiberRef)
}

// pingSuspendedRoot implements spec §4.E: evict wake from the ping
// cache, mark its lanes pinged, and either restart the current render
// immediately (when the ping is relevant to the in-flight attempt) or
// merely note it so the next ensureRootIsScheduled picks it up.
func (rc *RenderContext) pingSuspendedRoot(root *FiberRoot, wake workhooks.Wakeable, pingedLanes lane.Lanes) {
	delete(root.PingCache, wake)
	root.MarkRootPinged(pingedLanes)

	if rc.workInProgressRoot == root {
		renderingLanes := rc.workInProgressRootRenderLanes
		withinFallbackWindow := rc.now().Sub(root.fallbackCommitTime) < rc.Config.FallbackThrottle

		relevant := pingedLanes.IsSubset(renderingLanes) &&
			(rc.exitStatus == ExitSuspendedWithDelay ||
				(rc.exitStatus == ExitSuspended && rc.updatedLanes == lane.NoLanes && withinFallbackWindow))

		if relevant {
			rc.prepareFreshStack(root, lane.NoLanes)
		}
	}

	rc.pingedLanes |= pingedLanes
	rc.ensureRootIsScheduled(root)
}

// retryTimedOutBoundary implements spec §4.E's fallback-timeout retry:
// a suspense boundary's fallback timer fired, so its subtree gets a
// fresh lane (or reuses retryLane if already known) and is marked
// pending from boundaryFiber up to the root.
func (rc *RenderContext) retryTimedOutBoundary(root *FiberRoot, boundaryFiber fiber.Ref, retryLane lane.Lane) {
	if retryLane == lane.NoLane {
		retryLane = lane.Highest(lane.RetryLanes &^ root.SuspendedLanes)
		if retryLane == lane.NoLane {
			retryLane = lane.Highest(lane.RetryLanes)
		}
	}
	rc.markUpdateLaneFromFiberToRoot(root, boundaryFiber, retryLane, rc.requestEventTime())
	rc.ensureRootIsScheduled(root)
}
