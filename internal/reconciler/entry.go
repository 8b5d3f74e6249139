package reconciler

import (
	"time"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
)

// performSyncWorkOnRoot and performConcurrentWorkOnRoot are the two
// entry points named in spec §4.D: the task scheduleUpdateOnFiber (or
// the sync callback queue) eventually invokes to actually run the
// work loop on a bound root.

// performSyncWorkOnRoot runs the sync work loop to completion (never
// yielding), then applies the restart policy and commits.
func (rc *RenderContext) performSyncWorkOnRoot(root *FiberRoot) {
	lanes := root.GetNextLanes(lane.NoLanes)
	if lanes == lane.NoLanes {
		return
	}

	prevCtx := rc.ExecutionContext
	rc.ExecutionContext |= CtxRender

	if rc.workInProgressRoot != root || rc.workInProgressRootRenderLanes != lanes {
		rc.prepareFreshStack(root, lanes)
	}
	rc.workLoopSync(root)

	rc.ExecutionContext = prevCtx
	rc.finishRenderAttempt(root, lanes)
}

// performConcurrentWorkOnRoot runs the concurrent work loop, yielding
// cooperatively. If the loop yields with work still incomplete, a
// follow-up task is scheduled at the same priority to resume it;
// otherwise the restart policy runs and, if a commit is due, commitRoot
// schedules it as an Immediate-priority task.
func (rc *RenderContext) performConcurrentWorkOnRoot(root *FiberRoot) {
	lanes := root.GetNextLanes(rc.renderingLanesFor(root))
	if lanes == lane.NoLanes {
		return
	}

	prevCtx := rc.ExecutionContext
	rc.ExecutionContext |= CtxRender

	if rc.workInProgressRoot != root || rc.workInProgressRootRenderLanes != lanes {
		rc.prepareFreshStack(root, lanes)
	}
	rc.workLoopConcurrent(root)

	rc.ExecutionContext = prevCtx

	if rc.workInProgress != fiber.NilRef {
		root.CallbackNode = rc.Scheduler.Schedule(
			toSchedPriority(lane.SchedulerPriorityForLanes(lanes)),
			func() { rc.performConcurrentWorkOnRoot(root) },
		)
		return
	}

	rc.finishRenderAttempt(root, lanes)
}

// finishRenderAttempt implements spec §4.D's restart decisions: a
// just-completed render attempt is either discarded (higher-priority
// work interleaved, or a synchronous retry-on-error), or handed to
// finishConcurrentRender's exit-status policy table.
func (rc *RenderContext) finishRenderAttempt(root *FiberRoot, lanes lane.Lanes) {
	if rc.updatedLanes != lane.NoLanes && !lanes.IsSubset(rc.updatedLanes) {
		rc.prepareFreshStack(root, lane.NoLanes)
		rc.ensureRootIsScheduled(root)
		return
	}

	if rc.exitStatus == ExitErrored && !rc.retriedSyncOnError {
		rc.retriedSyncOnError = true
		rc.prepareFreshStack(root, lanes)
		rc.workLoopSync(root)
	}
	rc.retriedSyncOnError = false

	if rc.exitStatus != ExitFatalErrored && rc.exitStatus != ExitIncomplete {
		root.FinishedWork = root.Tree.Get(root.Current).Alternate
		root.FinishedLanes = lanes
	}

	rc.finishConcurrentRender(root, lanes, rc.exitStatus)
}

// finishConcurrentRender implements the policy table in spec §4.D.
func (rc *RenderContext) finishConcurrentRender(root *FiberRoot, lanes lane.Lanes, status ExitStatus) {
	switch status {
	case ExitCompleted:
		rc.commitRoot(root)

	case ExitSuspended:
		root.MarkRootSuspended(lanes)
		if lowerSuspended := root.SuspendedLanes &^ lanes; lowerSuspended != lane.NoLanes {
			rc.ensureRootIsScheduled(root)
			return
		}
		if rc.updatedLanes == lane.NoLanes {
			wait := rc.Config.FallbackThrottle - rc.now().Sub(root.fallbackCommitTime)
			if wait > 10*time.Millisecond {
				rc.scheduleDelayedCommit(root, wait)
				return
			}
		}
		rc.commitRoot(root)

	case ExitSuspendedWithDelay:
		root.MarkRootSuspended(lanes)
		if lowerSuspended := root.SuspendedLanes &^ lanes; lowerSuspended != lane.NoLanes {
			rc.ensureRootIsScheduled(root)
			return
		}
		var wait time.Duration
		if !rc.latestSuspenseTimeout.IsZero() {
			wait = rc.latestSuspenseTimeout.Sub(rc.now())
		} else {
			wait = jnd(rc.now().Sub(rc.latestProcessedEventTime))
		}
		rc.scheduleDelayedCommit(root, wait)

	case ExitErrored:
		rc.commitRoot(root)

	case ExitFatalErrored:
		err := rc.fatalError
		rc.prepareFreshStack(root, lane.NoLanes)
		root.MarkRootSuspended(lanes)
		rc.ensureRootIsScheduled(root)
		panic(&FatalError{Root: root, Err: err})
	}
}

// scheduleDelayedCommit arms root's host timer for d and, on fire,
// commits whatever finishedWork is still staged.
func (rc *RenderContext) scheduleDelayedCommit(root *FiberRoot, d time.Duration) {
	if d < 0 {
		d = 0
	}
	root.TimeoutHandle = rc.Host.ScheduleTimeout(func() { rc.commitRoot(root) }, d)
}
