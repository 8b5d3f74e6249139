package reconciler

import (
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/schedapi"
)

func toSchedPriority(p lane.Priority) schedapi.Priority {
	switch p {
	case lane.PriorityImmediate:
		return schedapi.Immediate
	case lane.PriorityUserBlocking:
		return schedapi.UserBlocking
	case lane.PriorityNormal:
		return schedapi.Normal
	case lane.PriorityLow:
		return schedapi.Low
	default:
		return schedapi.Idle
	}
}

// renderingLanesFor returns the lanes root is currently (or was most
// recently) rendering at, for GetNextLanes' "continue renderingLanes"
// preference.
func (rc *RenderContext) renderingLanesFor(root *FiberRoot) lane.Lanes {
	if rc.workInProgressRoot == root {
		return rc.workInProgressRootRenderLanes
	}
	return lane.NoLanes
}

// ensureRootIsScheduled implements spec §4.B: the single entry point
// that binds a root to the scheduler at the priority of its highest
// pending lane, never cancelling and re-scheduling an equivalent task.
func (rc *RenderContext) ensureRootIsScheduled(root *FiberRoot) {
	nextLanes := root.GetNextLanes(rc.renderingLanesFor(root))

	if nextLanes == lane.NoLanes {
		if root.CallbackNode != nil {
			rc.Scheduler.Cancel(root.CallbackNode)
		}
		root.CallbackNode = nil
		root.CallbackLanes = lane.NoLanes
		root.CallbackIsSync = false
		return
	}

	isSync := lane.Highest(nextLanes) == lane.SyncLane
	if root.CallbackNode != nil && root.CallbackLanes == nextLanes && root.CallbackIsSync == isSync {
		return
	}
	if root.CallbackNode != nil {
		rc.Scheduler.Cancel(root.CallbackNode)
	}

	root.CallbackLanes = nextLanes
	root.CallbackIsSync = isSync

	if isSync {
		root.CallbackNode = root
		rc.syncCallbackQueue = append(rc.syncCallbackQueue, func() {
			rc.performSyncWorkOnRoot(root)
		})
		if rc.ExecutionContext == CtxNone {
			rc.flushSyncCallbackQueue()
		}
		return
	}

	priority := toSchedPriority(lane.SchedulerPriorityForLanes(nextLanes))
	root.CallbackNode = rc.Scheduler.Schedule(priority, func() {
		rc.performConcurrentWorkOnRoot(root)
	})
}
