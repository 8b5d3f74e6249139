package reconciler

import (
	"time"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
)

// batchedUpdates implements spec §4.G: push CtxBatched, run fn, pop
// it, and flush the sync callback queue if the context is now empty.
// Nesting is a no-op with respect to flush timing — only the
// outermost call triggers a flush.
func (rc *RenderContext) batchedUpdates(fn func()) {
	prev := rc.ExecutionContext
	rc.ExecutionContext |= CtxBatched
	defer rc.popContextAndMaybeFlush(prev)
	fn()
}

// discreteUpdates pushes CtxDiscreteEvent|CtxEvent for updates that
// originate from a discrete user interaction (click, keydown).
func (rc *RenderContext) discreteUpdates(fn func()) {
	prev := rc.ExecutionContext
	rc.ExecutionContext |= CtxDiscreteEvent | CtxEvent
	defer rc.popContextAndMaybeFlush(prev)
	fn()
}

// batchedEventUpdates pushes CtxEvent for updates originating from a
// continuous (non-discrete) event.
func (rc *RenderContext) batchedEventUpdates(fn func()) {
	prev := rc.ExecutionContext
	rc.ExecutionContext |= CtxEvent
	defer rc.popContextAndMaybeFlush(prev)
	fn()
}

// unbatchedUpdates pushes CtxLegacyUnbatched, used by the legacy
// synchronous mount path so its updates render inline instead of
// being deferred to a scheduled callback.
func (rc *RenderContext) unbatchedUpdates(fn func()) {
	prev := rc.ExecutionContext
	rc.ExecutionContext = (prev &^ CtxBatched) | CtxLegacyUnbatched
	defer rc.popContextAndMaybeFlush(prev)
	fn()
}

// flushSync runs fn under CtxBatched and flushes the sync queue
// immediately afterward, refusing (returning the sentinel error
// plainly, not panicking) if already inside Render or Commit context.
func (rc *RenderContext) flushSync(fn func()) error {
	if rc.ExecutionContext&(CtxRender|CtxCommit) != 0 {
		return ErrFlushSyncInRenderContext
	}
	prev := rc.ExecutionContext
	rc.ExecutionContext |= CtxBatched
	defer func() {
		rc.ExecutionContext = prev
		rc.flushSyncCallbackQueue()
		if rc.ExecutionContext == CtxNone {
			rc.currentEventTime = time.Time{}
		}
	}()
	fn()
	return nil
}

// flushControlled runs fn (a controlled-input event handler) under
// CtxBatched without forcing an immediate flush, mirroring the
// teacher's "run under the same context bit, let the outer batch
// decide when to settle" shape.
func (rc *RenderContext) flushControlled(fn func()) {
	prev := rc.ExecutionContext
	rc.ExecutionContext |= CtxBatched
	defer func() { rc.ExecutionContext = prev }()
	fn()
}

// popContextAndMaybeFlush restores the execution context to prev and,
// if that leaves it at CtxNone, flushes the synchronous callback
// queue — the "only the outermost call flushes" rule.
func (rc *RenderContext) popContextAndMaybeFlush(prev ExecCtx) {
	rc.ExecutionContext = prev
	if rc.ExecutionContext == CtxNone {
		rc.flushSyncCallbackQueue()
		rc.currentEventTime = time.Time{}
	}
}

// flushSyncCallbackQueue runs and drains every callback queued by
// ensureRootIsScheduled's sync-lane branch, in FIFO order. Callbacks
// queued by a callback running mid-flush are picked up by the same
// loop rather than left for a later call.
func (rc *RenderContext) flushSyncCallbackQueue() {
	for len(rc.syncCallbackQueue) > 0 {
		queue := rc.syncCallbackQueue
		rc.syncCallbackQueue = nil
		for _, cb := range queue {
			cb()
		}
	}
}

// flushDiscreteUpdates promotes every root recorded as having pending
// discrete updates to a synchronous render, then clears the set.
func (rc *RenderContext) flushDiscreteUpdates() {
	if len(rc.rootsWithPendingDiscreteUpdates) == 0 {
		return
	}
	roots := rc.rootsWithPendingDiscreteUpdates
	rc.rootsWithPendingDiscreteUpdates = make(map[*FiberRoot]bool)
	for root := range roots {
		root.MarkRootExpired(root.PendingLanes & lane.InputDiscreteLanes)
		rc.ensureRootIsScheduled(root)
	}
}

// scheduleUpdateOnFiber implements spec §4.G: the single path by
// which an update on any fiber becomes scheduled work on its root.
func (rc *RenderContext) scheduleUpdateOnFiber(root *FiberRoot, fiberRef fiber.Ref, l lane.Lane, eventTime time.Time) error {
	if err := rc.checkNestedUpdateBudget(root); err != nil {
		return err
	}

	foundRoot := rc.markUpdateLaneFromFiberToRoot(root, fiberRef, l, eventTime)
	if foundRoot == nil {
		rc.Log.Warn("update scheduled on unmounted fiber", "fiber", fiberRef, "lane", l)
		return ErrRootUnmounted
	}

	if rc.workInProgressRoot == root {
		rc.updatedLanes |= lane.Lanes(l)
		if rc.exitStatus == ExitSuspendedWithDelay {
			root.MarkRootSuspended(rc.workInProgressRootRenderLanes)
		}
	}

	if l == lane.SyncLane && rc.ExecutionContext&CtxLegacyUnbatched != 0 && rc.ExecutionContext&(CtxRender|CtxCommit) == 0 {
		rc.performSyncWorkOnRoot(root)
		return nil
	}

	rc.ensureRootIsScheduled(root)
	if rc.ExecutionContext == CtxNone {
		rc.flushSyncCallbackQueue()
	}

	if l != lane.SyncLane && rc.ExecutionContext&CtxDiscreteEvent != 0 &&
		lane.SchedulerPriorityForLanes(lane.Lanes(l)) == lane.PriorityUserBlocking {
		if rc.rootsWithPendingDiscreteUpdates == nil {
			rc.rootsWithPendingDiscreteUpdates = make(map[*FiberRoot]bool)
		}
		rc.rootsWithPendingDiscreteUpdates[root] = true
	}
	return nil
}

// markUpdateLaneFromFiberToRoot ORs l into childLanes walking from
// fiberRef up to the HostRoot (and its alternate, at each step),
// returning the root fiber reached or nil if the walk fell off the
// top without finding one (the fiber was unmounted).
func (rc *RenderContext) markUpdateLaneFromFiberToRoot(root *FiberRoot, fiberRef fiber.Ref, l lane.Lane, eventTime time.Time) *FiberRoot {
	t := root.Tree
	node := t.Get(fiberRef)
	node.Lanes |= lane.Lanes(l)
	if alt := t.Get(node.Alternate); alt != nil {
		alt.Lanes |= lane.Lanes(l)
	}

	parent := node.Return
	cur := fiberRef
	for parent != fiber.NilRef {
		p := t.Get(parent)
		p.ChildLanes |= lane.Lanes(l)
		if alt := t.Get(p.Alternate); alt != nil {
			alt.ChildLanes |= lane.Lanes(l)
		}
		cur = parent
		parent = p.Return
	}

	if t.Get(cur).Tag != fiber.TagHostRoot {
		return nil
	}

	root.MarkRootUpdated(l, eventTime)
	return root
}

// checkNestedUpdateBudget implements the NestedUpdateOverflow guard:
// cascading synchronous renders on the same root beyond the
// configured limit are a bug in the component tree, not a condition
// to silently tolerate.
func (rc *RenderContext) checkNestedUpdateBudget(root *FiberRoot) error {
	if rc.nestedUpdateRoot != root {
		rc.nestedUpdateRoot = root
		rc.nestedUpdateCount = 0
		return nil
	}
	rc.nestedUpdateCount++
	if rc.nestedUpdateCount > rc.Config.NestedUpdateLimit {
		return ErrNestedUpdateOverflow
	}
	return nil
}
