package reconciler

import "github.com/loopcraft/reconciler/internal/lane"

// UpdateContainer is the single exported entry point for scheduling
// work on a root, covering both the initial mount and every later
// re-render: it requests a lane for priority against root's current
// pending/rendering state and hands the update to scheduleUpdateOnFiber,
// the root-binding path spec §4.G names as the only way an update
// becomes scheduled work. A *FatalError unwound with no boundary to
// catch it (spec §7) is reported back through the error return instead
// of crashing the caller.
func (rc *RenderContext) UpdateContainer(root *FiberRoot, priority lane.Priority) (err error) {
	defer recoverFatalError(&err)
	mode := root.Tree.Get(root.Current).Mode
	inDiscrete := rc.ExecutionContext&CtxDiscreteEvent != 0
	l := lane.RequestUpdateLane(mode, lane.TransitionConfig{}, priority,
		rc.workInProgressRootRenderLanes, root.PendingLanes, inDiscrete)
	return rc.scheduleUpdateOnFiber(root, root.Current, l, rc.requestEventTime())
}

// FlushSync runs fn (typically one or more UpdateContainer calls) and
// flushes the synchronous callback queue before returning, refusing if
// called while already inside a render or commit pass. Like
// UpdateContainer, a fatal condition discovered while flushing comes
// back as the returned error rather than a panic escaping to fn's
// caller.
func (rc *RenderContext) FlushSync(fn func()) (err error) {
	defer recoverFatalError(&err)
	return rc.flushSync(fn)
}

// FlushPassiveEffects runs any queued passive-effect flush synchronously
// (spec §6's exposed flushPassiveEffects op), returning ErrNoWork if
// none is currently pending.
func (rc *RenderContext) FlushPassiveEffects() (err error) {
	defer recoverFatalError(&err)
	return rc.flushPassiveEffectsImpl()
}

// DiscreteUpdates runs fn under the discrete-event execution context
// (spec §4.G), for host adapters dispatching a click/keypress handler.
func (rc *RenderContext) DiscreteUpdates(fn func()) {
	rc.discreteUpdates(fn)
}
