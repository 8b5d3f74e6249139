package reconciler

import (
	"errors"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/hostapi"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/schedapi"
)

// commitRoot runs commitRootImpl at Immediate scheduler priority, the
// only priority commit is ever allowed to run at (spec §4.F).
func (rc *RenderContext) commitRoot(root *FiberRoot) {
	rc.Scheduler.Schedule(schedapi.Immediate, func() {
		rc.commitRootImpl(root)
	})
}

// commitRootImpl performs the 17 ordered steps of spec §4.F.
func (rc *RenderContext) commitRootImpl(root *FiberRoot) {
	// Step 1: drain any outstanding passive effects first.
	for rc.rootWithPendingPassiveEffects != nil {
		pending := rc.rootWithPendingPassiveEffects
		if err := rc.flushPassiveEffectsImpl(); err != nil {
			panic(&FatalError{Root: pending, Err: err})
		}
	}

	// Step 2: invariant check.
	if rc.ExecutionContext&(CtxRender|CtxCommit) != 0 {
		rc.Log.Warn("commitRootImpl called while already rendering or committing")
		return
	}

	// Step 3.
	finishedWork := root.FinishedWork
	finishedLanes := root.FinishedLanes
	if finishedWork == fiber.NilRef {
		return
	}
	root.FinishedWork = fiber.NilRef
	root.FinishedLanes = lane.NoLanes
	root.CallbackNode = nil
	root.CallbackLanes = lane.NoLanes

	t := root.Tree
	fw := t.Get(finishedWork)

	// Step 4. Lanes marked suspended in this attempt stay pending (and
	// suspended) through a fallback commit, so a later ping can re-render
	// them.
	root.MarkRootFinished(fw.Lanes | fw.ChildLanes | root.SuspendedLanes)

	// Step 5.
	if rc.workInProgressRoot == root {
		rc.workInProgressRoot = nil
		rc.workInProgress = fiber.NilRef
		rc.workInProgressRootRenderLanes = lane.NoLanes
	}

	prevCtx := rc.ExecutionContext
	rc.ExecutionContext |= CtxCommit
	defer func() { rc.ExecutionContext = prevCtx }()

	// Step 6: build the root effect list (append finishedWork itself if
	// it has a non-trivial effect tag).
	first, last := fw.FirstEffect, fw.LastEffect
	if fw.EffectTag > fiber.EffectPerformedWork {
		t.AppendEffect(&first, &last, finishedWork)
	}
	fw.FirstEffect, fw.LastEffect = first, last

	// Step 7: before-mutation phase.
	scheduledPassiveFlush := false
	for e := first; e != fiber.NilRef; e = t.Get(e).NextEffect {
		ef := t.Get(e)
		if ef.EffectTag.Has(fiber.EffectSnapshot) {
			if err := guardedCall(PhaseBeforeMutation, e, func() error {
				return rc.Hooks.GetSnapshotBeforeUpdate(t, e)
			}); err != nil {
				rc.captureCommitPhaseErrorOnRoot(root, e, err)
			}
		}
		if !scheduledPassiveFlush && ef.EffectTag.Has(fiber.EffectPassive) {
			scheduledPassiveFlush = true
			rc.Scheduler.Schedule(schedapi.Normal, func() {
				// ErrNoWork is an expected race: step 1's drain loop on a
				// later commit may have already flushed this root's
				// passive effects before this separately-scheduled task
				// runs. Only a real overflow is fatal.
				if err := rc.flushPassiveEffectsImpl(); err != nil && !errors.Is(err, ErrNoWork) {
					panic(&FatalError{Root: root, Err: err})
				}
			})
		}
	}

	// Step 8.
	rc.Host.PrepareForCommit(root.Container)

	// Step 9: mutation phase.
	for e := first; e != fiber.NilRef; e = t.Get(e).NextEffect {
		if err := guardedCall(PhaseMutation, e, func() error {
			return rc.commitMutationEffect(root, e)
		}); err != nil {
			rc.captureCommitPhaseErrorOnRoot(root, e, err)
		}
	}

	// Step 10: buffer swap.
	root.Current = finishedWork

	// Step 11.
	rc.Host.ResetAfterCommit(root.Container)

	// Step 12: layout phase.
	for e := first; e != fiber.NilRef; e = t.Get(e).NextEffect {
		ef := t.Get(e)
		if ef.EffectTag.Any(fiber.EffectUpdate | fiber.EffectCallback | fiber.EffectRef) {
			if err := guardedCall(PhaseLayout, e, func() error {
				return rc.Hooks.CommitLayoutEffects(t, e)
			}); err != nil {
				rc.captureCommitPhaseErrorOnRoot(root, e, err)
			}
		}
	}

	// Step 13.
	rc.Scheduler.RequestPaint()

	// Step 14.
	if scheduledPassiveFlush {
		rc.rootWithPendingPassiveEffects = root
		rc.pendingPassiveEffectsLanes = finishedLanes
	} else {
		for e := first; e != fiber.NilRef; {
			next := t.Get(e).NextEffect
			t.Get(e).NextEffect = fiber.NilRef
			e = next
		}
		fw.FirstEffect, fw.LastEffect = fiber.NilRef, fiber.NilRef
	}

	// Step 15.
	if root.PendingLanes != lane.NoLanes {
		rc.ensureRootIsScheduled(root)
	} else {
		rc.legacyErrorBoundariesThatAlreadyFailed = make(map[fiber.Ref]bool)
	}

	// Step 16: nested-update guard. A root stuck re-scheduling itself at
	// Sync priority forever without ever draining is a bug in the
	// component tree, not a condition to commit through silently, so it
	// escapes commitRootImpl the same way an uncaught boundary failure
	// does (spec §7's FatalError).
	if root.PendingLanes == lane.Lanes(lane.SyncLane) && rc.nestedUpdateRoot == root {
		root.consecutiveSyncCommits++
		if root.consecutiveSyncCommits > rc.Config.NestedUpdateLimit {
			root.consecutiveSyncCommits = 0
			panic(&FatalError{Root: root, Err: ErrNestedUpdateOverflow})
		}
	} else {
		root.consecutiveSyncCommits = 0
	}

	root.fallbackCommitTime = rc.now()

	// Step 17: flush the sync callback queue, unless this commit
	// happened inside a legacy-unbatched mount.
	if rc.ExecutionContext&CtxLegacyUnbatched == 0 {
		rc.flushSyncCallbackQueue()
	}
}

// commitMutationEffect dispatches a single effect-list entry's
// primary effect-tag subset onto host mutations (spec §4.F step 9).
// Detached refs are blurred before any deletion is applied.
func (rc *RenderContext) commitMutationEffect(root *FiberRoot, ref fiber.Ref) error {
	t := root.Tree
	f := t.Get(ref)
	tag := f.EffectTag

	if tag.Has(fiber.EffectDeletion) && f.StateNode != nil {
		rc.Host.BeforeActiveInstanceBlur()
	}

	if tag.Has(fiber.EffectContentReset) {
		if err := rc.Host.ApplyMutation(hostapi.Mutation{Kind: hostapi.MutationContentReset, Instance: f.StateNode}); err != nil {
			return err
		}
	}
	if tag.Has(fiber.EffectPlacement) {
		var parent any
		if p := t.Get(f.Return); p != nil {
			parent = p.StateNode
		}
		if err := rc.Host.ApplyMutation(hostapi.Mutation{Kind: hostapi.MutationPlacement, Instance: f.StateNode, Parent: parent}); err != nil {
			return err
		}
	}
	if tag.Has(fiber.EffectUpdate) {
		if err := rc.Host.ApplyMutation(hostapi.Mutation{Kind: hostapi.MutationUpdate, Instance: f.StateNode, Props: f.MemoizedProps}); err != nil {
			return err
		}
	}
	if tag.Has(fiber.EffectHydrating) {
		if err := rc.Host.ApplyMutation(hostapi.Mutation{Kind: hostapi.MutationHydrate, Instance: f.StateNode}); err != nil {
			return err
		}
	}
	if tag.Has(fiber.EffectDeletion) {
		if err := rc.Host.ApplyMutation(hostapi.Mutation{Kind: hostapi.MutationDeletion, Instance: f.StateNode}); err != nil {
			return err
		}
		rc.Host.AfterActiveInstanceBlur()
	}
	return nil
}

// flushPassiveEffectsImpl runs in the Commit execution context at a
// priority <= Normal (spec §4.F): every queued destroy in commit
// order, then every queued create, then resets the queues and flushes
// any sync callbacks the effects themselves scheduled. Returns
// ErrNoWork if nothing was pending, or ErrNestedPassiveOverflow if this
// root has cascaded into another passive round beyond the configured
// limit (spec §6's NESTED_PASSIVE_UPDATE_LIMIT) without ever settling.
func (rc *RenderContext) flushPassiveEffectsImpl() error {
	root := rc.rootWithPendingPassiveEffects
	if root == nil {
		return ErrNoWork
	}
	rc.rootWithPendingPassiveEffects = nil
	rc.pendingPassiveEffectsLanes = lane.NoLanes

	prevCtx := rc.ExecutionContext
	rc.ExecutionContext |= CtxCommit
	defer func() { rc.ExecutionContext = prevCtx }()

	t := root.Tree
	first := t.Get(root.Current).FirstEffect

	for e := first; e != fiber.NilRef; e = t.Get(e).NextEffect {
		if t.Get(e).EffectTag.Has(fiber.EffectPassive) {
			if err := guardedCall(PhasePassiveEffects, e, func() error {
				return rc.Hooks.CommitPassiveUnmount(t, e)
			}); err != nil {
				rc.captureCommitPhaseErrorOnRoot(root, e, err)
			}
		}
	}
	for e := first; e != fiber.NilRef; e = t.Get(e).NextEffect {
		if t.Get(e).EffectTag.Has(fiber.EffectPassive) {
			if err := guardedCall(PhasePassiveEffects, e, func() error {
				return rc.Hooks.CommitPassiveMount(t, e)
			}); err != nil {
				rc.captureCommitPhaseErrorOnRoot(root, e, err)
			}
		}
	}

	for e := first; e != fiber.NilRef; {
		next := t.Get(e).NextEffect
		t.Get(e).NextEffect = fiber.NilRef
		e = next
	}
	t.Get(root.Current).FirstEffect, t.Get(root.Current).LastEffect = fiber.NilRef, fiber.NilRef

	root.consecutivePassiveRounds++
	if root.consecutivePassiveRounds > rc.Config.NestedPassiveUpdateLimit {
		rc.Log.Warn("cascading passive effect round on same root", "round", root.consecutivePassiveRounds)
		root.consecutivePassiveRounds = 0
		return ErrNestedPassiveOverflow
	}

	rc.flushSyncCallbackQueue()
	return nil
}
