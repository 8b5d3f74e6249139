package democomp

import (
	"fmt"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/termhost"
	"github.com/loopcraft/reconciler/internal/workhooks"
)

// suspenseState is the MemoizedState payload for a TagSuspenseComponent
// fiber: whether it's currently showing its fallback, and whether
// UnwindWork has already built that fallback subtree this render (so a
// fiber visited twice in one unwind pass doesn't reallocate it).
type suspenseState struct {
	Suspended     bool
	FallbackBuilt bool
	PrimaryChild  fiber.Ref
}

// Hooks implements workhooks.Hooks for the counter-list demo tree:
//
//	root
//	  box "list"
//	    text "counter demo"
//	    suspense
//	      asyncItem(resource) -> text(resource.Value())   [or fallback text "loading…"]
//
// There is no general element type or keyed-diff algorithm here
// (declarative element API design is explicitly out of scope); the
// shape above is built once, directly onto fiber records, the first
// time the root is rendered.
type Hooks struct {
	Resource *AsyncResource

	// OnMount/OnUnmount, if set, are called from the passive-effect
	// commit pass for the async item fiber; cmd/reconcile wires these to
	// its logger.
	OnMount   func(*AsyncResource)
	OnUnmount func(*AsyncResource)
}

// New returns a Hooks wired to a single async resource standing in for
// the suspended leaf of the demo tree.
func New(resource *AsyncResource) *Hooks {
	return &Hooks{Resource: resource}
}

func (h *Hooks) BeginWork(t *fiber.Tree, current, wip fiber.Ref, lanes lane.Lanes) workhooks.BeginResult {
	w := t.Get(wip)
	switch w.Tag {
	case fiber.TagHostRoot:
		if w.Child == fiber.NilRef {
			h.mountInitialTree(t, wip)
		}
		if w.Child == fiber.NilRef {
			return workhooks.BeginResult{Kind: workhooks.Done}
		}
		return workhooks.BeginResult{Kind: workhooks.ContinueWith, Next: w.Child}

	case fiber.TagHostComponent:
		if w.Child == fiber.NilRef {
			return workhooks.BeginResult{Kind: workhooks.Done}
		}
		return workhooks.BeginResult{Kind: workhooks.ContinueWith, Next: w.Child}

	case fiber.TagSuspenseComponent:
		// If UnwindWork previously swapped in the fallback and the
		// resource has since resolved, swap the primary child back in.
		// state is shared with this fiber's alternate (MemoizedState is
		// copied by reference, not deep-cloned), so this mutation is
		// visible from both buffers — acceptable for boundary
		// bookkeeping that carries no host-visible state of its own.
		if state, ok := w.MemoizedState.(*suspenseState); ok && state.Suspended && h.Resource.Ready() {
			state.Suspended = false
			state.FallbackBuilt = false
			w.Child = state.PrimaryChild
		}
		if w.Child == fiber.NilRef {
			return workhooks.BeginResult{Kind: workhooks.Done}
		}
		return workhooks.BeginResult{Kind: workhooks.ContinueWith, Next: w.Child}

	case fiber.TagHostText:
		return workhooks.BeginResult{Kind: workhooks.Done}

	case fiber.TagFunctionComponent:
		res, _ := w.PendingProps.(*AsyncResource)
		if res != nil && !res.Ready() {
			return workhooks.BeginResult{Kind: workhooks.Suspend, Wake: res}
		}
		text := ""
		if res != nil {
			text = res.Value()
		}
		child := w.Child
		if child == fiber.NilRef {
			child = t.NewFiber(fiber.TagHostText, nil, "", w.Mode)
			t.Get(child).Return = wip
			t.Get(wip).Child = child
		}
		t.Get(child).PendingProps = text
		return workhooks.BeginResult{Kind: workhooks.ContinueWith, Next: child}
	}
	return workhooks.BeginResult{Kind: workhooks.Done}
}

// mountInitialTree builds the static demo shape directly onto wip
// (the host root's work-in-progress fiber), never touching current, so
// the first render still respects the double-buffer invariant.
func (h *Hooks) mountInitialTree(t *fiber.Tree, wipRoot fiber.Ref) {
	mode := t.Get(wipRoot).Mode

	box := t.NewFiber(fiber.TagHostComponent, nil, "", mode)
	b := t.Get(box)
	b.Return = wipRoot
	b.PendingProps = "list"
	t.Get(wipRoot).Child = box

	title := t.NewFiber(fiber.TagHostText, nil, "", mode)
	tt := t.Get(title)
	tt.Return = box
	tt.PendingProps = "counter demo"
	t.Get(box).Child = title

	suspense := t.NewFiber(fiber.TagSuspenseComponent, nil, "", mode)
	sp := t.Get(suspense)
	sp.Return = box
	t.Get(title).Sibling = suspense

	item := t.NewFiber(fiber.TagFunctionComponent, nil, "", mode)
	it := t.Get(item)
	it.Return = suspense
	it.PendingProps = h.Resource
	t.Get(suspense).Child = item
}

func (h *Hooks) CompleteWork(t *fiber.Tree, current, wip fiber.Ref, lanes lane.Lanes) error {
	w := t.Get(wip)
	switch w.Tag {
	case fiber.TagHostComponent, fiber.TagHostText:
		text, _ := w.MemoizedProps.(string)
		var curRec *fiber.Record
		if current != fiber.NilRef {
			curRec = t.Get(current)
		}
		// A fiber reused in place (no alternate) already holds the
		// instance committed by an earlier render.
		if curRec == nil && w.StateNode != nil {
			curRec = w
		}
		if curRec == nil || curRec.StateNode == nil {
			inst := &termhost.Instance{Kind: hostKind(w.Tag), Text: text}
			w.StateNode = inst
			w.EffectTag |= fiber.EffectPlacement
		} else {
			w.StateNode = curRec.StateNode
			inst, _ := curRec.StateNode.(*termhost.Instance)
			if inst == nil || inst.Text != text {
				w.EffectTag |= fiber.EffectUpdate
			}
		}

	case fiber.TagFunctionComponent:
		if current == fiber.NilRef || t.Get(current).StateNode == nil {
			w.EffectTag |= fiber.EffectPassive
			w.StateNode = h.Resource
		}
	}
	return nil
}

func hostKind(tag fiber.Tag) string {
	if tag == fiber.TagHostText {
		return "text"
	}
	return "box"
}

// UnwindWork catches suspension only at a TagSuspenseComponent
// boundary: it swaps in a single fallback text fiber and reports
// itself as the new workInProgress so the work loop descends into the
// fallback instead of continuing to unwind. FallbackBuilt guards
// against rebuilding the fallback more than once per boundary per
// render. BeginWork clears it once the resource resolves and the
// primary child is swapped back in, so a boundary that suspends again
// later would build a fresh fallback as expected.
func (h *Hooks) UnwindWork(t *fiber.Tree, wip fiber.Ref, lanes lane.Lanes) fiber.Ref {
	w := t.Get(wip)
	if w.Tag != fiber.TagSuspenseComponent {
		return fiber.NilRef
	}
	state, _ := w.MemoizedState.(*suspenseState)
	if state == nil {
		state = &suspenseState{}
		w.MemoizedState = state
	}
	if state.FallbackBuilt {
		return fiber.NilRef
	}
	state.FallbackBuilt = true
	state.Suspended = true
	state.PrimaryChild = w.Child

	fallback := t.NewFiber(fiber.TagHostText, nil, "", w.Mode)
	fb := t.Get(fallback)
	fb.Return = wip
	fb.PendingProps = "loading…"
	w = t.Get(wip)
	w.Child = fallback
	w.EffectTag &= fiber.HostEffectMask
	return wip
}

func (h *Hooks) UnwindInterruptedWork(t *fiber.Tree, wip fiber.Ref) {
	// No side-stack is pushed during BeginWork in this sample.
}

// ThrowException has no error-boundary component tag to catch against,
// so any thrown error always escalates: handleThrow's recover records
// the resulting panic as the root's fatal error, which the render
// attempt then raises as a *FatalError.
func (h *Hooks) ThrowException(t *fiber.Tree, returnFiber, sourceFiber fiber.Ref, value error, lanes lane.Lanes) {
	panic(fmt.Errorf("democomp: unhandled error from fiber %d: %w", sourceFiber, value))
}

func (h *Hooks) GetSnapshotBeforeUpdate(t *fiber.Tree, ref fiber.Ref) error { return nil }

func (h *Hooks) CommitLayoutEffects(t *fiber.Tree, ref fiber.Ref) error { return nil }

func (h *Hooks) CommitPassiveUnmount(t *fiber.Tree, ref fiber.Ref) error {
	r := t.Get(ref)
	if res, ok := r.StateNode.(*AsyncResource); ok {
		h.onUnmount(res)
	}
	return nil
}

func (h *Hooks) CommitPassiveMount(t *fiber.Tree, ref fiber.Ref) error {
	r := t.Get(ref)
	if res, ok := r.StateNode.(*AsyncResource); ok {
		h.onMount(res)
	}
	return nil
}

// onMount/onUnmount are overridable hooks (default no-op) so cmd/reconcile
// and tests can observe the passive-effect pass without this package
// importing a logger of its own.
var (
	defaultOnMount   = func(*AsyncResource) {}
	defaultOnUnmount = func(*AsyncResource) {}
)

func (h *Hooks) onMount(res *AsyncResource) {
	if h.OnMount != nil {
		h.OnMount(res)
		return
	}
	defaultOnMount(res)
}

func (h *Hooks) onUnmount(res *AsyncResource) {
	if h.OnUnmount != nil {
		h.OnUnmount(res)
		return
	}
	defaultOnUnmount(res)
}
