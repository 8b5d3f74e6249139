package fiber

import "testing"

func TestCreateWorkInProgressFirstRenderAllocatesAlternate(t *testing.T) {
	tr := NewTree()
	root := tr.NewFiber(TagHostRoot, nil, "", 0)
	tr.Get(root).MemoizedProps = "v1"

	wip := tr.CreateWorkInProgress(root, "v2")
	if wip == root {
		t.Fatal("CreateWorkInProgress returned the same ref as current")
	}
	if !tr.CheckDoubleBuffer(root) {
		t.Fatal("CheckDoubleBuffer(root) failed after first alternate allocation")
	}
	if tr.Get(wip).PendingProps != "v2" {
		t.Errorf("wip.PendingProps = %v, want v2", tr.Get(wip).PendingProps)
	}
	if tr.Get(root).MemoizedProps != "v1" {
		t.Errorf("current was mutated: MemoizedProps = %v, want v1", tr.Get(root).MemoizedProps)
	}
}

func TestCreateWorkInProgressReusesAlternateOnSecondRender(t *testing.T) {
	tr := NewTree()
	root := tr.NewFiber(TagHostRoot, nil, "", 0)
	wip1 := tr.CreateWorkInProgress(root, "v2")
	tr.Get(wip1).EffectTag = EffectPlacement
	tr.Get(wip1).FirstEffect = 999

	// Simulate a commit: current becomes what wip1 was.
	current := wip1

	wip2 := tr.CreateWorkInProgress(current, "v3")
	if wip2 != root {
		t.Fatalf("CreateWorkInProgress did not reuse the original slot: wip2=%d root=%d", wip2, root)
	}
	w := tr.Get(wip2)
	if w.EffectTag != EffectNone {
		t.Errorf("reused alternate's EffectTag = %v, want EffectNone", w.EffectTag)
	}
	if w.FirstEffect != NilRef {
		t.Errorf("reused alternate's FirstEffect = %d, want NilRef", w.FirstEffect)
	}
	if w.PendingProps != "v3" {
		t.Errorf("PendingProps = %v, want v3", w.PendingProps)
	}
	if !tr.CheckDoubleBuffer(current) {
		t.Fatal("CheckDoubleBuffer failed after reuse")
	}
}

func TestEffectPerformedWorkIsLowestBit(t *testing.T) {
	if EffectPerformedWork != 1 {
		t.Fatalf("EffectPerformedWork = %d, want 1 (must be the lowest real bit)", EffectPerformedWork)
	}
	if EffectPlacement <= EffectPerformedWork {
		t.Fatalf("EffectPlacement (%d) must exceed EffectPerformedWork (%d)", EffectPlacement, EffectPerformedWork)
	}
	onlyPerformedWork := EffectPerformedWork
	if onlyPerformedWork > EffectPerformedWork {
		t.Fatal("a fiber with only EffectPerformedWork set must not exceed EffectPerformedWork")
	}
	withHostEffect := EffectPerformedWork | EffectUpdate
	if !(withHostEffect > EffectPerformedWork) {
		t.Fatal("a fiber with a real host effect set must exceed EffectPerformedWork")
	}
}

func TestAppendEffectAndAppendChildEffectsOrder(t *testing.T) {
	tr := NewTree()
	a := tr.NewFiber(TagHostComponent, nil, "", 0)
	b := tr.NewFiber(TagHostComponent, nil, "", 0)
	c := tr.NewFiber(TagHostComponent, nil, "", 0)

	var childFirst, childLast Ref
	tr.AppendEffect(&childFirst, &childLast, a)
	tr.AppendEffect(&childFirst, &childLast, b)

	var parentFirst, parentLast Ref
	tr.AppendChildEffects(&parentFirst, &parentLast, childFirst, childLast)
	tr.AppendEffect(&parentFirst, &parentLast, c)

	var got []Ref
	for r := parentFirst; r != NilRef; r = tr.Get(r).NextEffect {
		got = append(got, r)
	}
	want := []Ref{a, b, c}
	if len(got) != len(want) {
		t.Fatalf("effect list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("effect list = %v, want %v", got, want)
		}
	}
}

func TestRecomputeChildLanesUnionsChildAndGrandchildLanes(t *testing.T) {
	tr := NewTree()
	parent := tr.NewFiber(TagHostComponent, nil, "", 0)
	c1 := tr.NewFiber(TagHostComponent, nil, "", 0)
	c2 := tr.NewFiber(TagHostComponent, nil, "", 0)
	tr.Get(parent).Child = c1
	tr.Get(c1).Sibling = c2
	tr.Get(c1).Lanes = 0b0001
	tr.Get(c2).ChildLanes = 0b0010

	got := tr.RecomputeChildLanes(parent)
	if got != 0b0011 {
		t.Fatalf("RecomputeChildLanes = %b, want %b", got, 0b0011)
	}
	if tr.Get(parent).ChildLanes != got {
		t.Fatal("RecomputeChildLanes did not store its result on parent")
	}
}

func TestReleaseReturnsSlotToFreeList(t *testing.T) {
	tr := NewTree()
	a := tr.NewFiber(TagHostText, nil, "", 0)
	tr.Get(a).PendingProps = "x"
	tr.Release(a)

	b := tr.NewFiber(TagHostText, nil, "", 0)
	if b != a {
		t.Fatalf("NewFiber after Release got ref %d, want reused ref %d", b, a)
	}
	if tr.Get(b).PendingProps != nil {
		t.Errorf("reused record carries stale PendingProps %v", tr.Get(b).PendingProps)
	}
}
