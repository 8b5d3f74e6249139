// Package fiber implements the reconciliation tree's data model: an
// arena of fiber records addressed by index (not pointer), so that the
// naturally cyclic return/child/sibling/alternate graph never needs
// reference counting or a garbage-collector-defeating web of pointers
// (spec §9's re-architecture note). Tag-specific behavior (begin/
// complete dispatch) lives outside this package, in workhooks.
package fiber

import "github.com/loopcraft/reconciler/internal/lane"

// Ref is a 1-based index into a Tree's arena. The zero Ref is the nil
// fiber reference.
type Ref uint32

// NilRef is the zero value, meaning "no fiber".
const NilRef Ref = 0

// Tag identifies a fiber's variant, per spec §3.
type Tag int

const (
	TagHostRoot Tag = iota
	TagClassComponent
	TagFunctionComponent
	TagSuspenseComponent
	TagSuspenseListComponent
	TagOffscreenComponent
	TagForwardRef
	TagMemoComponent
	TagBlock
	TagHostComponent
	TagHostText
)

// EffectTag is a bitmask over the side-effect kinds a fiber may carry
// into the commit phase.
type EffectTag uint32

const EffectNone EffectTag = 0

// EffectPerformedWork must be the lowest-valued real bit: the commit
// pipeline's effect-list append test is "effectTag > EffectPerformedWork",
// which only holds once some other bit (numerically larger) is also
// set, letting a fiber that merely "did work" with no host-visible
// effect skip the effect list entirely.
const (
	EffectPerformedWork EffectTag = 1 << iota
	EffectPlacement
	EffectUpdate
	EffectDeletion
	EffectRef
	EffectContentReset
	EffectSnapshot
	EffectCallback
	EffectPassive
	EffectHydrating
	EffectIncomplete
)

// Has reports whether tag contains every bit in mask.
func (tag EffectTag) Has(mask EffectTag) bool { return tag&mask == mask }

// Any reports whether tag contains at least one bit of mask.
func (tag EffectTag) Any(mask EffectTag) bool { return tag&mask != 0 }

// HostEffectMask is the subset of effect bits unwindWork is allowed to
// keep on a boundary fiber that caught an error (spec §4.D: "mask its
// effectTag to host-only bits").
const HostEffectMask = EffectPlacement | EffectUpdate | EffectDeletion | EffectRef | EffectContentReset | EffectHydrating

// Mode is re-exported from lane so callers of fiber don't need to
// import lane just to read a fiber's mode bits.
type Mode = lane.Mode

// Record is a single fiber node, stored by value inside a Tree's
// arena. All tree links are Refs into the owning Tree, not pointers.
type Record struct {
	Tag  Tag
	Type any
	Key  string

	Return  Ref
	Child   Ref
	Sibling Ref
	// Alternate references the paired fiber in the other buffer. It may
	// be NilRef before the first render of this slot.
	Alternate Ref

	Lanes      lane.Lanes
	ChildLanes lane.Lanes

	EffectTag EffectTag
	// FirstEffect/LastEffect/NextEffect form the intrusive singly-linked
	// effect list built during the complete phase (spec invariant 4:
	// visited exactly once per commit, in completion order).
	FirstEffect Ref
	LastEffect  Ref
	NextEffect  Ref

	PendingProps  any
	MemoizedProps any
	MemoizedState any
	UpdateQueue   any

	Mode Mode

	// StateNode is host-instance or bookkeeping payload; opaque to this
	// package.
	StateNode any

	// ActualDuration is profiler scratch, reset by CreateWorkInProgress;
	// the reconciler core only writes it when profiling is requested by
	// the embedder (out of scope here — field kept so Tag dispatch code
	// can record it without this package knowing what profiling means).
	ActualDuration int64

	// inUse marks whether this arena slot holds a live record. Slots
	// whose record is no longer reachable from root.Current or
	// root.WorkInProgress are eligible for reuse by NewFiber.
	inUse bool
}

// Tree owns an arena of fiber records for a single FiberRoot. Index 0
// is reserved (NilRef); live fibers start at index 1.
type Tree struct {
	records []Record
	free    []Ref
}

// NewTree returns an empty Tree.
func NewTree() *Tree {
	return &Tree{records: make([]Record, 1)} // slot 0 reserved for NilRef
}

// Get returns a pointer to the record at ref. Callers must not retain
// this pointer across a call that may grow t.records (NewFiber); reread
// via Get instead.
func (t *Tree) Get(ref Ref) *Record {
	if ref == NilRef {
		return nil
	}
	return &t.records[ref]
}

// NewFiber allocates a fresh record (reusing a freed slot if one is
// available) and returns its Ref.
func (t *Tree) NewFiber(tag Tag, typ any, key string, mode Mode) Ref {
	var ref Ref
	if n := len(t.free); n > 0 {
		ref = t.free[n-1]
		t.free = t.free[:n-1]
		t.records[ref] = Record{}
	} else {
		t.records = append(t.records, Record{})
		ref = Ref(len(t.records) - 1)
	}
	r := &t.records[ref]
	r.Tag = tag
	r.Type = typ
	r.Key = key
	r.Mode = mode
	r.inUse = true
	return ref
}

// Release returns ref's slot to the free list. The caller is
// responsible for ensuring no live Ref still points at it (neither
// root.Current nor root.WorkInProgress nor any alternate link).
func (t *Tree) Release(ref Ref) {
	if ref == NilRef {
		return
	}
	t.records[ref] = Record{}
	t.free = append(t.free, ref)
}

// CreateWorkInProgress implements spec §4.C: if current has no
// alternate, allocate one and link them mutually; otherwise reuse the
// existing alternate, resetting its effect state. current is never
// mutated by this call.
func (t *Tree) CreateWorkInProgress(current Ref, pendingProps any) Ref {
	cur := t.Get(current)
	if cur.Alternate == NilRef {
		wip := t.NewFiber(cur.Tag, cur.Type, cur.Key, cur.Mode)
		w := t.Get(wip)
		w.Alternate = current
		w.Return = cur.Return
		w.Child = cur.Child
		w.Sibling = cur.Sibling
		w.Lanes = cur.Lanes
		w.ChildLanes = cur.ChildLanes
		w.PendingProps = pendingProps
		w.MemoizedProps = cur.MemoizedProps
		w.MemoizedState = cur.MemoizedState
		w.UpdateQueue = cur.UpdateQueue
		w.StateNode = cur.StateNode

		t.Get(current).Alternate = wip
		return wip
	}

	wip := cur.Alternate
	w := t.Get(wip)
	w.PendingProps = pendingProps
	w.EffectTag = EffectNone
	w.NextEffect = NilRef
	w.FirstEffect = NilRef
	w.LastEffect = NilRef
	w.ActualDuration = 0

	w.Type = cur.Type
	w.Lanes = cur.Lanes
	w.ChildLanes = cur.ChildLanes
	w.Child = cur.Child
	w.Sibling = cur.Sibling
	w.Return = cur.Return
	w.MemoizedProps = cur.MemoizedProps
	w.MemoizedState = cur.MemoizedState
	w.UpdateQueue = cur.UpdateQueue
	w.StateNode = cur.StateNode
	return wip
}

// CheckDoubleBuffer validates invariant 3: alternate.alternate == self
// whenever alternate is non-null. It's exposed for tests, not called
// on the hot path.
func (t *Tree) CheckDoubleBuffer(ref Ref) bool {
	r := t.Get(ref)
	if r.Alternate == NilRef {
		return true
	}
	alt := t.Get(r.Alternate)
	return alt.Alternate == ref
}

// RecomputeChildLanes folds spec invariant 2: childLanes[n] becomes the
// union of lanes[c] | childLanes[c] over n's children. Call at the end
// of a fiber's complete phase once its children have all completed.
func (t *Tree) RecomputeChildLanes(parent Ref) lane.Lanes {
	var acc lane.Lanes
	child := t.Get(parent).Child
	for child != NilRef {
		c := t.Get(child)
		acc |= c.Lanes | c.ChildLanes
		child = c.Sibling
	}
	t.Get(parent).ChildLanes = acc
	return acc
}

// AppendEffect appends ref to the tail of the effect list rooted at
// *firstEffect/*lastEffect, maintaining spec invariant 4 (each
// effectful fiber visited exactly once, in completion order).
func (t *Tree) AppendEffect(firstEffect, lastEffect *Ref, ref Ref) {
	if *firstEffect == NilRef {
		*firstEffect = ref
	} else {
		t.Get(*lastEffect).NextEffect = ref
	}
	*lastEffect = ref
}

// AppendChildEffects splices child's effect list onto the end of
// parent's accumulated effect list (first, last), used by
// completeUnitOfWork when a fiber completes and must fold its
// subtree's effects into its parent's running list.
func (t *Tree) AppendChildEffects(first, last *Ref, childFirst, childLast Ref) {
	if childFirst == NilRef {
		return
	}
	if *first == NilRef {
		*first = childFirst
	} else {
		t.Get(*last).NextEffect = childFirst
	}
	*last = childLast
}
