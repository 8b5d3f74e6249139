package lane

import (
	"testing"
	"time"
)

func TestMarkRootUpdatedSupersedesLowerSuspensions(t *testing.T) {
	s := NewRootState()
	s.MarkRootSuspended(Lanes(Highest(DefaultLanes)))
	if s.SuspendedLanes == NoLanes {
		t.Fatal("expected DefaultLanes to be suspended")
	}

	// A higher-priority update (InputDiscrete) should clear the lower
	// priority suspension.
	s.MarkRootUpdated(Highest(InputDiscreteLanes), time.Now())

	if s.SuspendedLanes&Lanes(Highest(DefaultLanes)) != 0 {
		t.Fatalf("expected DefaultLanes suspension cleared by higher priority update, got %#x", s.SuspendedLanes)
	}
}

func TestMarkRootFinishedClearsOnlyFinishedLanes(t *testing.T) {
	s := NewRootState()
	u1 := Highest(InputContinuousLanes)
	u2 := Highest(InputDiscreteLanes)
	s.MarkRootUpdated(u1, time.Now())
	s.MarkRootUpdated(u2, time.Now())

	// Commit u2 only; u1 remains pending (scenario 1 in spec §8).
	s.MarkRootFinished(Lanes(u1))

	if s.PendingLanes&Lanes(u2) != 0 {
		t.Fatalf("expected u2 cleared from pendingLanes, got %#x", s.PendingLanes)
	}
	if s.PendingLanes&Lanes(u1) == 0 {
		t.Fatalf("expected u1 to remain pending, got %#x", s.PendingLanes)
	}
}

func TestGetNextLanesPrefersHighestUnsuspended(t *testing.T) {
	s := NewRootState()
	s.MarkRootUpdated(Highest(InputContinuousLanes), time.Now())
	s.MarkRootUpdated(Highest(InputDiscreteLanes), time.Now())

	next := s.GetNextLanes(NoLanes)
	if next != Lanes(Highest(InputDiscreteLanes)) {
		t.Fatalf("expected InputDiscrete lane to win, got %#x", next)
	}
}

func TestGetNextLanesPingedEligibleWhenAllSuspended(t *testing.T) {
	s := NewRootState()
	l := Highest(TransitionShortLanes)
	s.MarkRootUpdated(l, time.Now())
	s.MarkRootSuspended(Lanes(l))

	if next := s.GetNextLanes(NoLanes); next != NoLanes {
		t.Fatalf("expected no next lanes while suspended and not pinged, got %#x", next)
	}

	s.MarkRootPinged(Lanes(l))
	if next := s.GetNextLanes(NoLanes); next != Lanes(l) {
		t.Fatalf("expected pinged lane to be selected, got %#x", next)
	}
}

func TestGetNextLanesContinuesRenderingLanes(t *testing.T) {
	s := NewRootState()
	rendering := Highest(DefaultLanes)
	s.MarkRootUpdated(rendering, time.Now())

	next := s.GetNextLanes(Lanes(rendering))
	if next != Lanes(rendering) {
		t.Fatalf("expected rendering lanes to continue, got %#x", next)
	}
}

func TestFindTransitionLaneDistributesAcrossBits(t *testing.T) {
	first := FindTransitionLane(NoLanes, NoLanes)
	second := FindTransitionLane(Lanes(first), NoLanes)
	if first == second {
		t.Fatalf("expected distinct transition lanes, got %#x twice", first)
	}
	if !Lanes(first).IsSubset(TransitionLanes) || !Lanes(second).IsSubset(TransitionLanes) {
		t.Fatalf("expected both lanes within TransitionLanes class")
	}
}

func TestFindTransitionLaneCoalescesWhenClassFull(t *testing.T) {
	lowest := Highest(TransitionLanes)
	got := FindTransitionLane(TransitionLanes, NoLanes)
	if got != lowest {
		t.Fatalf("expected coalesce onto lowest transition bit %#x, got %#x", lowest, got)
	}
}

func TestRequestUpdateLaneNonConcurrentMode(t *testing.T) {
	if l := RequestUpdateLane(0, TransitionConfig{}, PriorityImmediate, NoLanes, NoLanes, false); l != SyncLane {
		t.Fatalf("expected SyncLane for non-concurrent immediate, got %#x", l)
	}
	if l := RequestUpdateLane(0, TransitionConfig{}, PriorityNormal, NoLanes, NoLanes, false); l != Lane(SyncBatchedLanes) {
		t.Fatalf("expected SyncBatched lane for non-concurrent normal, got %#x", l)
	}
}

func TestRequestUpdateLaneBlockingModeAlwaysSync(t *testing.T) {
	mode := ModeConcurrent | ModeBlocking
	if l := RequestUpdateLane(mode, TransitionConfig{}, PriorityNormal, NoLanes, NoLanes, false); l != SyncLane {
		t.Fatalf("expected SyncLane for blocking mode, got %#x", l)
	}
}

func TestRequestUpdateLaneTransitionTimeoutClass(t *testing.T) {
	mode := ModeConcurrent
	short := RequestUpdateLane(mode, TransitionConfig{Present: true, TimeoutMs: 500}, PriorityNormal, NoLanes, NoLanes, false)
	long := RequestUpdateLane(mode, TransitionConfig{Present: true, TimeoutMs: 15_000}, PriorityNormal, NoLanes, NoLanes, false)
	if !Lanes(short).IsSubset(TransitionShortLanes) {
		t.Fatalf("expected short transition lane, got %#x", short)
	}
	if !Lanes(long).IsSubset(TransitionLongLanes) {
		t.Fatalf("expected long transition lane, got %#x", long)
	}
}

func TestRequestUpdateLaneDiscreteEvent(t *testing.T) {
	mode := ModeConcurrent
	l := RequestUpdateLane(mode, TransitionConfig{}, PriorityUserBlocking, NoLanes, NoLanes, true)
	if !Lanes(l).IsSubset(InputDiscreteLanes) {
		t.Fatalf("expected InputDiscrete lane inside discrete event, got %#x", l)
	}
}
