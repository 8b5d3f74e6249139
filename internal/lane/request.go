package lane

import "time"

// Mode is the bitmask of fiber render modes referenced by
// RequestUpdateLane (spec §4.A): Blocking, Concurrent, Strict, Profile.
type Mode uint8

const (
	ModeBlocking Mode = 1 << iota
	ModeConcurrent
	ModeStrict
	ModeProfile
)

// TransitionConfig mirrors the optional suspense-config argument a
// transition update may carry.
type TransitionConfig struct {
	Present    bool
	TimeoutMs  int
	BusyMs     int
	BusyDelay  int
}

// RequestUpdateLane implements spec §4.A's lane-selection branches in
// order. wipLanes and pendingLanesOfLastRoot are used only for the
// transition branch's FindTransitionLane call.
func RequestUpdateLane(mode Mode, tc TransitionConfig, currentPriority Priority,
	wipLanes, pendingLanesOfLastRoot Lanes, inDiscreteEvent bool) Lane {

	if mode&ModeBlocking != 0 {
		return SyncLane
	}
	if mode&ModeConcurrent == 0 {
		if currentPriority == PriorityImmediate {
			return SyncLane
		}
		return Highest(SyncBatchedLanes)
	}

	if tc.Present {
		class := TransitionShortLanes
		if tc.TimeoutMs >= 10_000 {
			class = TransitionLongLanes
		}
		return findTransitionLaneInClass(class, wipLanes, pendingLanesOfLastRoot)
	}

	if inDiscreteEvent && currentPriority == PriorityUserBlocking {
		return Highest(InputDiscreteLanes)
	}

	return schedulerPriorityToLane(currentPriority)
}

func schedulerPriorityToLane(p Priority) Lane {
	switch p {
	case PriorityImmediate:
		return SyncLane
	case PriorityUserBlocking:
		return Highest(InputContinuousLanes)
	case PriorityNormal:
		return Highest(DefaultLanes)
	case PriorityLow:
		return Highest(RetryLanes)
	default:
		return Highest(IdleLanes)
	}
}

// FindTransitionLane allocates the next free bit in the transition
// class not currently being rendered (wipLanes) and not pending on the
// last-updated root (pendingLanesOfLastRoot), scanning low-to-high
// within the class. If the whole class is occupied by wipLanes ∪
// pendingLanes, it coalesces onto the lowest bit of the class. The
// transition class is bits 8–23, so the scan never leaves the 32-bit
// space; NoLane is returned only for an empty class, which
// FindTransitionLane never passes.
func FindTransitionLane(wipLanes, pendingLanesOfLastRoot Lanes) Lane {
	return findTransitionLaneInClass(TransitionLanes, wipLanes, pendingLanesOfLastRoot)
}

func findTransitionLaneInClass(class, wipLanes, pendingLanesOfLastRoot Lanes) Lane {
	if class == NoLanes {
		return NoLane
	}
	occupied := wipLanes | pendingLanesOfLastRoot
	for bit := Highest(class); bit != NoLane && Lanes(bit).IsSubset(class); bit <<= 1 {
		if occupied&Lanes(bit) == 0 {
			return bit
		}
	}
	// Whole class occupied: coalesce onto the lowest bit.
	return Highest(class)
}

// Clock abstracts time.Now for deterministic tests; production code
// uses realClock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the production Clock implementation.
var RealClock Clock = realClock{}
