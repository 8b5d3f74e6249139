// Package reconciler is the concurrent reconciler core: the
// cooperative work loop, lane-based scheduling, suspension protocol,
// and multi-phase commit pipeline described by spec.md / SPEC_FULL.md
// §4.B–§4.G. It is grounded on internal/orchestrator's phase-sequencing
// shape from the teacher repo (see DESIGN.md): a small struct wiring
// injected collaborators, one exported entry point per lifecycle
// concern, typed errors for failure reporting.
package reconciler

import (
	"log/slog"
	"time"

	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/hostapi"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/rtconfig"
	"github.com/loopcraft/reconciler/internal/schedapi"
	"github.com/loopcraft/reconciler/internal/workhooks"
)

// ExecCtx is the process-wide (here, per-RenderContext) execution
// stack bitmask from spec §3.
type ExecCtx uint32

const CtxNone ExecCtx = 0

const (
	CtxBatched ExecCtx = 1 << iota
	CtxEvent
	CtxDiscreteEvent
	CtxLegacyUnbatched
	CtxRender
	CtxCommit
)

// ExitStatus is the outcome of a completed render attempt.
type ExitStatus int

const (
	ExitIncomplete ExitStatus = iota
	ExitCompleted
	ExitSuspended
	ExitSuspendedWithDelay
	ExitErrored
	ExitFatalErrored
)

// pendingPing records a wakeable that resolved for a root along with
// the lanes it should re-enable.
type pendingPing struct {
	wake  workhooks.Wakeable
	lanes lane.Lanes
}

// FiberRoot is the per-tree container from spec §3. It embeds
// lane.RootState for all lane bookkeeping operations.
type FiberRoot struct {
	lane.RootState

	Tree      *fiber.Tree
	Current   fiber.Ref
	Container any

	CallbackNode   schedapi.Handle
	CallbackLanes  lane.Lanes
	CallbackIsSync bool
	ExpiresAt      time.Time

	TimeoutHandle hostapi.TimeoutHandle

	FinishedWork  fiber.Ref
	FinishedLanes lane.Lanes

	// PingCache maps a pending wakeable to the lanes that were
	// suspended on it, so pingSuspendedRoot doesn't need a separate
	// subscription table and a second resolve doesn't re-subscribe.
	PingCache map[workhooks.Wakeable]lane.Lanes

	// incomingPings is drained by the scheduler loop once per tick;
	// wakeable resolution can happen from arbitrary goroutines (the
	// host's async I/O), but it is only ever applied to root state on
	// the single renderer goroutine via this channel.
	incomingPings chan pendingPing

	fallbackCommitTime time.Time
	consecutiveSyncCommits int
	consecutivePassiveRounds int
}

// NewFiberRoot creates an empty root with a single HostRoot fiber as
// Current.
func NewFiberRoot(container any, mode fiber.Mode) *FiberRoot {
	t := fiber.NewTree()
	root := t.NewFiber(fiber.TagHostRoot, nil, "", mode)
	return &FiberRoot{
		Tree:          t,
		Current:       root,
		Container:     container,
		TimeoutHandle: hostapi.NoTimeout,
		PingCache:     make(map[workhooks.Wakeable]lane.Lanes),
		incomingPings: make(chan pendingPing, 16),
	}
}

// RenderContext replaces spec §9's module-level mutable singletons
// with an explicit, per-renderer struct. Exactly one RenderContext
// drives any number of FiberRoots; all of its fields are read/written
// only from the single goroutine that calls its exported methods
// (Render/Commit work never migrates goroutines), matching spec §5's
// "all read/written only on the renderer thread" shared-resource
// policy.
type RenderContext struct {
	Scheduler schedapi.Scheduler
	Host      hostapi.Host
	Hooks     workhooks.Hooks
	Config    rtconfig.Config
	Clock     lane.Clock
	Log       *slog.Logger

	ExecutionContext ExecCtx

	workInProgressRoot           *FiberRoot
	workInProgress               fiber.Ref
	workInProgressRootRenderLanes lane.Lanes

	exitStatus            ExitStatus
	fatalError            error
	latestProcessedEventTime time.Time
	latestSuspenseTimeout time.Time
	canSuspendUsingConfig *lane.TransitionConfig
	skippedLanes          lane.Lanes
	updatedLanes          lane.Lanes
	pingedLanes           lane.Lanes

	rootsWithPendingDiscreteUpdates map[*FiberRoot]bool
	rootWithPendingPassiveEffects   *FiberRoot
	pendingPassiveEffectsLanes      lane.Lanes

	currentEventTime          time.Time
	currentEventWipLanes      lane.Lanes
	currentEventPendingLanes  lane.Lanes
	globalMostRecentFallbackTime time.Time

	legacyErrorBoundariesThatAlreadyFailed map[fiber.Ref]bool

	nestedUpdateRoot  *FiberRoot
	nestedUpdateCount int

	retriedSyncOnError bool

	syncCallbackQueue []func()
}

// Option configures a new RenderContext.
type Option func(*RenderContext)

// WithLogger overrides the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(rc *RenderContext) { rc.Log = l }
}

// WithConfig overrides the default rtconfig.DefaultConfig().
func WithConfig(cfg rtconfig.Config) Option {
	return func(rc *RenderContext) { rc.Config = cfg }
}

// WithClock overrides the production clock, for deterministic tests.
func WithClock(c lane.Clock) Option {
	return func(rc *RenderContext) { rc.Clock = c }
}

// NewRenderContext wires the three external collaborators (spec §6)
// into a fresh RenderContext.
func NewRenderContext(sched schedapi.Scheduler, host hostapi.Host, hooks workhooks.Hooks, opts ...Option) *RenderContext {
	rc := &RenderContext{
		Scheduler: sched,
		Host:      host,
		Hooks:     hooks,
		Config:    rtconfig.DefaultConfig(),
		Clock:     lane.RealClock,
		Log:       slog.New(slog.DiscardHandler),

		rootsWithPendingDiscreteUpdates:         make(map[*FiberRoot]bool),
		legacyErrorBoundariesThatAlreadyFailed: make(map[fiber.Ref]bool),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// now is a small convenience wrapper around rc.Clock.Now().
func (rc *RenderContext) now() time.Time { return rc.Clock.Now() }

// requestEventTime implements spec §6's exposed requestEventTime op:
// inside the render or commit phase, every timestamp is fresh (so a
// cascading update sorts correctly against the work already in
// flight); outside of one, every update scheduled within the same
// outer batch/event shares a single latched timestamp, computed once
// and reused until the execution context drains back to CtxNone
// (popContextAndMaybeFlush / flushSync reset currentEventTime then).
func (rc *RenderContext) requestEventTime() time.Time {
	if rc.ExecutionContext&(CtxRender|CtxCommit) != 0 {
		return rc.now()
	}
	if !rc.currentEventTime.IsZero() {
		return rc.currentEventTime
	}
	rc.currentEventTime = rc.now()
	return rc.currentEventTime
}
