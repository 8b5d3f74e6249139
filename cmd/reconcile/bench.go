package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/loopcraft/reconciler/internal/democomp"
	"github.com/loopcraft/reconciler/internal/fakesched"
	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/hostapi"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/reconciler"
	"github.com/loopcraft/reconciler/internal/termhost"
)

// BenchCmd drives a burst of synchronous and transition-priority
// updates through internal/fakesched's deterministic scheduler and
// reports how many landed at each priority, exercising the lane
// histogram scenario spec §8 calls for.
type BenchCmd struct {
	Updates int `help:"Number of updates to fire." default:"200"`
}

// noopTimeoutHost backs Host.ScheduleTimeout with an immediate
// fakesched task instead of a real timer: the delay is ignored and fn
// runs on the next drain, so a bench run never blocks on wall time
// waiting for a fallback-throttle or JND delay to elapse.
type noopTimeoutHost struct {
	*termhost.LineHost
	sched *fakesched.Scheduler
}

func (h *noopTimeoutHost) ScheduleTimeout(fn func(), d time.Duration) hostapi.TimeoutHandle {
	h.sched.Schedule(0, fn)
	return struct{}{}
}

func (h *noopTimeoutHost) CancelTimeout(hostapi.TimeoutHandle) {}

// Run fires c.Updates updates at a mix of priorities, draining
// fakesched.Scheduler.RunAll after each, and prints how many updates
// were fired at each priority.
func (c *BenchCmd) Run() error {
	sched := fakesched.New(time.Unix(0, 0))
	lineHost, container := termhost.NewLineHost()
	host := &noopTimeoutHost{LineHost: lineHost, sched: sched}

	resource := democomp.NewAsyncResource()
	resource.Resolve("bench")
	hooks := democomp.New(resource)

	rc := reconciler.NewRenderContext(sched, host, hooks, reconciler.WithLogger(slog.New(slog.DiscardHandler)))
	root := reconciler.NewFiberRoot(container, fiber.Mode(0))

	histogram := map[lane.Priority]int{}
	priorities := []lane.Priority{lane.PriorityImmediate, lane.PriorityNormal, lane.PriorityLow}

	for i := 0; i < c.Updates; i++ {
		p := priorities[i%len(priorities)]
		if err := rc.UpdateContainer(root, p); err != nil {
			return fmt.Errorf("bench: update %d: %w", i, err)
		}
		histogram[p]++
		sched.RunAll()
	}

	fmt.Printf("updates fired: %d\n", c.Updates)
	fmt.Printf("commits (paints): %d\n", sched.PaintCount())
	for _, p := range priorities {
		fmt.Printf("  priority %d: %d updates\n", p, histogram[p])
	}
	return nil
}
