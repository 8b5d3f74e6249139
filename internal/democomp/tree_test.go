package democomp

import (
	"testing"
	"time"

	"github.com/loopcraft/reconciler/internal/fakesched"
	"github.com/loopcraft/reconciler/internal/fiber"
	"github.com/loopcraft/reconciler/internal/lane"
	"github.com/loopcraft/reconciler/internal/reconciler"
	"github.com/loopcraft/reconciler/internal/termhost"
)

// collectTexts walks the committed host tree and returns every
// non-empty Text value, in tree order, regardless of nesting — this
// test cares about which leaves got committed, not exactly where
// commitMutationEffect's simplified parent resolution placed them.
func collectTexts(inst *termhost.Instance) []string {
	var out []string
	if inst == nil {
		return out
	}
	if inst.Text != "" {
		out = append(out, inst.Text)
	}
	for _, c := range inst.Children {
		out = append(out, collectTexts(c)...)
	}
	return out
}

func contains(texts []string, want string) bool {
	for _, t := range texts {
		if t == want {
			return true
		}
	}
	return false
}

func TestMountRendersFallbackWhileResourcePending(t *testing.T) {
	resource := NewAsyncResource()
	hooks := New(resource)
	sched := fakesched.New(time.Unix(0, 0))
	host, container := termhost.NewLineHost()
	rc := reconciler.NewRenderContext(sched, host, hooks)
	root := reconciler.NewFiberRoot(container, fiber.Mode(0))

	if err := rc.FlushSync(func() {
		if err := rc.UpdateContainer(root, lane.PriorityImmediate); err != nil {
			t.Fatalf("UpdateContainer: %v", err)
		}
	}); err != nil {
		t.Fatalf("FlushSync: %v", err)
	}
	sched.RunAll()

	texts := collectTexts(container)
	if !contains(texts, "counter demo") {
		t.Errorf("committed tree = %v, want it to contain the title", texts)
	}
	if !contains(texts, "loading…") {
		t.Errorf("committed tree = %v, want the suspense fallback while pending", texts)
	}
	if contains(texts, "42") {
		t.Errorf("committed tree = %v, resolved value should not appear before Resolve", texts)
	}
}

func TestResolveReplacesFallbackWithResolvedValue(t *testing.T) {
	resource := NewAsyncResource()
	hooks := New(resource)
	sched := fakesched.New(time.Unix(0, 0))
	host, container := termhost.NewLineHost()
	rc := reconciler.NewRenderContext(sched, host, hooks)
	root := reconciler.NewFiberRoot(container, fiber.Mode(0))

	if err := rc.FlushSync(func() {
		_ = rc.UpdateContainer(root, lane.PriorityImmediate)
	}); err != nil {
		t.Fatalf("FlushSync: %v", err)
	}
	sched.RunAll()

	resource.Resolve("42")
	sched.RunAll()

	texts := collectTexts(container)
	if !contains(texts, "42") {
		t.Errorf("committed tree after resolve = %v, want the resolved value", texts)
	}
}

func TestMountIsIdempotentAcrossRerenders(t *testing.T) {
	resource := NewAsyncResource()
	resource.Resolve("7")
	hooks := New(resource)
	sched := fakesched.New(time.Unix(0, 0))
	host, container := termhost.NewLineHost()
	rc := reconciler.NewRenderContext(sched, host, hooks)
	root := reconciler.NewFiberRoot(container, fiber.Mode(0))

	for i := 0; i < 3; i++ {
		if err := rc.FlushSync(func() {
			_ = rc.UpdateContainer(root, lane.PriorityImmediate)
		}); err != nil {
			t.Fatalf("FlushSync iteration %d: %v", i, err)
		}
		sched.RunAll()
	}

	texts := collectTexts(container)
	count := 0
	for _, tx := range texts {
		if tx == "7" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("resolved value appeared %d times across 3 re-renders, want exactly 1", count)
	}
}
