package fakesched

import (
	"testing"
	"time"

	"github.com/loopcraft/reconciler/internal/schedapi"
)

func TestRunOrdersByPriorityThenScheduleOrder(t *testing.T) {
	s := New(time.Unix(0, 0))
	var order []string
	s.Schedule(schedapi.Low, func() { order = append(order, "low") })
	s.Schedule(schedapi.Immediate, func() { order = append(order, "immediate") })
	s.Schedule(schedapi.Normal, func() { order = append(order, "normal-1") })
	s.Schedule(schedapi.Normal, func() { order = append(order, "normal-2") })

	ran := s.Run()
	if ran != 4 {
		t.Fatalf("Run() = %d, want 4", ran)
	}
	want := []string{"immediate", "normal-1", "normal-2", "low"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestCancelSkipsTask(t *testing.T) {
	s := New(time.Unix(0, 0))
	ran := false
	h := s.Schedule(schedapi.Normal, func() { ran = true })
	s.Cancel(h)
	if n := s.Run(); n != 0 {
		t.Fatalf("Run() = %d, want 0", n)
	}
	if ran {
		t.Fatal("canceled task ran")
	}
}

func TestRunAllDrainsCascadingTasks(t *testing.T) {
	s := New(time.Unix(0, 0))
	depth := 0
	var schedule func()
	schedule = func() {
		depth++
		if depth < 3 {
			s.Schedule(schedapi.Normal, schedule)
		}
	}
	s.Schedule(schedapi.Normal, schedule)

	total := s.RunAll()
	if total != 3 {
		t.Fatalf("RunAll() = %d, want 3", total)
	}
	if depth != 3 {
		t.Fatalf("depth = %d, want 3", depth)
	}
}

func TestShouldYieldEveryN(t *testing.T) {
	s := New(time.Unix(0, 0))
	s.SetYieldAfter(3)
	for i := 0; i < 2; i++ {
		if s.ShouldYield() {
			t.Fatalf("ShouldYield true too early at call %d", i)
		}
	}
	if !s.ShouldYield() {
		t.Fatal("ShouldYield false on the 3rd call, want true")
	}
	if s.ShouldYield() {
		t.Fatal("ShouldYield true immediately after reset")
	}
}

func TestShouldYieldDisabledWhenZero(t *testing.T) {
	s := New(time.Unix(0, 0))
	for i := 0; i < 10; i++ {
		if s.ShouldYield() {
			t.Fatal("ShouldYield true with yieldAfter disabled")
		}
	}
}

func TestAdvanceMovesClockWithoutRunning(t *testing.T) {
	s := New(time.Unix(0, 0))
	ran := false
	s.Schedule(schedapi.Normal, func() { ran = true })
	s.Advance(time.Second)
	if s.Now().Sub(time.Unix(0, 0)) != time.Second {
		t.Fatalf("Now() did not advance")
	}
	if ran {
		t.Fatal("Advance ran a pending task")
	}
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}
}

func TestRequestPaintCountsCalls(t *testing.T) {
	s := New(time.Unix(0, 0))
	s.RequestPaint()
	s.RequestPaint()
	if s.PaintCount() != 2 {
		t.Fatalf("PaintCount() = %d, want 2", s.PaintCount())
	}
}
