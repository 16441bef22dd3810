package host

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopFrameRunsOnce(t *testing.T) {
	l := NewLoop(60)
	calls := 0
	l.RequestFrame(func(time.Time) { calls++ })

	if ran := l.Tick(time.Now()); ran != 1 {
		t.Fatalf("Tick ran %d callbacks, want 1", ran)
	}
	if ran := l.Tick(time.Now()); ran != 0 {
		t.Fatalf("second Tick ran %d callbacks, want 0", ran)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
}

func TestLoopRequestDuringTickRunsNextTick(t *testing.T) {
	l := NewLoop(60)
	calls := 0
	var cb FrameCallback
	cb = func(time.Time) {
		calls++
		l.RequestFrame(cb)
	}
	l.RequestFrame(cb)

	for i := 0; i < 5; i++ {
		l.Tick(time.Now())
	}
	if calls != 5 {
		t.Errorf("rescheduling callback ran %d times over 5 ticks, want 5", calls)
	}
	if l.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", l.Pending())
	}
}

func TestLoopCancelBeforeTick(t *testing.T) {
	l := NewLoop(60)
	called := false
	id := l.RequestFrame(func(time.Time) { called = true })
	l.CancelFrame(id)
	l.Tick(time.Now())
	if called {
		t.Error("cancelled callback ran")
	}
}

func TestLoopCancelDuringTick(t *testing.T) {
	l := NewLoop(60)
	var second FrameID
	called := false
	l.RequestFrame(func(time.Time) { l.CancelFrame(second) })
	second = l.RequestFrame(func(time.Time) { called = true })

	if ran := l.Tick(time.Now()); ran != 1 {
		t.Errorf("Tick ran %d callbacks, want 1", ran)
	}
	if called {
		t.Error("callback cancelled earlier in the same repaint still ran")
	}
}

func TestLoopCancelUnknownIsNoop(t *testing.T) {
	l := NewLoop(60)
	l.CancelFrame(0)
	l.CancelFrame(42)
	if len(l.inflight) != 0 {
		t.Errorf("inflight set grew to %d after cancelling unknown ids", len(l.inflight))
	}
}

func TestLoopTasksRunBeforeFrames(t *testing.T) {
	l := NewLoop(60)
	var order []string
	l.RequestFrame(func(time.Time) { order = append(order, "frame") })
	l.Post(func() { order = append(order, "task") })
	l.Tick(time.Now())
	if len(order) != 2 || order[0] != "task" || order[1] != "frame" {
		t.Errorf("order = %v, want [task frame]", order)
	}
}

func TestLoopRunAndDo(t *testing.T) {
	l := NewLoop(120)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	v := 0
	if err := l.Do(ctx, func() { v = 7 }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if v != 7 {
		t.Errorf("v = %d, want 7", v)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if err := l.Do(context.Background(), func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Do after stop = %v, want ErrLoopStopped", err)
	}
}

func TestNewLoopDefaultRate(t *testing.T) {
	if got := NewLoop(0).Interval(); got != time.Second/60 {
		t.Errorf("Interval() = %v, want %v", got, time.Second/60)
	}
}
