package host

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopStopped is returned by Do when the loop is no longer running.
var ErrLoopStopped = errors.New("host: loop stopped")

// FrameID identifies a pending frame request. The zero value is never
// returned by RequestFrame and is safe to pass to CancelFrame.
type FrameID uint64

// FrameCallback runs once, before the next repaint.
type FrameCallback func(now time.Time)

// Scheduler is the host's "callback before next repaint" primitive.
type Scheduler interface {
	// RequestFrame schedules cb for the next frame and returns its id.
	RequestFrame(cb FrameCallback) FrameID

	// CancelFrame removes a pending request. Cancelling an id that already
	// ran, or was never issued, is a no-op.
	CancelFrame(id FrameID)
}

type frameRequest struct {
	id FrameID
	cb FrameCallback
}

// Loop is a single-threaded cooperative event loop. Tick runs posted tasks
// and then the frame callbacks that were pending when the tick began.
// Callbacks requested during a tick run on the next tick.
//
// Post, Do, RequestFrame and CancelFrame are safe for concurrent use.
type Loop struct {
	interval time.Duration

	mu       sync.Mutex
	nextID   FrameID
	frames   []frameRequest
	inflight map[FrameID]struct{}
	tasks    []func()
	wake     chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop that repaints frameRate times per second when
// driven by Run. A non-positive frameRate defaults to 60.
func NewLoop(frameRate int) *Loop {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &Loop{
		interval: time.Second / time.Duration(frameRate),
		inflight: make(map[FrameID]struct{}),
		wake:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
}

// Interval returns the time between two repaints.
func (l *Loop) Interval() time.Duration { return l.interval }

// RequestFrame implements Scheduler.
func (l *Loop) RequestFrame(cb FrameCallback) FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.frames = append(l.frames, frameRequest{id: id, cb: cb})
	return id
}

// CancelFrame implements Scheduler.
func (l *Loop) CancelFrame(id FrameID) {
	if id == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.frames {
		if l.frames[i].id == id {
			l.frames = append(l.frames[:i], l.frames[i+1:]...)
			return
		}
	}
	// The request may have been taken by the repaint in progress.
	delete(l.inflight, id)
}

// Pending returns the number of frame callbacks waiting for the next tick.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// Post queues fn to run on the loop goroutine before the next frame.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do posts fn and waits for it to finish. It returns ctx.Err() if the
// context ends first and ErrLoopStopped if the loop has stopped.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// RunTasks runs every queued task, including tasks queued by those tasks.
func (l *Loop) RunTasks() {
	for {
		l.mu.Lock()
		tasks := l.tasks
		l.tasks = nil
		l.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, fn := range tasks {
			fn()
		}
	}
}

// Tick runs queued tasks and then one repaint: every frame callback that
// was pending when the repaint started, in request order. It returns the
// number of frame callbacks that ran.
func (l *Loop) Tick(now time.Time) int {
	l.RunTasks()

	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	for _, f := range frames {
		l.inflight[f.id] = struct{}{}
	}
	l.mu.Unlock()

	ran := 0
	for _, f := range frames {
		l.mu.Lock()
		_, live := l.inflight[f.id]
		delete(l.inflight, f.id)
		l.mu.Unlock()
		if !live {
			continue
		}
		f.cb(now)
		ran++
	}
	return ran
}

// Run drives the loop until ctx is done. Tasks run as soon as they are
// posted; repaints happen once per interval.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stopped) })

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.RunTasks()
			return ctx.Err()
		case <-l.wake:
			l.RunTasks()
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} { return l.stopped }
