package shaderscene

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/wgpu/hal"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

// Session states. Disposed is terminal.
const (
	SessionIdle SessionState = iota
	SessionRunning
	SessionDisposed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRunning:
		return "running"
	case SessionDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session renders one GPUScene into a surface attached to a mount point,
// one frame per scheduler callback, until it is disposed.
//
// A Session belongs to the goroutine running its scheduler. Only Frames
// may be called from other goroutines.
type Session struct {
	device   hal.Device
	queue    hal.Queue
	sched    host.Scheduler
	mount    *host.Mount
	clock    Clock
	observer Observer

	state   SessionState
	scene   *GPUScene
	surface *Surface
	start   time.Time

	frameID      host.FrameID
	framePending bool
	drawFailed   bool

	frames atomic.Uint64
}

// NewSession returns an idle session. A nil clock means SystemClock.
func NewSession(device hal.Device, queue hal.Queue, sched host.Scheduler, mount *host.Mount, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock()
	}
	return &Session{
		device:   device,
		queue:    queue,
		sched:    sched,
		mount:    mount,
		clock:    clock,
		observer: NopObserver{},
	}
}

// State returns the lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Frames returns the number of frames rendered so far.
func (s *Session) Frames() uint64 { return s.frames.Load() }

// Surface returns the attached output surface, nil unless running.
func (s *Session) Surface() *Surface { return s.surface }

// Start takes ownership of scene, attaches a new output surface to the
// mount point and requests the first frame. Start is only valid on an
// idle session. On failure the scene is released and the session is
// disposed.
func (s *Session) Start(scene *GPUScene) error {
	switch s.state {
	case SessionRunning:
		return ErrSessionStarted
	case SessionDisposed:
		scene.Destroy()
		return ErrSessionDisposed
	}

	w, h := s.mount.Size()
	surface, err := newSurface(s.device, w, h)
	if err != nil {
		scene.Destroy()
		s.state = SessionDisposed
		return err
	}
	if err := s.mount.Attach(surface); err != nil {
		surface.Destroy()
		scene.Destroy()
		s.state = SessionDisposed
		return fmt.Errorf("attach surface: %w", err)
	}

	s.scene = scene
	s.surface = surface
	s.start = s.clock.Now()
	s.state = SessionRunning
	s.requestFrame()
	Logger().Info("session started", slog.Uint64("width", uint64(w)), slog.Uint64("height", uint64(h)))
	return nil
}

func (s *Session) requestFrame() {
	s.frameID = s.sched.RequestFrame(s.frame)
	s.framePending = true
}

func (s *Session) frame(time.Time) {
	s.framePending = false
	if s.state != SessionRunning {
		return
	}

	began := time.Now()
	elapsed := s.clock.Now().Sub(s.start)
	err := s.scene.SetTime(float32(elapsed.Seconds()))
	if err == nil {
		err = s.scene.Draw(s.surface.View())
	}
	if err != nil {
		if !s.drawFailed {
			Logger().Warn("frame draw failed", slog.Any("error", err))
			s.drawFailed = true
		}
	} else {
		s.frames.Add(1)
		s.observer.FrameRendered(time.Since(began))
	}

	if s.state == SessionRunning {
		s.requestFrame()
	}
}

// Dispose stops the frame loop, detaches and destroys the output surface
// and releases the scene. It may be called in any state and more than
// once; only the first call has an effect. Every release step is
// attempted; failures are reported together as a *DisposalError.
func (s *Session) Dispose() error {
	if s.state == SessionDisposed {
		return nil
	}
	s.state = SessionDisposed

	var errs []error
	if s.framePending {
		s.sched.CancelFrame(s.frameID)
		s.framePending = false
	}
	if s.surface != nil {
		if err := s.mount.Detach(s.surface); err != nil {
			errs = append(errs, fmt.Errorf("detach surface: %w", err))
		}
		if err := release("surface", s.surface.Destroy); err != nil {
			errs = append(errs, err)
		}
		s.surface = nil
	}
	if s.scene != nil {
		if err := release("scene", s.scene.Destroy); err != nil {
			errs = append(errs, err)
		}
		s.scene = nil
	}

	Logger().Info("session disposed", slog.Uint64("frames", s.frames.Load()))
	if len(errs) > 0 {
		return &DisposalError{Err: errors.Join(errs...)}
	}
	return nil
}

// release runs a destroy function, turning a backend panic into an error
// so that the remaining release steps still run.
func release(what string, destroy func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("release %s: %v", what, r)
		}
	}()
	destroy()
	return nil
}
