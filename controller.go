package shaderscene

import (
	"errors"
	"log/slog"

	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/shaderscene/internal/restrack"
	"github.com/gogpu/wgpu/hal"
)

// Controller keeps at most one live render session for a mount point.
// Each accepted payload replaces the current session: the old one is
// disposed before the new scene's GPU objects are created, so two scenes
// never hold GPU memory at the same time.
//
// A Controller belongs to the goroutine running its scheduler; use
// host.Loop.Do to reach it from elsewhere.
type Controller struct {
	device  *restrack.Device
	queue   hal.Queue
	sched   host.Scheduler
	mount   *host.Mount
	builder *Builder
	opts    controllerOptions

	current *Session

	errMsg         string
	loading        bool
	vertexShader   string
	fragmentShader string
	generation     uint64
	closed         bool
}

// NewController returns a controller rendering into mount with device.
// Every GPU object it creates is counted; see LiveResources.
func NewController(device hal.Device, queue hal.Queue, sched host.Scheduler, mount *host.Mount, opts ...ControllerOption) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	tracked := restrack.Wrap(device)
	w, h := mount.Size()
	return &Controller{
		device:  tracked,
		queue:   queue,
		sched:   sched,
		mount:   mount,
		builder: NewBuilder(tracked, queue, w, h),
		opts:    o,
	}
}

// Apply validates payload and, if it is accepted, replaces the current
// session with one rendering the new scene.
//
// Validation and shader compilation happen before the current session is
// touched, so a rejected payload or a shader that does not compile leaves
// the previous scene on screen. Once compilation succeeds the previous
// session is disposed; a later failure leaves the region blank.
//
// The returned error is also recorded in State.
func (c *Controller) Apply(payload any) error {
	if c.closed {
		return ErrControllerClosed
	}
	c.loading = false

	desc, err := Validate(payload)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.opts.observer.PayloadRejected(verr.Reason())
		}
		return c.fail("payload rejected", err)
	}

	prog, err := c.builder.Compile(desc)
	if err != nil {
		c.observeCompile(err)
		return c.fail("shader compile failed", err)
	}

	c.disposeCurrent()

	scene, err := c.builder.BuildCompiled(desc, prog)
	if err != nil {
		if !c.observeCompile(err) {
			c.opts.observer.BuildFailed()
		}
		return c.fail("scene build failed", err)
	}

	sess := NewSession(c.device, c.queue, c.sched, c.mount, c.opts.clock)
	sess.observer = c.opts.observer
	if err := sess.Start(scene); err != nil {
		c.opts.observer.BuildFailed()
		return c.fail("session start failed", err)
	}

	c.current = sess
	c.generation++
	c.errMsg = ""
	c.vertexShader = desc.VertexShader
	c.fragmentShader = desc.FragmentShader
	c.opts.observer.SessionStarted()
	Logger().Debug("scene applied",
		slog.Uint64("generation", c.generation),
		slog.Int("live_resources", c.device.Live()))
	return nil
}

func (c *Controller) observeCompile(err error) bool {
	var cerr *ShaderCompileError
	if !errors.As(err, &cerr) {
		return false
	}
	c.opts.observer.CompileFailed(cerr.Stage)
	return true
}

func (c *Controller) fail(msg string, err error) error {
	c.errMsg = err.Error()
	Logger().Warn(msg, slog.Any("error", err))
	return err
}

// disposeCurrent disposes the current session, if any. A disposal error
// is logged and reported but never stops the caller.
func (c *Controller) disposeCurrent() {
	if c.current == nil {
		return
	}
	sess := c.current
	c.current = nil
	err := sess.Dispose()
	if err != nil {
		Logger().Warn("session disposal failed", slog.Any("error", err))
	}
	c.opts.observer.SessionDisposed(err)
}

// SetLoading marks a scene request as in flight. It clears the previous
// error message.
func (c *Controller) SetLoading() {
	c.loading = true
	c.errMsg = ""
}

// ClearLoading drops the loading flag of an abandoned request without
// recording an error.
func (c *Controller) ClearLoading() {
	c.loading = false
}

// ReportFetchFailure records that the generator service failed. The
// current session keeps running.
func (c *Controller) ReportFetchFailure(err error) {
	c.loading = false
	if err == nil {
		err = ErrFetchFailed
	}
	c.errMsg = err.Error()
	c.opts.observer.FetchFailed()
	Logger().Warn("scene fetch failed", slog.Any("error", err))
}

// Teardown disposes the current session, if any. It is called when the
// hosting view goes away and is safe to call repeatedly.
func (c *Controller) Teardown() {
	c.disposeCurrent()
}

// Close tears down the current session and makes further Apply calls fail
// with ErrControllerClosed.
func (c *Controller) Close() {
	c.Teardown()
	c.closed = true
}

// Current returns the live session, or nil.
func (c *Controller) Current() *Session { return c.current }

// LiveResources returns the number of GPU objects created through the
// controller that have not been destroyed.
func (c *Controller) LiveResources() int { return c.device.Live() }

// LiveResourcesOf returns the live object count of one kind, such as
// "buffer" or "render_pipeline".
func (c *Controller) LiveResourcesOf(kind string) int { return c.device.LiveOf(kind) }

// ResourceKinds returns the object kinds that currently have live objects.
func (c *Controller) ResourceKinds() []string { return c.device.Kinds() }

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	st := State{
		Error:          c.errMsg,
		Loading:        c.loading,
		VertexShader:   c.vertexShader,
		FragmentShader: c.fragmentShader,
		Generation:     c.generation,
		LiveResources:  c.device.Live(),
	}
	if c.current != nil {
		st.Running = c.current.State() == SessionRunning
		st.Frames = c.current.Frames()
	}
	return st
}
