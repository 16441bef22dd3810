package shaderscene

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/shaderscene/internal/gpudev"
	"github.com/gogpu/shaderscene/internal/restrack"
)

const uniformsWGSL = `
struct Uniforms {
    view_proj: mat4x4<f32>,
    model: mat4x4<f32>,
    color: vec4<f32>,
    resolution: vec2<f32>,
    time: f32,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
`

const testVertexWGSL = uniformsWGSL + `
@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return u.view_proj * u.model * vec4<f32>(position, 1.0);
}
`

const testFragmentWGSL = uniformsWGSL + `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`

const brokenWGSL = `fn vs_main( -> nope {`

// testPayload returns a valid triangle payload that tests can modify.
func testPayload() map[string]any {
	return map[string]any{
		"vertex_shader":   testVertexWGSL,
		"fragment_shader": testFragmentWGSL,
		"vertex_data": map[string]any{
			"positions": []any{0.0, 0.0, 1.0, 0.0, 0.0, 1.0},
		},
		"uniforms": map[string]any{
			"u_color": []any{1.0, 0.5, 0.25, 1.0},
		},
		"camera": map[string]any{
			"position": []any{0.0, 0.0, 2.0},
			"target":   []any{0.0, 0.0, 0.0},
		},
		"scene": map[string]any{
			"background_color": []any{0.1, 0.1, 0.1, 1.0},
		},
	}
}

func openTestDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	d, err := gpudev.Open(gpudev.BackendNoop)
	if err != nil {
		t.Fatalf("open noop device: %v", err)
	}
	t.Cleanup(d.Close)
	return d.Device, d.Queue
}

func newTestMount(t *testing.T) *host.Mount {
	t.Helper()
	m, err := host.NewMount(320, 240)
	if err != nil {
		t.Fatalf("NewMount: %v", err)
	}
	return m
}

// manualClock advances only when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingObserver counts events.
type recordingObserver struct {
	NopObserver
	rejected  []string
	compile   []string
	builds    int
	fetches   int
	started   int
	disposed  int
	disposeEr []error
	frames    int
}

func (o *recordingObserver) PayloadRejected(r string) { o.rejected = append(o.rejected, r) }
func (o *recordingObserver) CompileFailed(s string)   { o.compile = append(o.compile, s) }
func (o *recordingObserver) BuildFailed()             { o.builds++ }
func (o *recordingObserver) FetchFailed()             { o.fetches++ }
func (o *recordingObserver) SessionStarted()          { o.started++ }
func (o *recordingObserver) FrameRendered(time.Duration) {
	o.frames++
}

func (o *recordingObserver) SessionDisposed(err error) {
	o.disposed++
	if err != nil {
		o.disposeEr = append(o.disposeEr, err)
	}
}

var errInjected = errors.New("injected failure")

// failingDevice fails the named creation step.
type failingDevice struct {
	hal.Device
	failOn string
}

func (d *failingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.failOn == desc.Label {
		return nil, errInjected
	}
	return d.Device.CreateBuffer(desc)
}

func (d *failingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.failOn == restrack.KindRenderPipeline {
		return nil, errInjected
	}
	return d.Device.CreateRenderPipeline(desc)
}

func (d *failingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if d.failOn == restrack.KindBindGroup {
		return nil, errInjected
	}
	return d.Device.CreateBindGroup(desc)
}

func (d *failingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.failOn == restrack.KindTexture {
		return nil, errInjected
	}
	return d.Device.CreateTexture(desc)
}

func mustValidate(t *testing.T, payload any) *Description {
	t.Helper()
	d, err := Validate(payload)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return d
}

// bufferWrite is one WriteBuffer call seen by recordingQueue.
type bufferWrite struct {
	buffer hal.Buffer
	offset uint64
	data   []byte
}

// recordingQueue records buffer writes and can hold submissions
// incomplete.
type recordingQueue struct {
	hal.Queue

	mu     sync.Mutex
	writes []bufferWrite
	stall  bool
}

func (q *recordingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	q.mu.Lock()
	q.writes = append(q.writes, bufferWrite{buffer: buffer, offset: offset, data: append([]byte(nil), data...)})
	q.mu.Unlock()
	return q.Queue.WriteBuffer(buffer, offset, data)
}

func (q *recordingQueue) PollCompleted() uint64 {
	q.mu.Lock()
	stall := q.stall
	q.mu.Unlock()
	if stall {
		return 0
	}
	return q.Queue.PollCompleted()
}

// timeWrites returns the float32 values written at the time uniform
// offset, in order.
func (q *recordingQueue) timeWrites() []float32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []float32
	for _, w := range q.writes {
		if w.offset == uniformTimeOffset && len(w.data) == 4 {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(w.data)))
		}
	}
	return out
}

// uniformUploads returns the full uniform blocks written at creation.
func (q *recordingQueue) uniformUploads() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]byte
	for _, w := range q.writes {
		if w.offset == 0 && len(w.data) == UniformBlockSize {
			out = append(out, w.data)
		}
	}
	return out
}
