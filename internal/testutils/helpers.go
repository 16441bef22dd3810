// Package testutils holds fixtures shared by the service package tests.
package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/shaderscene/internal/app"
	"github.com/gogpu/shaderscene/internal/gpudev"
)

const uniforms = `
struct Uniforms {
    view_proj: mat4x4<f32>,
    model: mat4x4<f32>,
    color: vec4<f32>,
    resolution: vec2<f32>,
    time: f32,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
`

// VertexWGSL and FragmentWGSL compile with naga and match the scene
// uniform block and vertex layout.
const (
	VertexWGSL = uniforms + `
@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return u.view_proj * u.model * vec4<f32>(position, 1.0);
}
`
	FragmentWGSL = uniforms + `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`
)

// Payload returns a valid triangle payload with the given red component.
func Payload(red float64) map[string]any {
	return map[string]any{
		"vertex_shader":   VertexWGSL,
		"fragment_shader": FragmentWGSL,
		"vertex_data": map[string]any{
			"positions": []any{0.0, 0.0, 1.0, 0.0, 0.0, 1.0},
		},
		"uniforms": map[string]any{
			"u_color": []any{red, 0.0, 0.0, 1.0},
		},
	}
}

// PayloadJSON returns Payload wrapped in the generator response envelope.
func PayloadJSON(t *testing.T, red float64) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"response": Payload(red)})
	require.NoError(t, err)
	return data
}

// ErrGeneratorDown is returned by a failing StaticGenerator.
var ErrGeneratorDown = errors.New("generator down")

// StaticGenerator returns the same body for every prompt. With Block set
// it instead waits until the request context ends.
type StaticGenerator struct {
	Body  []byte
	Err   error
	Block bool
	calls atomic.Int32
}

// Generate implements fetch.Generator.
func (g *StaticGenerator) Generate(ctx context.Context, _ string) ([]byte, error) {
	g.calls.Add(1)
	if g.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Body, nil
}

// Calls returns how many times Generate ran.
func (g *StaticGenerator) Calls() int { return int(g.calls.Load()) }

// StartApp opens a noop device, runs a host loop in the background and
// returns an App wired to gen. Everything is stopped when the test ends.
func StartApp(t *testing.T, gen *StaticGenerator) *app.App {
	t.Helper()
	dev, err := gpudev.Open(gpudev.BackendNoop)
	require.NoError(t, err)

	loop := host.NewLoop(120)
	mount, err := host.NewMount(64, 64)
	require.NoError(t, err)
	ctrl := shaderscene.NewController(dev.Device, dev.Queue, loop, mount)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	a := app.New(loop, ctrl, gen)
	t.Cleanup(func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
		defer closeCancel()
		_ = a.Close(closeCtx)
		cancel()
		<-done
		dev.Close()
	})
	return a
}
