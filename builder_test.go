//go:build !nogpu

package shaderscene

import (
	"errors"
	"testing"

	"github.com/gogpu/shaderscene/internal/restrack"
)

func TestBuilderBuildAndDestroy(t *testing.T) {
	device, queue := openTestDevice(t)
	tracked := restrack.Wrap(device)
	b := NewBuilder(tracked, queue, 320, 240)

	scene, err := b.Build(mustValidate(t, testPayload()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if scene.VertexCount() != 3 || scene.IndexCount() != 0 {
		t.Errorf("counts = %d, %d, want 3, 0", scene.VertexCount(), scene.IndexCount())
	}
	if c := scene.ClearColor(); c.R != 0.1 || c.A != 1 {
		t.Errorf("ClearColor() = %+v", c)
	}
	// vertex + uniform buffers, two modules, two layouts, pipeline, bind group
	if got := tracked.Live(); got != 8 {
		t.Errorf("Live() = %d, want 8", got)
	}

	scene.Destroy()
	scene.Destroy()
	if got := tracked.Live(); got != 0 {
		t.Errorf("Live() after Destroy = %d, want 0", got)
	}
	if got := tracked.OverReleased(); got != 0 {
		t.Errorf("OverReleased() = %d, want 0", got)
	}
}

func TestBuilderIndexedGeometry(t *testing.T) {
	device, queue := openTestDevice(t)
	tracked := restrack.Wrap(device)
	b := NewBuilder(tracked, queue, 320, 240)

	p := testPayload()
	p["vertex_data"] = map[string]any{
		"positions": []any{-1.0, -1.0, 1.0, -1.0, 1.0, 1.0, -1.0, 1.0},
		"indices":   []any{0, 1, 2, 0, 2, 3},
	}
	scene, err := b.Build(mustValidate(t, p))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer scene.Destroy()

	if scene.IndexCount() != 6 || scene.VertexCount() != 4 {
		t.Errorf("counts = %d, %d, want 4 vertices 6 indices", scene.VertexCount(), scene.IndexCount())
	}
	if got := tracked.LiveOf(restrack.KindBuffer); got != 3 {
		t.Errorf("buffers = %d, want 3", got)
	}
}

func TestBuilderCompileError(t *testing.T) {
	device, queue := openTestDevice(t)
	tracked := restrack.Wrap(device)
	b := NewBuilder(tracked, queue, 320, 240)

	p := testPayload()
	p["fragment_shader"] = brokenWGSL
	_, err := b.Build(mustValidate(t, p))
	if !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("Build() = %v, want ErrShaderCompile", err)
	}
	var cerr *ShaderCompileError
	if !errors.As(err, &cerr) || cerr.Stage != "fragment" || cerr.Diagnostic == "" {
		t.Errorf("error = %#v, want fragment stage with diagnostic", err)
	}
	if got := tracked.Created(); got != 0 {
		t.Errorf("Created() = %d, want 0: compile errors must not touch the GPU", got)
	}
}

func TestBuilderRollback(t *testing.T) {
	for _, failOn := range []string{
		"scene_uniforms",
		restrack.KindRenderPipeline,
		restrack.KindBindGroup,
	} {
		t.Run(failOn, func(t *testing.T) {
			device, queue := openTestDevice(t)
			tracked := restrack.Wrap(&failingDevice{Device: device, failOn: failOn})
			b := NewBuilder(tracked, queue, 320, 240)

			scene, err := b.Build(mustValidate(t, testPayload()))
			if err == nil {
				scene.Destroy()
				t.Fatal("Build succeeded, want failure")
			}
			if tracked.Created() == 0 {
				t.Error("nothing was created before the failure")
			}
			if got := tracked.Live(); got != 0 {
				t.Errorf("Live() = %d after failed build, want 0 (kinds %v)", got, tracked.Kinds())
			}
		})
	}
}

func TestBuilderPipelineFailureIsCompileError(t *testing.T) {
	device, queue := openTestDevice(t)
	b := NewBuilder(&failingDevice{Device: device, failOn: restrack.KindRenderPipeline}, queue, 320, 240)

	_, err := b.Build(mustValidate(t, testPayload()))
	var cerr *ShaderCompileError
	if !errors.As(err, &cerr) || cerr.Stage != "pipeline" {
		t.Errorf("Build() = %v, want pipeline ShaderCompileError", err)
	}
}

func TestGPUSceneDrawAfterDestroy(t *testing.T) {
	device, queue := openTestDevice(t)
	b := NewBuilder(device, queue, 320, 240)
	scene, err := b.Build(mustValidate(t, testPayload()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	scene.Destroy()
	if err := scene.SetTime(1); !errors.Is(err, ErrSessionDisposed) {
		t.Errorf("SetTime after Destroy = %v, want ErrSessionDisposed", err)
	}
	if err := scene.Draw(nil); !errors.Is(err, ErrSessionDisposed) {
		t.Errorf("Draw after Destroy = %v, want ErrSessionDisposed", err)
	}
}
