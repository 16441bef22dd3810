package shaderscene

import (
	"errors"
	"testing"
)

func TestCompileReusesModules(t *testing.T) {
	b := NewBuilder(nil, nil, 1, 1)
	desc := mustValidate(t, testPayload())

	first, err := b.Compile(desc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	before := CompileCacheStats()

	second, err := b.Compile(desc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	after := CompileCacheStats()

	if after.Hits-before.Hits != 2 {
		t.Errorf("cache hits grew by %d, want 2", after.Hits-before.Hits)
	}
	if len(first.Vertex) != len(second.Vertex) || len(first.Fragment) != len(second.Fragment) {
		t.Error("cached program differs from the compiled one")
	}
}

func TestCompileErrorIsNotCached(t *testing.T) {
	b := NewBuilder(nil, nil, 1, 1)
	desc := mustValidate(t, testPayload())
	desc.FragmentShader = brokenWGSL

	for range 2 {
		_, err := b.Compile(desc)
		var ce *ShaderCompileError
		if !errors.As(err, &ce) {
			t.Fatalf("Compile error = %v, want *ShaderCompileError", err)
		}
		if ce.Stage != "fragment" {
			t.Errorf("Stage = %q, want fragment", ce.Stage)
		}
	}
}

func TestCompileChecksEntryPoints(t *testing.T) {
	b := NewBuilder(nil, nil, 1, 1)

	tests := []struct {
		name      string
		mutate    func(d *Description)
		wantStage string
	}{
		{"missing vertex entry", func(d *Description) { d.VertexEntryPoint = "main" }, "vertex"},
		{"missing fragment entry", func(d *Description) { d.FragmentEntryPoint = "main" }, "fragment"},
		{"fragment entry used as vertex", func(d *Description) {
			d.VertexShader = d.FragmentShader
			d.VertexEntryPoint = DefaultFragmentEntryPoint
		}, "vertex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := mustValidate(t, testPayload())
			tt.mutate(desc)
			_, err := b.Compile(desc)
			var ce *ShaderCompileError
			if !errors.As(err, &ce) {
				t.Fatalf("Compile error = %v, want *ShaderCompileError", err)
			}
			if ce.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", ce.Stage, tt.wantStage)
			}
		})
	}
}

func TestCompileCacheDistinguishesEntryPoints(t *testing.T) {
	b := NewBuilder(nil, nil, 1, 1)
	desc := mustValidate(t, testPayload())
	if _, err := b.Compile(desc); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Same sources, now cached, but a name the source does not declare.
	desc.VertexEntryPoint = "missing"
	if _, err := b.Compile(desc); err == nil {
		t.Fatal("Compile succeeded from a cache entry checked for another entry point")
	}
}
