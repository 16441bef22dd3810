package shaderscene

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderscene/internal/spvcache"
)

// SurfaceFormat is the colour format of session surfaces and of the scene
// pipeline's single colour target.
const SurfaceFormat = gputypes.TextureFormatBGRA8Unorm

// Program holds both shader stages of a description compiled to SPIR-V.
// It is produced without touching the GPU.
type Program struct {
	Vertex   []uint32
	Fragment []uint32
}

// Builder turns validated descriptions into GPU scenes for a viewport of a
// fixed size.
type Builder struct {
	device  hal.Device
	queue   hal.Queue
	width   uint32
	height  uint32
	modules *spvcache.Cache
}

// compiled is shared by every builder; SPIR-V does not depend on the device.
var compiled = spvcache.New(spvcache.DefaultCapacity)

// NewBuilder returns a builder creating resources on device for a viewport
// of width x height pixels.
func NewBuilder(device hal.Device, queue hal.Queue, width, height uint32) *Builder {
	return &Builder{device: device, queue: queue, width: width, height: height, modules: compiled}
}

// Compile compiles both shader stages and checks that each source
// declares its entry point for the right stage. It fails with a
// *ShaderCompileError carrying the compiler diagnostic unmodified.
func (b *Builder) Compile(desc *Description) (*Program, error) {
	vs, err := b.compileStage(ir.StageVertex, desc.VertexShader, desc.VertexEntryPoint)
	if err != nil {
		return nil, err
	}
	fs, err := b.compileStage(ir.StageFragment, desc.FragmentShader, desc.FragmentEntryPoint)
	if err != nil {
		return nil, err
	}
	return &Program{Vertex: vs, Fragment: fs}, nil
}

func (b *Builder) compileStage(stage ir.ShaderStage, source, entryPoint string) ([]uint32, error) {
	compile := func(string) ([]uint32, error) {
		return compileWGSL(stage, source, entryPoint)
	}
	if b.modules == nil {
		return compile(source)
	}
	key := fmt.Sprintf("%s:%s\x00%s", stageName(stage), entryPoint, source)
	return b.modules.GetOrCompile(key, compile)
}

func stageName(stage ir.ShaderStage) string {
	switch stage {
	case ir.StageVertex:
		return "vertex"
	case ir.StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", stage)
	}
}

func compileWGSL(stage ir.ShaderStage, source, entryPoint string) ([]uint32, error) {
	name := stageName(stage)
	fail := func(format string, args ...any) error {
		return &ShaderCompileError{Stage: name, Diagnostic: fmt.Sprintf(format, args...)}
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fail("parse error: %v", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fail("lowering error: %v", err)
	}
	if err := checkEntryPoint(module, stage, entryPoint); err != nil {
		return nil, fail("%v", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fail("validation error: %v", err)
	}
	if len(verrs) > 0 {
		return nil, fail("validation failed: %v", &verrs[0])
	}
	spirvBytes, err := naga.GenerateSPIRV(module, spirv.Options{Version: naga.DefaultOptions().SPIRVVersion})
	if err != nil {
		return nil, fail("%v", err)
	}
	if len(spirvBytes) == 0 || len(spirvBytes)%4 != 0 {
		return nil, fail("invalid SPIR-V output of %d bytes", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// checkEntryPoint fails unless module declares name as an entry point
// of the given stage.
func checkEntryPoint(module *ir.Module, stage ir.ShaderStage, name string) error {
	for _, ep := range module.EntryPoints {
		if ep.Name != name {
			continue
		}
		if ep.Stage != stage {
			return fmt.Errorf("entry point %q is not a %s entry point", name, stageName(stage))
		}
		return nil
	}
	return fmt.Errorf("entry point %q not found", name)
}

// Build compiles desc and creates its GPU scene.
func (b *Builder) Build(desc *Description) (*GPUScene, error) {
	prog, err := b.Compile(desc)
	if err != nil {
		return nil, err
	}
	return b.BuildCompiled(desc, prog)
}

// BuildCompiled creates the GPU objects of a scene from a compiled program.
// If any step fails, every object created so far is destroyed in reverse
// order before the error is returned.
func (b *Builder) BuildCompiled(desc *Description, prog *Program) (*GPUScene, error) {
	s := &GPUScene{
		device:       b.device,
		queue:        b.queue,
		vertexCount:  uint32(desc.VertexData.VertexCount()),
		indexCount:   uint32(len(desc.VertexData.Indices)),
		timeOffset:   uniformTimeOffset,
		frameTimeout: defaultFrameTimeout,
		clear: gputypes.Color{
			R: desc.Background.Color[0],
			G: desc.Background.Color[1],
			B: desc.Background.Color[2],
			A: desc.Background.Color[3],
		},
	}
	if err := b.realize(s, desc, prog); err != nil {
		s.Destroy()
		return nil, err
	}
	Logger().Debug("scene built",
		slog.Uint64("vertices", uint64(s.vertexCount)),
		slog.Uint64("indices", uint64(s.indexCount)))
	return s, nil
}

func (b *Builder) realize(s *GPUScene, desc *Description, prog *Program) error {
	var err error

	vertices := ExpandPositions(desc.VertexData.Positions, desc.VertexData.Dimensionality)
	s.vertexBuf, err = b.upload("scene_vertices", float32Bytes(vertices),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	if s.indexCount > 0 {
		s.indexBuf, err = b.upload("scene_indices", uint32Bytes(desc.VertexData.Indices),
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
	}

	block := newUniformBlock(desc, b.width, b.height)
	s.uniformBuf, err = b.upload("scene_uniforms", block.bytes(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	s.vertexModule, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "scene_vertex_shader",
		Source: hal.ShaderSource{SPIRV: prog.Vertex},
	})
	if err != nil {
		return &ShaderCompileError{Stage: "vertex", Diagnostic: err.Error()}
	}
	s.fragmentModule, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "scene_fragment_shader",
		Source: hal.ShaderSource{SPIRV: prog.Fragment},
	})
	if err != nil {
		return &ShaderCompileError{Stage: "fragment", Diagnostic: err.Error()}
	}

	s.bindLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "scene_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create scene bind group layout: %w", err)
	}

	s.pipeLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "scene_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create scene pipeline layout: %w", err)
	}

	s.pipeline, err = b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "scene_pipeline",
		Layout: s.pipeLayout,
		Vertex: hal.VertexState{
			Module:     s.vertexModule,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    sceneVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     s.fragmentModule,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    SurfaceFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return &ShaderCompileError{Stage: "pipeline", Diagnostic: err.Error()}
	}

	s.bindGroup, err = b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "scene_uniform_bind",
		Layout: s.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: s.uniformBuf.NativeHandle(), Offset: 0, Size: UniformBlockSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create scene bind group: %w", err)
	}
	return nil
}

// upload creates a buffer sized to data and writes data into it.
func (b *Builder) upload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		b.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}

// sceneVertexLayout matches a vertex shader input of
//
//	@location(0) position: vec3<f32>
func sceneVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

func float32Bytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)
	putFloats(buf, fs)
	return buf
}

func uint32Bytes(us []uint32) []byte {
	buf := make([]byte, len(us)*4)
	for i, u := range us {
		binary.LittleEndian.PutUint32(buf[i*4:], u)
	}
	return buf
}

// CompileCacheStats reports the shared SPIR-V module cache.
func CompileCacheStats() spvcache.Stats { return compiled.Stats() }
