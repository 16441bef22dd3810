package shaderscene

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	defaultFrameTimeout = 5 * time.Second
	submitPollInterval  = 100 * time.Microsecond
)

// GPUScene owns the GPU objects of one built scene. It is created by a
// Builder and released with Destroy, either by the render session that
// took ownership of it or by the builder when construction fails.
type GPUScene struct {
	device hal.Device
	queue  hal.Queue

	vertexBuf  hal.Buffer
	indexBuf   hal.Buffer
	uniformBuf hal.Buffer

	vertexModule   hal.ShaderModule
	fragmentModule hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipeLayout     hal.PipelineLayout
	pipeline       hal.RenderPipeline
	bindGroup      hal.BindGroup

	vertexCount  uint32
	indexCount   uint32
	timeOffset   uint64
	clear        gputypes.Color
	frameTimeout time.Duration

	destroyed bool
}

// VertexCount returns the number of vertices in the vertex buffer.
func (s *GPUScene) VertexCount() uint32 { return s.vertexCount }

// IndexCount returns the number of indices, 0 for non-indexed geometry.
func (s *GPUScene) IndexCount() uint32 { return s.indexCount }

// ClearColor returns the background colour the scene clears to.
func (s *GPUScene) ClearColor() gputypes.Color { return s.clear }

// SetTime writes the time uniform. Only the 4 bytes of the time field
// are uploaded.
func (s *GPUScene) SetTime(seconds float32) error {
	if s.destroyed {
		return ErrSessionDisposed
	}
	if err := s.queue.WriteBuffer(s.uniformBuf, s.timeOffset, timeBytes(seconds)); err != nil {
		return fmt.Errorf("write time uniform: %w", err)
	}
	return nil
}

// Draw clears view to the background colour, draws the mesh and waits for
// the GPU to finish.
func (s *GPUScene) Draw(view hal.TextureView) error {
	if s.destroyed {
		return ErrSessionDisposed
	}
	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "scene_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("scene_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "scene_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: s.clear,
		}},
	})
	s.record(rp)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	index, err := s.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return s.waitSubmission(index)
}

// waitSubmission polls the queue until the submission completes or the
// frame timeout passes.
func (s *GPUScene) waitSubmission(index uint64) error {
	deadline := time.Now().Add(s.frameTimeout)
	for s.queue.PollCompleted() < index {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrFrameTimeout, index, s.frameTimeout)
		}
		time.Sleep(submitPollInterval)
	}
	return nil
}

func (s *GPUScene) record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(s.pipeline)
	rp.SetBindGroup(0, s.bindGroup, nil)
	rp.SetVertexBuffer(0, s.vertexBuf, 0)
	if s.indexBuf != nil {
		rp.SetIndexBuffer(s.indexBuf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(s.indexCount, 1, 0, 0, 0)
		return
	}
	rp.Draw(s.vertexCount, 1, 0, 0)
}

// Destroy releases every GPU object of the scene in reverse creation
// order. It is safe to call more than once and on a partially built scene.
func (s *GPUScene) Destroy() {
	if s.destroyed || s.device == nil {
		return
	}
	s.destroyed = true

	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.pipeline != nil {
		s.device.DestroyRenderPipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.bindLayout != nil {
		s.device.DestroyBindGroupLayout(s.bindLayout)
		s.bindLayout = nil
	}
	if s.fragmentModule != nil {
		s.device.DestroyShaderModule(s.fragmentModule)
		s.fragmentModule = nil
	}
	if s.vertexModule != nil {
		s.device.DestroyShaderModule(s.vertexModule)
		s.vertexModule = nil
	}
	if s.uniformBuf != nil {
		s.device.DestroyBuffer(s.uniformBuf)
		s.uniformBuf = nil
	}
	if s.indexBuf != nil {
		s.device.DestroyBuffer(s.indexBuf)
		s.indexBuf = nil
	}
	if s.vertexBuf != nil {
		s.device.DestroyBuffer(s.vertexBuf)
		s.vertexBuf = nil
	}
}
