package shaderscene

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Surface is the output surface of a render session: a colour texture the
// size of the mount point and the view the scene renders into.
type Surface struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

func newSurface(device hal.Device, width, height uint32) (*Surface, error) {
	s := &Surface{device: device, width: width, height: height}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "scene_surface",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        SurfaceFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create surface texture: %w", err)
	}
	s.tex = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "scene_surface_view",
	})
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("create surface view: %w", err)
	}
	s.view = view
	return s, nil
}

// Size returns the surface size in pixels.
func (s *Surface) Size() (width, height uint32) { return s.width, s.height }

// View returns the render target view, nil after Destroy.
func (s *Surface) View() hal.TextureView { return s.view }

// Destroy releases the view and texture. It is safe to call more than once.
func (s *Surface) Destroy() {
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
}
