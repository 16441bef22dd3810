// Package restrack wraps a hal.Device and keeps count of the GPU objects it
// has created and not yet destroyed.
//
// The counts back the "no GPU resource accumulation" guarantees of the scene
// session and are exported as a metrics gauge. Counting is per kind; object
// identity is not tracked because backends may hand out equal handles.
package restrack

import (
	"sort"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// Object kinds counted by a Device.
const (
	KindBuffer          = "buffer"
	KindShaderModule    = "shader_module"
	KindBindGroupLayout = "bind_group_layout"
	KindPipelineLayout  = "pipeline_layout"
	KindRenderPipeline  = "render_pipeline"
	KindBindGroup       = "bind_group"
	KindTexture         = "texture"
	KindTextureView     = "texture_view"
)

// Device is a hal.Device that counts live objects. All methods not listed
// here pass straight through to the wrapped device.
type Device struct {
	hal.Device

	mu       sync.Mutex
	live     map[string]int
	created  int
	overfree int
}

// Wrap returns a counting wrapper around d.
func Wrap(d hal.Device) *Device {
	return &Device{Device: d, live: make(map[string]int)}
}

// Unwrap returns the wrapped device.
func (d *Device) Unwrap() hal.Device { return d.Device }

func (d *Device) inc(kind string) {
	d.mu.Lock()
	d.live[kind]++
	d.created++
	d.mu.Unlock()
}

func (d *Device) dec(kind string) {
	d.mu.Lock()
	if d.live[kind] == 0 {
		d.overfree++
	} else {
		d.live[kind]--
	}
	d.mu.Unlock()
}

// Live returns the number of live objects across all kinds.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.live {
		n += c
	}
	return n
}

// LiveOf returns the number of live objects of one kind.
func (d *Device) LiveOf(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[kind]
}

// Created returns the number of objects created over the device lifetime.
func (d *Device) Created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

// OverReleased returns how many destroy calls found no live object of
// their kind. A non-zero value means something was released twice.
func (d *Device) OverReleased() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overfree
}

// Kinds returns the kinds with live objects, sorted.
func (d *Device) Kinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]string, 0, len(d.live))
	for k, c := range d.live {
		if c > 0 {
			kinds = append(kinds, k)
		}
	}
	sort.Strings(kinds)
	return kinds
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	b, err := d.Device.CreateBuffer(desc)
	if err == nil {
		d.inc(KindBuffer)
	}
	return b, err
}

func (d *Device) DestroyBuffer(b hal.Buffer) {
	d.Device.DestroyBuffer(b)
	d.dec(KindBuffer)
}

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	m, err := d.Device.CreateShaderModule(desc)
	if err == nil {
		d.inc(KindShaderModule)
	}
	return m, err
}

func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	d.Device.DestroyShaderModule(m)
	d.dec(KindShaderModule)
}

func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	l, err := d.Device.CreateBindGroupLayout(desc)
	if err == nil {
		d.inc(KindBindGroupLayout)
	}
	return l, err
}

func (d *Device) DestroyBindGroupLayout(l hal.BindGroupLayout) {
	d.Device.DestroyBindGroupLayout(l)
	d.dec(KindBindGroupLayout)
}

func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	l, err := d.Device.CreatePipelineLayout(desc)
	if err == nil {
		d.inc(KindPipelineLayout)
	}
	return l, err
}

func (d *Device) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.Device.DestroyPipelineLayout(l)
	d.dec(KindPipelineLayout)
}

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	p, err := d.Device.CreateRenderPipeline(desc)
	if err == nil {
		d.inc(KindRenderPipeline)
	}
	return p, err
}

func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.Device.DestroyRenderPipeline(p)
	d.dec(KindRenderPipeline)
}

func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	g, err := d.Device.CreateBindGroup(desc)
	if err == nil {
		d.inc(KindBindGroup)
	}
	return g, err
}

func (d *Device) DestroyBindGroup(g hal.BindGroup) {
	d.Device.DestroyBindGroup(g)
	d.dec(KindBindGroup)
}

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	t, err := d.Device.CreateTexture(desc)
	if err == nil {
		d.inc(KindTexture)
	}
	return t, err
}

func (d *Device) DestroyTexture(t hal.Texture) {
	d.Device.DestroyTexture(t)
	d.dec(KindTexture)
}

func (d *Device) CreateTextureView(t hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	v, err := d.Device.CreateTextureView(t, desc)
	if err == nil {
		d.inc(KindTextureView)
	}
	return v, err
}

func (d *Device) DestroyTextureView(v hal.TextureView) {
	d.Device.DestroyTextureView(v)
	d.dec(KindTextureView)
}
