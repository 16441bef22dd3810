// Package gpudev opens the hal device and queue that scene sessions render
// with: a real adapter, the noop backend for headless runs and tests, or a
// device shared by a host application.
package gpudev

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Backend names accepted by Open.
const (
	BackendNoop   = "noop"
	BackendVulkan = "vulkan"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("gpudev: unknown backend")

// Device bundles an opened device with the objects needed to release it.
type Device struct {
	Device hal.Device
	Queue  hal.Queue

	// Adapter is the human-readable adapter name.
	Adapter string

	instance hal.Instance
	external bool // shared device: Close must not destroy it
	closed   bool
}

// Open creates an instance for the named backend and opens the first
// suitable adapter, preferring discrete and integrated GPUs.
func Open(backend string) (*Device, error) {
	var (
		instance hal.Instance
		err      error
	)
	switch backend {
	case BackendNoop, "":
		api := noop.API{}
		instance, err = api.CreateInstance(nil)
	case BackendVulkan:
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("vulkan backend not available")
		}
		instance, err = b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Adapter:  selected.Info.Name,
		instance: instance,
	}, nil
}

// FromProvider uses the device of a host application. The provider must
// also expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. Close on the result does not destroy the shared device.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, fmt.Errorf("gpudev: nil DeviceProvider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpudev: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpudev: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpudev: provider HalQueue is not hal.Queue")
	}
	return &Device{Device: device, Queue: queue, Adapter: "shared", external: true}, nil
}

// Shared reports whether the device belongs to a host application.
func (d *Device) Shared() bool { return d.external }

// Close releases the device and instance. Safe to call multiple times.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.external {
		// Shared devices belong to the provider.
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}
