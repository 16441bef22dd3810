package gpudev

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestOpenNoop(t *testing.T) {
	d, err := Open(BackendNoop)
	if err != nil {
		t.Fatalf("Open(noop): %v", err)
	}
	if d.Device == nil || d.Queue == nil {
		t.Fatal("expected non-nil device and queue")
	}
	if d.Shared() {
		t.Error("noop device reported as shared")
	}
	d.Close()
	d.Close()
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open("metal-ish"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(unknown) = %v, want ErrUnknownBackend", err)
	}
}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device   { return nil }
func (plainProvider) Queue() gpucontext.Queue     { return nil }
func (plainProvider) Adapter() gpucontext.Adapter { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

type halProvider struct {
	plainProvider
	d *Device
}

func (p halProvider) HalDevice() any { return p.d.Device }
func (p halProvider) HalQueue() any  { return p.d.Queue }

func TestFromProvider(t *testing.T) {
	if _, err := FromProvider(nil); err == nil {
		t.Error("FromProvider(nil) succeeded")
	}
	if _, err := FromProvider(plainProvider{}); err == nil {
		t.Error("FromProvider without HAL accessors succeeded")
	}

	owner, err := Open(BackendNoop)
	if err != nil {
		t.Fatalf("Open(noop): %v", err)
	}
	defer owner.Close()

	shared, err := FromProvider(halProvider{d: owner})
	if err != nil {
		t.Fatalf("FromProvider: %v", err)
	}
	if !shared.Shared() || shared.Device != owner.Device {
		t.Error("shared device does not reuse the provider's device")
	}
	shared.Close()
}
