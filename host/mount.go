package host

import (
	"errors"
	"fmt"
)

// Common errors returned by Mount operations.
var (
	// ErrMountOccupied is returned when a surface is attached while another
	// one is still mounted.
	ErrMountOccupied = errors.New("host: mount point already holds a surface")

	// ErrNotAttached is returned when detaching a surface that is not the
	// one currently mounted.
	ErrNotAttached = errors.New("host: surface is not attached to this mount point")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("host: invalid dimensions")
)

// Surface is an output surface that can be shown in a mount point.
type Surface interface {
	// Size returns the surface size in pixels.
	Size() (width, height uint32)
}

// Mount is the rectangular region of the hosting view that a render
// session's output surface is attached to. It holds at most one surface.
//
// Mount is not safe for concurrent use; it belongs to the loop goroutine.
type Mount struct {
	width    uint32
	height   uint32
	attached Surface
	attaches int
}

// NewMount creates an empty mount point of the given logical size.
func NewMount(width, height int) (*Mount, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	return &Mount{width: uint32(width), height: uint32(height)}, nil //nolint:gosec // checked positive above
}

// Size returns the mount point size.
func (m *Mount) Size() (width, height uint32) {
	return m.width, m.height
}

// Attach shows s in the mount point.
func (m *Mount) Attach(s Surface) error {
	if s == nil {
		return fmt.Errorf("host: attach nil surface")
	}
	if m.attached != nil {
		return ErrMountOccupied
	}
	m.attached = s
	m.attaches++
	return nil
}

// Detach removes s from the mount point.
func (m *Mount) Detach(s Surface) error {
	if m.attached == nil || m.attached != s {
		return ErrNotAttached
	}
	m.attached = nil
	return nil
}

// Attached returns the mounted surface, or nil.
func (m *Mount) Attached() Surface {
	return m.attached
}

// Attaches returns how many surfaces have been attached over the mount
// point's lifetime.
func (m *Mount) Attaches() int {
	return m.attaches
}
