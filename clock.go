package shaderscene

import "time"

// Clock is the monotonic time source a session measures elapsed time
// with. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now, whose readings carry the
// monotonic clock.
func SystemClock() Clock { return systemClock{} }
