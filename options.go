package shaderscene

// ControllerOption configures a Controller during creation.
//
// Example:
//
//	c := shaderscene.NewController(dev, queue, loop, mount,
//	    shaderscene.WithClock(clock),
//	    shaderscene.WithObserver(metrics))
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	clock    Clock
	observer Observer
}

func defaultOptions() controllerOptions {
	return controllerOptions{
		clock:    SystemClock(),
		observer: NopObserver{},
	}
}

// WithClock sets the clock sessions measure elapsed time with.
func WithClock(c Clock) ControllerOption {
	return func(o *controllerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithObserver sets the receiver of controller and session events.
func WithObserver(obs Observer) ControllerOption {
	return func(o *controllerOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}
