// Package host models the pieces of the hosting view that a render session
// depends on: a cooperative "run before next repaint" frame scheduler and a
// fixed-size mount point that holds at most one output surface.
//
// A Loop is the single logical thread of control. Tasks posted from other
// goroutines and frame callbacks all run on the goroutine driving the loop,
// so code running inside them needs no locking of its own.
//
// Usage:
//
//	loop := host.NewLoop(60)
//	go loop.Run(ctx)
//	_ = loop.Do(ctx, func() { controller.Apply(payload) })
package host
