// Package shaderscene renders generated shader scenes into a fixed region
// of a hosting view.
//
// A scene arrives as an untrusted payload: WGSL vertex and fragment
// shaders, vertex positions with optional indices, initial uniforms, a
// camera placement, a background colour and a mesh scale. Validate turns
// the payload into a Description, rejecting malformed or non-finite data
// and out-of-range indices. A Builder compiles the shaders and creates the
// GPU objects of the scene. A Session owns one built scene, renders it
// once per scheduler frame with an advancing time uniform and releases
// everything it holds when disposed.
//
// # Controller
//
// Controller ties these together for a single mount point:
//
//	loop := host.NewLoop(60)
//	mount, _ := host.NewMount(800, 600)
//	c := shaderscene.NewController(dev.Device, dev.Queue, loop, mount)
//
//	if err := c.Apply(payload); err != nil {
//	    // err is recorded in c.State().Error as well
//	}
//
// At most one session is live at a time. Applying a new scene disposes the
// old session before any of the new scene's GPU objects are created. A
// payload that fails validation or shader compilation leaves the running
// scene untouched.
//
// # Threading
//
// Controllers and sessions are driven by a host.Scheduler and must only
// be used from the goroutine that runs it. host.Loop provides Post and Do
// for handing work to that goroutine.
//
// # Logging
//
// The package is silent by default. Call SetLogger to enable logging.
package shaderscene
