package shaderscene

import "time"

// Observer receives controller and session events. Implementations are
// called on the loop goroutine and must not block.
type Observer interface {
	// PayloadRejected is called with ValidationError.Reason.
	PayloadRejected(reason string)

	// CompileFailed is called with ShaderCompileError.Stage.
	CompileFailed(stage string)

	// BuildFailed is called when GPU scene construction or session start
	// fails for a reason other than shader compilation.
	BuildFailed()

	// FetchFailed is called when the generator service could not be
	// reached or answered with an error.
	FetchFailed()

	SessionStarted()

	// SessionDisposed is called after a session was disposed; err is the
	// *DisposalError, if any.
	SessionDisposed(err error)

	// FrameRendered is called after each submitted frame with the time
	// spent encoding and waiting for it.
	FrameRendered(d time.Duration)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) PayloadRejected(string)      {}
func (NopObserver) CompileFailed(string)        {}
func (NopObserver) BuildFailed()                {}
func (NopObserver) FetchFailed()                {}
func (NopObserver) SessionStarted()             {}
func (NopObserver) SessionDisposed(error)       {}
func (NopObserver) FrameRendered(time.Duration) {}
