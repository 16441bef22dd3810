package shaderscene

import (
	"errors"
	"fmt"
	"strings"
)

// Payload rejection reasons. A *ValidationError matches exactly one of
// these with errors.Is.
var (
	// ErrMalformedPayload is returned when a required field is missing or a
	// field has the wrong shape.
	ErrMalformedPayload = errors.New("shaderscene: malformed payload")

	// ErrInvalidNumericData is returned when a numeric field is NaN or ±Inf.
	ErrInvalidNumericData = errors.New("shaderscene: invalid numeric data")

	// ErrIndexOutOfRange is returned when an index does not reference a vertex.
	ErrIndexOutOfRange = errors.New("shaderscene: index out of range")
)

// Other errors.
var (
	// ErrFetchFailed wraps failures of the scene generator service.
	ErrFetchFailed = errors.New("shaderscene: fetch failed")

	// ErrShaderCompile is matched by every *ShaderCompileError.
	ErrShaderCompile = errors.New("shaderscene: shader compile error")

	// ErrDisposal is matched by every *DisposalError.
	ErrDisposal = errors.New("shaderscene: disposal error")

	// ErrFrameTimeout is returned when the GPU does not finish a frame in
	// time.
	ErrFrameTimeout = errors.New("shaderscene: frame timed out")

	// ErrSessionDisposed is returned when a disposed session is started or
	// a destroyed scene is drawn.
	ErrSessionDisposed = errors.New("shaderscene: session disposed")

	// ErrSessionStarted is returned when a running session is started again.
	ErrSessionStarted = errors.New("shaderscene: session already started")

	// ErrControllerClosed is returned by a closed controller.
	ErrControllerClosed = errors.New("shaderscene: controller closed")
)

// ValidationError describes why a payload was rejected.
type ValidationError struct {
	// Kind is one of ErrMalformedPayload, ErrInvalidNumericData or
	// ErrIndexOutOfRange.
	Kind error

	// Field is the dotted external field name, e.g. "vertex_data.indices[3]".
	Field string

	// Detail is a human-readable explanation.
	Detail string
}

func (e *ValidationError) Error() string {
	msg := strings.TrimPrefix(e.Kind.Error(), "shaderscene: ")
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", msg, e.Field, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Reason returns a short metric-friendly name for the rejection kind.
func (e *ValidationError) Reason() string {
	switch e.Kind {
	case ErrInvalidNumericData:
		return "invalid_numeric_data"
	case ErrIndexOutOfRange:
		return "index_out_of_range"
	default:
		return "malformed_payload"
	}
}

func malformed(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: ErrMalformedPayload, Field: field, Detail: fmt.Sprintf(format, args...)}
}

// ShaderCompileError is returned when a shader stage fails to compile or
// the pipeline built from it is rejected by the device. Diagnostic is the
// compiler or driver message, unmodified.
type ShaderCompileError struct {
	// Stage is "vertex", "fragment" or "pipeline".
	Stage      string
	Diagnostic string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("shader compile error (%s): %s", e.Stage, e.Diagnostic)
}

func (e *ShaderCompileError) Is(target error) bool { return target == ErrShaderCompile }

// DisposalError reports failures while detaching or releasing a session.
// Every release step has been attempted by the time it is returned.
type DisposalError struct {
	Err error
}

func (e *DisposalError) Error() string { return "disposal error: " + e.Err.Error() }

func (e *DisposalError) Unwrap() error { return e.Err }

func (e *DisposalError) Is(target error) bool { return target == ErrDisposal }
