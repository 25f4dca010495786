package dispatch

import "fmt"

// AccessError is the failure mode shared by resolvers and executors. A
// resolver returns one when it located a candidate method that cannot be
// bound; an executor returns one when invocation fails.
//
// The cause distinguishes who failed. When the cause is a *TargetError the
// binding mechanism dispatched successfully and the method's own code
// failed; anything else means the binding itself rejected the call (stale
// cache entry, argument shapes that no longer fit) and a single re-resolution
// is worth attempting.
type AccessError struct {
	Message string
	Cause   error
}

func (e *AccessError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}

func accessErrorf(format string, args ...any) *AccessError {
	return &AccessError{Message: fmt.Sprintf(format, args...)}
}

// TargetError marks a failure raised by the invoked method's own code.
// Exactly one of Err and PanicValue is set: Err holds a non-nil error the
// method returned as its final result, PanicValue holds a recovered panic.
//
// The call site treats a recovered panic the way it treats any runtime
// failure in user code: it is re-raised unmodified. A returned error is
// surfaced wrapped, with the call site and target type attached.
type TargetError struct {
	Err        error
	PanicValue any
}

func (e *TargetError) Error() string {
	if e.PanicValue != nil {
		return fmt.Sprintf("method panicked: %v", e.PanicValue)
	}
	return "method returned error: " + e.Err.Error()
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
