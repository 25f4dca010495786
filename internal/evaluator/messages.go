package evaluator

import (
	"fmt"

	"github.com/funvibe/exprel/internal/token"
)

// Message identifies one evaluation failure category. The numbered codes
// keep error identity stable for callers that match on them.
type Message int

const (
	// MethodNotFound: no resolver produced an executor and none reported
	// access trouble.
	MethodNotFound Message = iota + 1001
	// MethodCallOnNullNotAllowed: target absent and the call is not
	// null-safe.
	MethodCallOnNullNotAllowed
	// ProblemLocatingMethod: a resolver located a candidate that cannot be
	// invoked.
	ProblemLocatingMethod
	// ExceptionDuringMethodInvocation: a mechanism-level invocation failure
	// survived the one-time re-resolution.
	ExceptionDuringMethodInvocation
	// InvocationTargetFailure: the resolved method's own code returned an
	// error.
	InvocationTargetFailure
	// SetValueNotSupported: attempted write through a read-only reference.
	SetValueNotSupported
	// PropertyNotFound: no readable member with the requested name.
	PropertyNotFound
	// PropertyReadOnNullNotAllowed: member read on a null target without
	// null safety.
	PropertyReadOnNullNotAllowed
	// TypeNotFound: T(name) names no registered type.
	TypeNotFound
	// VariableNotFound: #name is not bound in the evaluation context.
	VariableNotFound
)

var messageFormats = map[Message]string{
	MethodNotFound:                  "method %s cannot be found on type %s",
	MethodCallOnNullNotAllowed:      "method call %s is not allowed on a null target",
	ProblemLocatingMethod:           "a problem occurred while locating method %s on type %s",
	ExceptionDuringMethodInvocation: "a problem occurred when trying to execute method '%s' on object of type %s: %s",
	InvocationTargetFailure:         "a problem occurred when trying to execute method '%s' on object of type %s",
	SetValueNotSupported:            "setValue is not supported for %s",
	PropertyNotFound:                "property or field '%s' cannot be found on type %s",
	PropertyReadOnNullNotAllowed:    "property or field '%s' cannot be read from a null target",
	TypeNotFound:                    "type '%s' is not registered in the evaluation context",
	VariableNotFound:                "variable '#%s' is not defined",
}

// EvalError is a structured evaluation failure carrying the source position,
// the failure category, and the underlying cause when one exists.
type EvalError struct {
	Line    int
	Column  int
	Code    Message
	Message string
	Cause   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error at %d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}

// Is matches on the failure category so callers can use errors.Is with a
// bare-code sentinel.
func (e *EvalError) Is(target error) bool {
	t, ok := target.(*EvalError)
	return ok && t.Code == e.Code && t.Line == 0 && t.Column == 0
}

// Code.Sentinel returns an error value usable with errors.Is to match any
// EvalError of this category.
func (m Message) Sentinel() error {
	return &EvalError{Code: m, Message: messageFormats[m]}
}

// NewError builds a categorized evaluation failure at an explicit source
// position. Both execution backends report through it so failures look the
// same however an expression ran.
func NewError(line, column int, code Message, args ...any) *EvalError {
	return &EvalError{
		Line:    line,
		Column:  column,
		Code:    code,
		Message: fmt.Sprintf(messageFormats[code], args...),
	}
}

// NewErrorWithCause is NewError with an underlying cause attached.
func NewErrorWithCause(line, column int, code Message, cause error, args ...any) *EvalError {
	err := NewError(line, column, code, args...)
	err.Cause = cause
	return err
}

func newError(tok token.Token, code Message, args ...any) *EvalError {
	return NewError(tok.Line, tok.Column, code, args...)
}

func newErrorWithCause(tok token.Token, code Message, cause error, args ...any) *EvalError {
	err := newError(tok, code, args...)
	err.Cause = cause
	return err
}
