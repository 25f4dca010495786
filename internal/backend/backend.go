// Package backend provides an interface for different execution backends.
// This allows switching between the tree-walk interpreter and the VM.
package backend

import (
	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
)

// Backend evaluates a parsed expression against a root object.
type Backend interface {
	// Run evaluates root against target and returns the result.
	Run(root ast.Expression, target any, ctx *dispatch.EvalContext) (dispatch.TypedValue, error)

	// Name returns the backend name for display.
	Name() string
}
