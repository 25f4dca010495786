package backend

import (
	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/evaluator"
)

// TreeWalkBackend wraps the tree-walk interpreter.
type TreeWalkBackend struct{}

// NewTreeWalk creates a new tree-walk backend.
func NewTreeWalk() *TreeWalkBackend {
	return &TreeWalkBackend{}
}

// Run evaluates the expression by walking the tree. Every run goes through
// the resolver chain on a cache miss, so repeated runs warm the per-site
// executor caches as a side effect.
func (b *TreeWalkBackend) Run(root ast.Expression, target any, ctx *dispatch.EvalContext) (dispatch.TypedValue, error) {
	eval := evaluator.New()
	return eval.Eval(root, evaluator.NewState(target, ctx))
}

// Name returns the backend name.
func (b *TreeWalkBackend) Name() string {
	return "tree-walk"
}
