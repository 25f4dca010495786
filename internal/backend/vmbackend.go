package backend

import (
	"errors"
	"fmt"

	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/vm"
)

// VMBackend executes expressions through the bytecode VM. Compilation can
// only snapshot resolutions the interpreter has already cached, so every run
// starts with one interpreted pass to warm the call sites; when the tree is
// then compilable the compiled chunk re-runs and its result is returned. A
// stale chunk falls back to the interpreted result.
type VMBackend struct {
	interpreter *TreeWalkBackend
}

// NewVM creates a new VM backend.
func NewVM() *VMBackend {
	return &VMBackend{interpreter: NewTreeWalk()}
}

// Run compiles and executes the expression.
func (b *VMBackend) Run(root ast.Expression, target any, ctx *dispatch.EvalContext) (dispatch.TypedValue, error) {
	warm, err := b.interpreter.Run(root, target, ctx)
	if err != nil {
		return dispatch.Null, err
	}
	if !vm.Compilable(root) {
		return warm, nil
	}

	chunk, err := vm.NewCompiler().Compile(root)
	if err != nil {
		return dispatch.Null, fmt.Errorf("compilation error: %w", err)
	}
	result, err := vm.New().Run(chunk, target, ctx)
	if errors.Is(err, vm.ErrStale) {
		// The shapes drifted between the warm-up pass and the compiled run.
		return warm, nil
	}
	if err != nil {
		return dispatch.Null, err
	}
	return result, nil
}

// Name returns the backend name.
func (b *VMBackend) Name() string {
	return "vm"
}

// Disassemble returns the bytecode disassembly for debugging. The expression
// must have been run at least once so its call sites carry resolutions.
func (b *VMBackend) Disassemble(root ast.Expression, target any, ctx *dispatch.EvalContext) (string, error) {
	if _, err := b.interpreter.Run(root, target, ctx); err != nil {
		return "", err
	}
	if !vm.Compilable(root) {
		return "", fmt.Errorf("expression is not compilable")
	}
	chunk, err := vm.NewCompiler().Compile(root)
	if err != nil {
		return "", fmt.Errorf("compilation error: %w", err)
	}
	return vm.Disassemble(chunk, "expression"), nil
}
