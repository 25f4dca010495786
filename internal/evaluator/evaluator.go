// Package evaluator walks the expression AST against a root Go object. It is
// the interpreted execution path; the compiled path in internal/vm must agree
// with it exactly.
package evaluator

import (
	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
)

// State carries one evaluation's inputs: the root object and the evaluation
// context. Argument expressions always evaluate against the root, never
// against the current chain target.
type State struct {
	Root dispatch.TypedValue
	Ctx  *dispatch.EvalContext
}

// NewState builds evaluation state for a root object. A nil ctx gets the
// default context with the single reflective resolver.
func NewState(root any, ctx *dispatch.EvalContext) *State {
	if ctx == nil {
		ctx = dispatch.NewEvalContext()
	}
	return &State{Root: dispatch.NewTypedValue(root), Ctx: ctx}
}

type Evaluator struct{}

func New() *Evaluator {
	return &Evaluator{}
}

// Eval evaluates a node and returns its typed value. The engine is
// synchronous and never blocks; concurrent evaluations of a shared tree are
// safe because per-node caches are replaced atomically as whole entries.
func (e *Evaluator) Eval(node ast.Expression, s *State) (dispatch.TypedValue, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return dispatch.NewTypedValue(n.Value), nil
	case *ast.FloatLiteral:
		return dispatch.NewTypedValue(n.Value), nil
	case *ast.StringLiteral:
		return dispatch.NewTypedValue(n.Value), nil
	case *ast.BooleanLiteral:
		return dispatch.NewTypedValue(n.Value), nil
	case *ast.NilLiteral:
		return dispatch.Null, nil
	case *ast.VariableRef:
		return e.evalVariableRef(n, s)
	case *ast.TypeRef:
		return e.evalTypeRef(n, s)
	case *ast.PropertyAccess:
		return e.evalPropertyAccess(n, s)
	case *ast.MethodCall:
		return e.evalMethodCall(n, s)
	default:
		return dispatch.Null, &EvalError{Code: MethodNotFound, Message: "unsupported expression node"}
	}
}

func (e *Evaluator) evalVariableRef(node *ast.VariableRef, s *State) (dispatch.TypedValue, error) {
	v, ok := s.Ctx.Variable(node.Name)
	if !ok {
		return dispatch.Null, newError(node.GetToken(), VariableNotFound, node.Name)
	}
	return dispatch.NewTypedValue(v), nil
}

func (e *Evaluator) evalTypeRef(node *ast.TypeRef, s *State) (dispatch.TypedValue, error) {
	t, ok := s.Ctx.TypeNamed(node.Name)
	if !ok {
		return dispatch.Null, newError(node.GetToken(), TypeNotFound, node.Name)
	}
	return dispatch.NewTypedValue(dispatch.TypeValue{T: t}), nil
}

// evalTarget evaluates a member expression's target; a nil target node means
// the root object.
func (e *Evaluator) evalTarget(target ast.Expression, s *State) (dispatch.TypedValue, error) {
	if target == nil {
		return s.Root, nil
	}
	return e.Eval(target, s)
}

// evalArguments evaluates argument children in order against the root.
func (e *Evaluator) evalArguments(args []ast.Expression, s *State) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		tv, err := e.Eval(arg, s)
		if err != nil {
			return nil, err
		}
		values[i] = tv.Value
	}
	return values, nil
}

func targetTypeName(target dispatch.TypedValue) string {
	if tv, ok := target.Value.(dispatch.TypeValue); ok {
		return tv.T.String()
	}
	return target.Type.String()
}
