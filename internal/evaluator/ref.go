package evaluator

import (
	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/token"
	"github.com/funvibe/exprel/internal/typesystem"
)

// Ref is a reference to the value a node produces: readable always, writable
// never for call sites. Method-call results cannot be assignment targets.
type Ref interface {
	GetValue() (dispatch.TypedValue, error)
	SetValue(newValue any) error
	IsWritable() bool
}

// RefFor builds a reference for a node. For a method call the target and
// arguments are captured eagerly, with the same null gate as direct
// evaluation; a null-safe call on a null target yields the null reference.
func (e *Evaluator) RefFor(node ast.Expression, s *State) (Ref, error) {
	mc, ok := node.(*ast.MethodCall)
	if !ok {
		return &valueRef{eval: e, node: node, state: s}, nil
	}

	target, err := e.evalTarget(mc.Target, s)
	if err != nil {
		return nil, err
	}
	args, err := e.evalArguments(mc.Args, s)
	if err != nil {
		return nil, err
	}
	if target.IsNull() {
		if !mc.NullSafe {
			return nil, newError(mc.GetToken(), MethodCallOnNullNotAllowed,
				formatMethod(mc.Name, typesystem.ForValues(args)))
		}
		return nullRef{tok: mc.GetToken()}, nil
	}
	return &methodRef{eval: e, node: mc, state: s, target: target, args: args}, nil
}

// methodRef invokes the captured call on read and rejects every write.
type methodRef struct {
	eval   *Evaluator
	node   *ast.MethodCall
	state  *State
	target dispatch.TypedValue
	args   []any
}

func (r *methodRef) GetValue() (dispatch.TypedValue, error) {
	result, err := r.eval.invokeMethod(r.node, r.state.Ctx, r.target, r.args)
	if err != nil {
		return dispatch.Null, err
	}
	r.eval.updateExitType(r.node)
	return result, nil
}

func (r *methodRef) SetValue(newValue any) error {
	return newError(r.node.GetToken(), SetValueNotSupported, r.node.String())
}

func (r *methodRef) IsWritable() bool {
	return false
}

// nullRef is the reference a null-safe call on a null target produces.
type nullRef struct {
	tok token.Token
}

func (r nullRef) GetValue() (dispatch.TypedValue, error) {
	return dispatch.Null, nil
}

func (r nullRef) SetValue(newValue any) error {
	return newError(r.tok, SetValueNotSupported, "null reference")
}

func (r nullRef) IsWritable() bool {
	return false
}

// valueRef delegates reads to plain evaluation for non-call nodes.
type valueRef struct {
	eval  *Evaluator
	node  ast.Expression
	state *State
}

func (r *valueRef) GetValue() (dispatch.TypedValue, error) {
	return r.eval.Eval(r.node, r.state)
}

func (r *valueRef) SetValue(newValue any) error {
	return newError(r.node.GetToken(), SetValueNotSupported, r.node.String())
}

func (r *valueRef) IsWritable() bool {
	return false
}
