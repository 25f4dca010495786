package evaluator

import (
	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
)

func (e *Evaluator) evalPropertyAccess(node *ast.PropertyAccess, s *State) (dispatch.TypedValue, error) {
	target, err := e.evalTarget(node.Target, s)
	if err != nil {
		return dispatch.Null, err
	}
	if target.IsNull() {
		if node.NullSafe {
			return dispatch.Null, nil
		}
		return dispatch.Null, newError(node.GetToken(), PropertyReadOnNullNotAllowed, node.Name)
	}

	accessor := node.Cache.Load()
	if accessor == nil || !accessor.Suitable(target.Type) {
		node.Cache.Store(nil)
		accessor, err = e.resolveProperty(node, target)
		if err != nil {
			return dispatch.Null, err
		}
		node.Cache.Store(accessor)
	}

	result, err := accessor.Read(target.Value)
	if err == nil {
		return result, nil
	}
	if _, ok := err.(*dispatch.AccessError); !ok {
		return dispatch.Null, err
	}

	// Stale accessor (target type drifted between the guard check and the
	// read, possible under concurrent evaluation): resolve freshly once.
	node.Cache.Store(nil)
	accessor, rerr := e.resolveProperty(node, target)
	if rerr != nil {
		return dispatch.Null, rerr
	}
	node.Cache.Store(accessor)
	return accessor.Read(target.Value)
}

func (e *Evaluator) resolveProperty(node *ast.PropertyAccess, target dispatch.TypedValue) (*dispatch.PropertyAccessor, error) {
	accessor, err := dispatch.ResolveProperty(target.Value, node.Name)
	if err != nil {
		return nil, newErrorWithCause(node.GetToken(), PropertyNotFound, err, node.Name, targetTypeName(target))
	}
	if accessor == nil {
		return nil, newError(node.GetToken(), PropertyNotFound, node.Name, targetTypeName(target))
	}
	return accessor, nil
}
