package evaluator

import (
	"reflect"

	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/typesystem"
)

func (e *Evaluator) evalMethodCall(node *ast.MethodCall, s *State) (dispatch.TypedValue, error) {
	target, err := e.evalTarget(node.Target, s)
	if err != nil {
		return dispatch.Null, err
	}
	args, err := e.evalArguments(node.Args, s)
	if err != nil {
		return dispatch.Null, err
	}
	result, err := e.invokeMethod(node, s.Ctx, target, args)
	if err != nil {
		return dispatch.Null, err
	}
	e.updateExitType(node)
	return result, nil
}

// invokeMethod performs one call-site invocation: null gate, cache lookup,
// resolver fallback, exception reclassification. Mechanism-level staleness of
// a cached executor is recovered exactly once by falling through to full
// resolution; every other failure surfaces immediately.
func (e *Evaluator) invokeMethod(node *ast.MethodCall, ctx *dispatch.EvalContext,
	target dispatch.TypedValue, args []any) (dispatch.TypedValue, error) {

	argTypes := typesystem.ForValues(args)
	if target.IsNull() {
		if node.NullSafe {
			return dispatch.Null, nil
		}
		return dispatch.Null, newError(node.GetToken(), MethodCallOnNullNotAllowed,
			formatMethod(node.Name, argTypes))
	}

	if executor := e.cachedExecutor(node, ctx, target, argTypes); executor != nil {
		result, err := executor.Execute(ctx, target.Value, args)
		if err == nil {
			return result, nil
		}
		// Two reasons this can fail: the invoked method itself raised a real
		// failure, or the cached binding has gone stale and rejected the
		// call. A target failure propagates without retry; a stale binding
		// is worth one fresh resolution.
		aerr, ok := err.(*dispatch.AccessError)
		if !ok {
			return dispatch.Null, err
		}
		if uerr := e.targetFailure(node, target, aerr); uerr != nil {
			return dispatch.Null, uerr
		}
		node.Cache.Store(nil)
	}

	// Either there was no usable cache entry or it no longer applied.
	executor, err := e.resolveExecutor(node, ctx, target, argTypes)
	if err != nil {
		return dispatch.Null, err
	}
	var staticType reflect.Type
	if tv, ok := target.Value.(dispatch.TypeValue); ok {
		staticType = tv.T
	}
	node.Cache.Store(dispatch.NewCachedExecutor(executor, staticType, target.Type, argTypes))

	result, err := executor.Execute(ctx, target.Value, args)
	if err == nil {
		return result, nil
	}
	aerr, ok := err.(*dispatch.AccessError)
	if !ok {
		return dispatch.Null, err
	}
	if uerr := e.targetFailure(node, target, aerr); uerr != nil {
		return dispatch.Null, uerr
	}
	return dispatch.Null, newErrorWithCause(node.GetToken(), ExceptionDuringMethodInvocation, aerr,
		node.Name, targetTypeName(target), aerr.Error())
}

// cachedExecutor returns the memoized executor when it may be reused. The
// cache is only consulted under the single default reflective resolver; a
// customized resolver chain may depend on context the guards cannot model,
// so caching is disabled for it. An unsuitable entry is cleared.
func (e *Evaluator) cachedExecutor(node *ast.MethodCall, ctx *dispatch.EvalContext,
	target dispatch.TypedValue, argTypes []*typesystem.TypeDescriptor) dispatch.MethodExecutor {

	resolvers := ctx.Resolvers()
	if len(resolvers) != 1 {
		return nil
	}
	if _, ok := resolvers[0].(*dispatch.ReflectiveResolver); !ok {
		return nil
	}
	entry := node.Cache.Load()
	if entry != nil && entry.Suitable(target.Value, target.Type, argTypes) {
		return entry.Get()
	}
	node.Cache.Store(nil)
	return nil
}

// resolveExecutor walks the resolver chain in order. The first executor wins;
// a located-but-inaccessible report stops the chain immediately and becomes
// the terminal outcome.
func (e *Evaluator) resolveExecutor(node *ast.MethodCall, ctx *dispatch.EvalContext,
	target dispatch.TypedValue, argTypes []*typesystem.TypeDescriptor) (dispatch.MethodExecutor, error) {

	var accessErr *dispatch.AccessError
	for _, resolver := range ctx.Resolvers() {
		executor, err := resolver.Resolve(ctx, target.Value, node.Name, argTypes)
		if err != nil {
			aerr, ok := err.(*dispatch.AccessError)
			if !ok {
				return nil, err
			}
			accessErr = aerr
			break
		}
		if executor != nil {
			return executor, nil
		}
	}

	method := formatMethod(node.Name, argTypes)
	typeName := targetTypeName(target)
	if accessErr != nil {
		return nil, newErrorWithCause(node.GetToken(), ProblemLocatingMethod, accessErr, method, typeName)
	}
	return nil, newError(node.GetToken(), MethodNotFound, method, typeName)
}

// targetFailure decides whether an access failure came from the invoked
// method's own code. A recovered panic is re-raised unmodified, exactly as
// the method raised it; a returned error is surfaced wrapped with the call
// site attached. A nil return means the failure was mechanism-level and the
// caller may retry resolution.
func (e *Evaluator) targetFailure(node *ast.MethodCall, target dispatch.TypedValue, aerr *dispatch.AccessError) error {
	terr, ok := aerr.Cause.(*dispatch.TargetError)
	if !ok {
		return nil
	}
	if terr.PanicValue != nil {
		panic(terr.PanicValue)
	}
	return newErrorWithCause(node.GetToken(), InvocationTargetFailure, terr.Err,
		node.Name, targetTypeName(target))
}

// updateExitType refreshes the compiled-path bookkeeping from the current
// cache entry. A null-safe call producing a Go value kind must widen its
// static exit type to the nullable form so both branches of the short
// circuit agree; the original kind is remembered for the box step.
func (e *Evaluator) updateExitType(node *ast.MethodCall) {
	entry := node.Cache.Load()
	if entry == nil {
		return
	}
	ce, ok := entry.Get().(dispatch.CompilableExecutor)
	if !ok {
		return
	}
	rt := ce.ResultType()
	if node.NullSafe && rt != nil && isValueKind(rt) {
		node.SetExitType(anyType, true)
		return
	}
	node.SetExitType(rt, false)
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// isValueKind reports a type that cannot hold null: the analog of a
// primitive result needing boxing at a null-safe join.
func isValueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	default:
		return true
	}
}

// formatMethod renders name(argType, argType) for diagnostics.
func formatMethod(name string, argTypes []*typesystem.TypeDescriptor) string {
	return name + typesystem.FormatTypes(argTypes)
}
