package dispatch

import (
	"reflect"

	"github.com/funvibe/exprel/internal/typesystem"
)

// Dynamic is implemented by targets that bind methods themselves at call
// time, the way a dynamic proxy would. Calls on Dynamic targets are resolved
// by DynamicResolver into opaque executors and never reach the compiled path.
type Dynamic interface {
	CallMethod(name string, args []any) (any, error)
}

var dynamicType = reflect.TypeOf((*Dynamic)(nil)).Elem()

// DynamicResolver produces executors for Dynamic targets. Resolution is
// optimistic: whether the named method exists is only known when the target
// handles the call, so a missing method surfaces as the target's own error.
type DynamicResolver struct{}

func (r *DynamicResolver) Resolve(ctx *EvalContext, target any, name string, argTypes []*typesystem.TypeDescriptor) (MethodExecutor, error) {
	if _, ok := target.(Dynamic); !ok {
		return nil, nil
	}
	return &DynamicExecutor{name: name}, nil
}

// DynamicExecutor is the opaque executor variant: it delegates the whole
// call to the target and exposes no metadata for compilation.
type DynamicExecutor struct {
	name string
}

func (de *DynamicExecutor) Execute(ctx *EvalContext, target any, args []any) (tv TypedValue, err error) {
	d, ok := target.(Dynamic)
	if !ok {
		return Null, accessErrorf("bound to a dynamic target, target is now %T", target)
	}
	defer func() {
		if r := recover(); r != nil {
			tv = Null
			err = &AccessError{Message: "method invocation failed", Cause: &TargetError{PanicValue: r}}
		}
	}()
	result, callErr := d.CallMethod(de.name, args)
	if callErr != nil {
		return Null, &AccessError{Message: "method invocation failed", Cause: &TargetError{Err: callErr}}
	}
	return NewTypedValue(result), nil
}
