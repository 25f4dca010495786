package vm

import (
	"reflect"

	"github.com/funvibe/exprel/internal/dispatch"
)

// BoundCall is the compiled snapshot of one stable call-site resolution. It
// carries everything a direct call needs: the callable, the receiver cast,
// parameter types for the staleness guard, and the return conventions.
// The VM invokes it without any resolver involvement.
type BoundCall struct {
	Name            string
	Kind            dispatch.CallKind
	Fn              reflect.Value // receiver-first for virtual calls; invalid for interface dispatch
	Receiver        reflect.Type  // type the method was resolved on; nil for static
	PointerReceiver bool
	ForType         reflect.Type // static guard for type-object calls
	Params          []reflect.Type
	Void            bool
	ReturnsError    bool
}

func newBoundCall(name string, ce dispatch.CompilableExecutor, staticType reflect.Type) *BoundCall {
	return &BoundCall{
		Name:            name,
		Kind:            ce.CallKind(),
		Fn:              ce.Callable(),
		Receiver:        ce.ReceiverType(),
		PointerReceiver: ce.PointerReceiver(),
		ForType:         staticType,
		Params:          ce.ParamTypes(),
		Void:            ce.ResultType() == nil,
		ReturnsError:    ce.ReturnsError(),
	}
}

// invoke performs the direct call. A receiver or argument whose runtime type
// drifted from the compiled snapshot reports ErrStale so the driver can fall
// back to the interpreted path and re-resolve. Panics from the invoked
// method propagate unmodified, matching interpreted semantics.
func (bc *BoundCall) invoke(target any, args []any) (any, error) {
	in := make([]reflect.Value, 0, len(args)+1)

	switch bc.Kind {
	case dispatch.CallStatic:
		tv, ok := target.(dispatch.TypeValue)
		if !ok || tv.T != bc.ForType {
			return nil, ErrStale
		}
	case dispatch.CallInterface:
		// Interface dispatch arises for type-object targets: the method is
		// looked up on the descriptor's method table by name.
		tv, ok := target.(dispatch.TypeValue)
		if !ok {
			return nil, ErrStale
		}
		m := reflect.ValueOf(tv.T).MethodByName(bc.Name)
		if !m.IsValid() {
			return nil, ErrStale
		}
		prepared, err := bc.prepareArgs(args)
		if err != nil {
			return nil, err
		}
		return bc.finish(m.Call(prepared))
	default:
		rv := reflect.ValueOf(target)
		t := rv.Type()
		switch {
		case t == bc.Receiver:
			in = append(in, rv)
		case bc.PointerReceiver && reflect.PointerTo(t) == bc.Receiver:
			p := reflect.New(t)
			p.Elem().Set(rv)
			in = append(in, p)
		default:
			return nil, ErrStale
		}
	}

	prepared, err := bc.prepareArgs(args)
	if err != nil {
		return nil, err
	}
	return bc.finish(bc.Fn.Call(append(in, prepared...)))
}

func (bc *BoundCall) prepareArgs(args []any) ([]reflect.Value, error) {
	if len(args) != len(bc.Params) {
		return nil, ErrStale
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		param := bc.Params[i]
		if arg == nil {
			switch param.Kind() {
			case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
				in[i] = reflect.Zero(param)
				continue
			default:
				return nil, ErrStale
			}
		}
		at := reflect.TypeOf(arg)
		if at != param && !(param.Kind() == reflect.Interface && at.Implements(param)) {
			return nil, ErrStale
		}
		in[i] = reflect.ValueOf(arg)
	}
	return in, nil
}

func (bc *BoundCall) finish(out []reflect.Value) (any, error) {
	if bc.ReturnsError {
		last := out[len(out)-1]
		if !last.IsNil() {
			return nil, &targetReturnedError{err: last.Interface().(error)}
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	result := out[0].Interface()
	if dispatch.IsNilValue(result) {
		return nil, nil
	}
	return result, nil
}

// targetReturnedError marks a non-nil error returned by the invoked method
// so the VM can surface it with the interpreted path's classification.
type targetReturnedError struct {
	err error
}

func (e *targetReturnedError) Error() string {
	return e.err.Error()
}

func (e *targetReturnedError) Unwrap() error {
	return e.err
}
