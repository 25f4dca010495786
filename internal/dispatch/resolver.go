package dispatch

import (
	"reflect"

	"github.com/funvibe/exprel/internal/typesystem"
)

// MethodResolver maps (target, method name, argument types) to an invocable
// executor. Resolvers are supplied in order by the evaluation environment;
// the first to return an executor wins.
//
// Returning (nil, nil) means "no match here, try the next resolver".
// Returning a *AccessError means a candidate was located but cannot be
// invoked; the caller stops the chain immediately.
type MethodResolver interface {
	Resolve(ctx *EvalContext, target any, name string, argTypes []*typesystem.TypeDescriptor) (MethodExecutor, error)
}

// ReflectiveResolver is the default resolver: it binds exported methods of
// the target's runtime type (including pointer-receiver methods for value
// targets) and, for type-object targets, registered type-level functions plus
// the exported methods of the reflect.Type descriptor itself.
//
// It is the only resolver the call-site cache recognizes as cache-safe: its
// outcome depends on nothing but the target type and argument types.
type ReflectiveResolver struct{}

func (r *ReflectiveResolver) Resolve(ctx *EvalContext, target any, name string, argTypes []*typesystem.TypeDescriptor) (MethodExecutor, error) {
	if tv, ok := target.(TypeValue); ok {
		return r.resolveStatic(ctx, tv, name, argTypes)
	}

	t := reflect.TypeOf(target)
	declaring := t
	method, found := t.MethodByName(name)
	pointerReceiver := false
	if !found && t.Kind() != reflect.Pointer {
		pt := reflect.PointerTo(t)
		if m, ok := pt.MethodByName(name); ok {
			method, found = m, true
			declaring = pt
			pointerReceiver = true
		}
	}
	if !found {
		return nil, nil
	}

	// Receiver is In(0) for methods resolved on concrete types.
	binding, ok := bindArguments(method.Type, 1, argTypes)
	if !ok {
		return nil, accessErrorf("method %s%s exists on %s but cannot be bound to argument types %s",
			name, signatureString(method.Type, 1), t, typesystem.FormatTypes(argTypes))
	}
	resultType, returnsError := resultShape(method.Type)
	return &ReflectiveExecutor{
		name:            name,
		method:          method,
		declaring:       declaring,
		pointerReceiver: pointerReceiver,
		conversions:     binding.conversions,
		converted:       binding.converted,
		variadicSlice:   binding.variadicSlice,
		resultType:      resultType,
		returnsError:    returnsError,
	}, nil
}

// resolveStatic handles type-object targets: registered functions first, then
// the methods of the reflect.Type descriptor (Name(), Kind(), String(), ...),
// which dispatch through the reflect.Type interface.
func (r *ReflectiveResolver) resolveStatic(ctx *EvalContext, tv TypeValue, name string, argTypes []*typesystem.TypeDescriptor) (MethodExecutor, error) {
	if fn, ok := ctx.StaticFunc(tv.T, name); ok {
		binding, ok := bindArguments(fn.Type(), 0, argTypes)
		if !ok {
			return nil, accessErrorf("function %s registered for %s cannot be bound to argument types %s",
				name, tv.T, typesystem.FormatTypes(argTypes))
		}
		resultType, returnsError := resultShape(fn.Type())
		return &StaticFuncExecutor{
			name:          name,
			forType:       tv.T,
			fn:            fn,
			conversions:   binding.conversions,
			converted:     binding.converted,
			variadicSlice: binding.variadicSlice,
			resultType:    resultType,
			returnsError:  returnsError,
		}, nil
	}

	ifaceType := reflect.TypeOf((*reflect.Type)(nil)).Elem()
	method, found := ifaceType.MethodByName(name)
	if !found {
		return nil, nil
	}
	// Interface methods carry no receiver in their signature.
	binding, ok := bindArguments(method.Type, 0, argTypes)
	if !ok {
		return nil, accessErrorf("method %s%s exists on %s but cannot be bound to argument types %s",
			name, signatureString(method.Type, 0), ifaceType, typesystem.FormatTypes(argTypes))
	}
	resultType, returnsError := resultShape(method.Type)
	return &ReflectiveExecutor{
		name:             name,
		method:           method,
		declaring:        ifaceType,
		throughInterface: true,
		unwrapTypeValue:  true,
		conversions:      binding.conversions,
		converted:        binding.converted,
		variadicSlice:    binding.variadicSlice,
		resultType:       resultType,
		returnsError:     returnsError,
	}, nil
}

type argBinding struct {
	conversions   []argConv
	converted     bool
	variadicSlice bool
}

// bindArguments matches evaluated argument types against a signature,
// recording the per-argument preparation. offset skips the receiver slot.
// Binding prefers exact matches; a numeric widening or variadic packing binds
// too but marks the conversion, which keeps the call site off the compiled
// path.
func bindArguments(sig reflect.Type, offset int, argTypes []*typesystem.TypeDescriptor) (argBinding, bool) {
	numIn := sig.NumIn() - offset
	var binding argBinding

	if sig.IsVariadic() {
		fixed := numIn - 1
		if len(argTypes) < fixed {
			return binding, false
		}
		varSlice := sig.In(sig.NumIn() - 1)

		// The variadic slice itself may be passed as the sole trailing
		// argument.
		if len(argTypes) == numIn {
			if last := argTypes[len(argTypes)-1]; last != nil && last.Type() == varSlice {
				convs, converted, ok := bindFixed(sig, offset, argTypes[:fixed])
				if !ok {
					return binding, false
				}
				convs = append(convs, argConv{param: varSlice, kind: convExact, from: varSlice})
				binding.conversions = convs
				binding.converted = converted
				binding.variadicSlice = true
				return binding, true
			}
		}

		convs, _, ok := bindFixed(sig, offset, argTypes[:fixed])
		if !ok {
			return binding, false
		}
		elem := varSlice.Elem()
		for _, at := range argTypes[fixed:] {
			conv, ok := classifyArgument(at, elem)
			if !ok {
				return binding, false
			}
			convs = append(convs, conv)
		}
		binding.conversions = convs
		// Packing arguments into the variadic slice is an implicit
		// conversion.
		binding.converted = true
		return binding, true
	}

	if len(argTypes) != numIn {
		return binding, false
	}
	convs, converted, ok := bindFixed(sig, offset, argTypes)
	if !ok {
		return binding, false
	}
	binding.conversions = convs
	binding.converted = converted
	return binding, true
}

func bindFixed(sig reflect.Type, offset int, argTypes []*typesystem.TypeDescriptor) ([]argConv, bool, bool) {
	convs := make([]argConv, 0, len(argTypes))
	converted := false
	for i, at := range argTypes {
		conv, ok := classifyArgument(at, sig.In(offset+i))
		if !ok {
			return nil, false, false
		}
		if conv.kind == convNumeric {
			converted = true
		}
		convs = append(convs, conv)
	}
	return convs, converted, true
}

func classifyArgument(at *typesystem.TypeDescriptor, param reflect.Type) (argConv, bool) {
	if at == nil {
		if !isNilable(param) {
			return argConv{}, false
		}
		return argConv{param: param, kind: convNilZero}, true
	}
	t := at.Type()
	if t == param {
		return argConv{param: param, kind: convExact, from: t}, true
	}
	if param.Kind() == reflect.Interface && t.Implements(param) {
		// Assignment to an interface parameter is ordinary Go assignability,
		// not a conversion.
		return argConv{param: param, kind: convExact, from: t}, true
	}
	if isNumeric(t) && isNumeric(param) && t.ConvertibleTo(param) {
		return argConv{param: param, kind: convNumeric, from: t}, true
	}
	return argConv{}, false
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// resultShape derives the value result and trailing-error convention of a
// signature. Only the first value result is surfaced to expressions.
func resultShape(sig reflect.Type) (resultType reflect.Type, returnsError bool) {
	n := sig.NumOut()
	if n > 0 && sig.Out(n-1) == errorType {
		returnsError = true
		n--
	}
	if n > 0 {
		resultType = sig.Out(0)
	}
	return resultType, returnsError
}

func signatureString(sig reflect.Type, offset int) string {
	out := "("
	for i := offset; i < sig.NumIn(); i++ {
		if i > offset {
			out += ", "
		}
		out += sig.In(i).String()
	}
	return out + ")"
}
