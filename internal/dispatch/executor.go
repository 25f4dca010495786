package dispatch

import (
	"reflect"
	"unicode"
	"unicode/utf8"
)

// MethodExecutor is one concrete, resolved way to invoke a named method
// against a particular kind of target. Executors are created by resolvers,
// owned by the call-site cache entry that stores them, and never shared
// across call sites.
//
// Execute fails with *AccessError. The error's cause follows the
// classification contract documented on AccessError.
type MethodExecutor interface {
	Execute(ctx *EvalContext, target any, args []any) (TypedValue, error)
}

// CallKind is the dispatch form a compiled call instruction uses.
type CallKind int

const (
	// CallVirtual invokes a method resolved on a concrete receiver type.
	CallVirtual CallKind = iota
	// CallStatic invokes a registered type-level function; no receiver.
	CallStatic
	// CallInterface invokes through an interface method table.
	CallInterface
)

// CompilableExecutor is the reflective executor variant: bound to one
// declared method (or registered function), with enough metadata for the
// compiler to emit a direct call. Opaque executors (dynamic targets, remote
// services) do not implement it and keep their call sites interpreted.
type CompilableExecutor interface {
	MethodExecutor

	Name() string
	CallKind() CallKind
	// ConversionOccurred reports whether binding required implicit argument
	// conversion. Converted bindings are never compiled.
	ConversionOccurred() bool
	// ResultType is the method's value result type, nil for void methods.
	ResultType() reflect.Type
	// ReceiverType is the type the method was resolved on (possibly the
	// pointer type), nil for static functions.
	ReceiverType() reflect.Type
	// PointerReceiver reports that invocation wraps a value receiver into a
	// fresh pointer.
	PointerReceiver() bool
	// Callable is the direct callable with the receiver as first parameter
	// for virtual dispatch. Invalid for interface dispatch, where the VM
	// looks the method up on the receiver's method table by name.
	Callable() reflect.Value
	// ParamTypes are the bound parameter types, receiver excluded.
	ParamTypes() []reflect.Type
	// ReturnsError reports the trailing-error return convention.
	ReturnsError() bool
	// PublicDeclaring reports whether the declaring type is exported and
	// importable; compilation requires it.
	PublicDeclaring() bool
}

// argConv records how one bound argument is prepared for invocation.
type convKind int

const (
	convExact   convKind = iota
	convNumeric          // reflect conversion between numeric kinds
	convNilZero          // null argument passed as the parameter's zero value
)

type argConv struct {
	param reflect.Type
	kind  convKind
	from  reflect.Type // argument type at resolution time; nil for convNilZero
}

// prepare turns an evaluated argument value into the reflect.Value passed to
// the method. The recorded resolution-time type doubles as a staleness guard:
// an argument whose runtime type changed since resolution is a mechanism
// failure, reported for the caller's one-time re-resolution.
func (c argConv) prepare(value any) (reflect.Value, *AccessError) {
	if value == nil {
		if c.kind != convNilZero {
			return reflect.Value{}, accessErrorf("argument of type %s became null", c.from)
		}
		return reflect.Zero(c.param), nil
	}
	at := reflect.TypeOf(value)
	if c.from == nil || at != c.from {
		return reflect.Value{}, accessErrorf("argument type changed from %s to %s since resolution", c.from, at)
	}
	switch c.kind {
	case convNumeric:
		return reflect.ValueOf(value).Convert(c.param), nil
	default:
		return reflect.ValueOf(value), nil
	}
}

// ReflectiveExecutor binds to a single declared method found by reflection.
type ReflectiveExecutor struct {
	name             string
	method           reflect.Method
	declaring        reflect.Type // receiver type the method was resolved on
	pointerReceiver  bool
	throughInterface bool
	unwrapTypeValue  bool // target is a TypeValue; invoke on the descriptor it wraps
	conversions      []argConv
	converted        bool
	variadicSlice    bool // final argument is the variadic slice itself
	resultType       reflect.Type
	returnsError     bool
}

func (re *ReflectiveExecutor) Name() string               { return re.name }
func (re *ReflectiveExecutor) Method() reflect.Method     { return re.method }
func (re *ReflectiveExecutor) ReceiverType() reflect.Type { return re.declaring }
func (re *ReflectiveExecutor) PointerReceiver() bool      { return re.pointerReceiver }
func (re *ReflectiveExecutor) ConversionOccurred() bool   { return re.converted }
func (re *ReflectiveExecutor) ResultType() reflect.Type   { return re.resultType }
func (re *ReflectiveExecutor) ReturnsError() bool         { return re.returnsError }
func (re *ReflectiveExecutor) ParamTypes() []reflect.Type { return convParams(re.conversions) }

func (re *ReflectiveExecutor) CallKind() CallKind {
	if re.throughInterface {
		return CallInterface
	}
	return CallVirtual
}

func (re *ReflectiveExecutor) Callable() reflect.Value {
	return re.method.Func
}

// PublicDeclaring requires a named, exported declaring type from an
// importable (non-internal) package. Interface dispatch is checked against
// the interface type itself.
func (re *ReflectiveExecutor) PublicDeclaring() bool {
	return isPublicType(re.declaring)
}

func (re *ReflectiveExecutor) Execute(ctx *EvalContext, target any, args []any) (TypedValue, error) {
	recv, aerr := re.receiver(target)
	if aerr != nil {
		return Null, aerr
	}
	in, aerr := prepareArgs(re.conversions, args)
	if aerr != nil {
		return Null, aerr
	}

	var out []reflect.Value
	var callErr *AccessError
	if re.throughInterface {
		m := recv.MethodByName(re.method.Name)
		if !m.IsValid() {
			return Null, accessErrorf("method %s no longer present on %s", re.method.Name, recv.Type())
		}
		out, callErr = callGuarded(m, in, re.variadicSlice)
	} else {
		out, callErr = callGuarded(re.method.Func, append([]reflect.Value{recv}, in...), re.variadicSlice)
	}
	if callErr != nil {
		return Null, callErr
	}
	if aerr := checkErrorResult(out, re.returnsError); aerr != nil {
		return Null, aerr
	}
	return extractResult(out, re.returnsError), nil
}

func (re *ReflectiveExecutor) receiver(target any) (reflect.Value, *AccessError) {
	if re.unwrapTypeValue {
		tv, ok := target.(TypeValue)
		if !ok {
			return reflect.Value{}, accessErrorf("bound to a type object, target is %T", target)
		}
		return reflect.ValueOf(tv.T), nil
	}
	rv := reflect.ValueOf(target)
	t := rv.Type()
	if t == re.declaring {
		return rv, nil
	}
	if re.pointerReceiver && reflect.PointerTo(t) == re.declaring {
		// Pointer-receiver method resolved for a value target: call on a
		// fresh addressable copy. Mutations apply to the copy only.
		p := reflect.New(t)
		p.Elem().Set(rv)
		return p, nil
	}
	return reflect.Value{}, accessErrorf("bound to receiver type %s, target is now %s", re.declaring, t)
}

// StaticFuncExecutor invokes a function registered for a type object; the
// reflective variant behind T(Name).Fn(...) calls.
type StaticFuncExecutor struct {
	name          string
	forType       reflect.Type
	fn            reflect.Value
	conversions   []argConv
	converted     bool
	variadicSlice bool
	resultType    reflect.Type
	returnsError  bool
}

func (se *StaticFuncExecutor) Name() string               { return se.name }
func (se *StaticFuncExecutor) CallKind() CallKind         { return CallStatic }
func (se *StaticFuncExecutor) ConversionOccurred() bool   { return se.converted }
func (se *StaticFuncExecutor) ResultType() reflect.Type   { return se.resultType }
func (se *StaticFuncExecutor) ReceiverType() reflect.Type { return nil }
func (se *StaticFuncExecutor) PointerReceiver() bool      { return false }
func (se *StaticFuncExecutor) Callable() reflect.Value    { return se.fn }
func (se *StaticFuncExecutor) ReturnsError() bool         { return se.returnsError }
func (se *StaticFuncExecutor) ParamTypes() []reflect.Type { return convParams(se.conversions) }

// Registered functions were handed over explicitly by the embedder, so they
// are considered publicly invocable.
func (se *StaticFuncExecutor) PublicDeclaring() bool { return true }

func (se *StaticFuncExecutor) Execute(ctx *EvalContext, target any, args []any) (TypedValue, error) {
	tv, ok := target.(TypeValue)
	if !ok || tv.T != se.forType {
		return Null, accessErrorf("bound to functions of %s, target is now %v", se.forType, target)
	}
	in, aerr := prepareArgs(se.conversions, args)
	if aerr != nil {
		return Null, aerr
	}
	out, callErr := callGuarded(se.fn, in, se.variadicSlice)
	if callErr != nil {
		return Null, callErr
	}
	if aerr := checkErrorResult(out, se.returnsError); aerr != nil {
		return Null, aerr
	}
	return extractResult(out, se.returnsError), nil
}

func convParams(conversions []argConv) []reflect.Type {
	params := make([]reflect.Type, len(conversions))
	for i, c := range conversions {
		params[i] = c.param
	}
	return params
}

func prepareArgs(conversions []argConv, args []any) ([]reflect.Value, *AccessError) {
	if len(args) != len(conversions) {
		return nil, accessErrorf("bound to %d arguments, got %d", len(conversions), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, aerr := conversions[i].prepare(arg)
		if aerr != nil {
			return nil, aerr
		}
		in[i] = v
	}
	return in, nil
}

// callGuarded performs the reflect call with panic recovery. Arguments and
// receiver were validated against the bound signature beforehand, so a panic
// here originates in the invoked method's own code and is classified as a
// target failure.
func callGuarded(fn reflect.Value, in []reflect.Value, callSlice bool) (out []reflect.Value, aerr *AccessError) {
	defer func() {
		if r := recover(); r != nil {
			aerr = &AccessError{Message: "method invocation failed", Cause: &TargetError{PanicValue: r}}
			out = nil
		}
	}()
	if callSlice {
		return fn.CallSlice(in), nil
	}
	return fn.Call(in), nil
}

func extractResult(out []reflect.Value, returnsError bool) TypedValue {
	if returnsError {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return Null
	}
	return NewTypedValue(out[0].Interface())
}

// checkErrorResult inspects a trailing error result. Callers must invoke it
// before extractResult when returnsError is set.
func checkErrorResult(out []reflect.Value, returnsError bool) *AccessError {
	if !returnsError {
		return nil
	}
	last := out[len(out)-1]
	if last.IsNil() {
		return nil
	}
	err := last.Interface().(error)
	return &AccessError{Message: "method invocation failed", Cause: &TargetError{Err: err}}
}

func isPublicType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	name := base.Name()
	if name == "" {
		return false
	}
	if !isExportedName(name) {
		return false
	}
	pkg := base.PkgPath()
	// Builtin and universe types have no package path and are always visible.
	if pkg == "" {
		return true
	}
	return !isInternalPackage(pkg)
}

func isExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func isInternalPackage(pkg string) bool {
	const needle = "internal"
	for i := 0; i+len(needle) <= len(pkg); i++ {
		if pkg[i:i+len(needle)] != needle {
			continue
		}
		startOK := i == 0 || pkg[i-1] == '/'
		end := i + len(needle)
		endOK := end == len(pkg) || pkg[end] == '/'
		if startOK && endOK {
			return true
		}
	}
	return false
}
