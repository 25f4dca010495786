package dispatch

import (
	"reflect"
)

// TypeValue is a type object: the runtime value a type reference expression
// (T(Name)) evaluates to. Method calls on a TypeValue resolve against
// functions registered for the exact type and against the exported methods
// of the reflect.Type descriptor itself.
type TypeValue struct {
	T reflect.Type
}

func (tv TypeValue) String() string {
	return "T(" + tv.T.String() + ")"
}

// EvalContext supplies everything resolution needs from the evaluation
// environment: the ordered resolver list, variables, the registered type
// table for T(...) references, and type-level function registrations.
//
// The resolver list is treated as immutable during a single evaluation.
type EvalContext struct {
	resolvers   []MethodResolver
	variables   map[string]any
	types       map[string]reflect.Type
	staticFuncs map[reflect.Type]map[string]reflect.Value
}

// NewEvalContext builds a context with the single default reflective
// resolver. Call-site caching stays enabled only for this configuration.
func NewEvalContext() *EvalContext {
	return &EvalContext{
		resolvers: []MethodResolver{&ReflectiveResolver{}},
		variables: make(map[string]any),
		types:     make(map[string]reflect.Type),
	}
}

// Resolvers returns the ordered resolver list.
func (c *EvalContext) Resolvers() []MethodResolver {
	return c.resolvers
}

// SetResolvers replaces the resolver list wholesale. Supplying anything but
// the single default resolver disables call-site caching.
func (c *EvalContext) SetResolvers(resolvers ...MethodResolver) {
	c.resolvers = resolvers
}

// AddResolver appends a resolver after the existing ones.
func (c *EvalContext) AddResolver(r MethodResolver) {
	c.resolvers = append(c.resolvers, r)
}

// SetVariable binds a #name variable.
func (c *EvalContext) SetVariable(name string, value any) {
	c.variables[name] = value
}

// Variable looks up a #name variable.
func (c *EvalContext) Variable(name string) (any, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// RegisterType makes a Go type addressable as T(name) in expressions.
func (c *EvalContext) RegisterType(name string, t reflect.Type) {
	c.types[name] = t
}

// TypeNamed resolves a registered type name.
func (c *EvalContext) TypeNamed(name string) (reflect.Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// RegisterFunc registers a type-level function, callable as T(name).Fn(...).
// fn must be a func value.
func (c *EvalContext) RegisterFunc(t reflect.Type, name string, fn any) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("dispatch: RegisterFunc requires a func value")
	}
	if c.staticFuncs == nil {
		c.staticFuncs = make(map[reflect.Type]map[string]reflect.Value)
	}
	funcs := c.staticFuncs[t]
	if funcs == nil {
		funcs = make(map[string]reflect.Value)
		c.staticFuncs[t] = funcs
	}
	funcs[name] = v
}

// StaticFunc looks up a function registered for the exact type t.
func (c *EvalContext) StaticFunc(t reflect.Type, name string) (reflect.Value, bool) {
	funcs, ok := c.staticFuncs[t]
	if !ok {
		return reflect.Value{}, false
	}
	fn, ok := funcs[name]
	return fn, ok
}
