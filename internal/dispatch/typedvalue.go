// Package dispatch implements dynamic method resolution: pluggable resolvers
// that bind a (target, method name, argument types) triple to an invocable
// executor, and the per-call-site cache entry that memoizes such a binding.
package dispatch

import (
	"reflect"

	"github.com/funvibe/exprel/internal/typesystem"
)

// TypedValue pairs an evaluated value with its runtime type descriptor.
type TypedValue struct {
	Value any
	Type  *typesystem.TypeDescriptor
}

// Null is the typed null value, produced by null-safe short circuits and
// void method calls.
var Null = TypedValue{}

// NewTypedValue computes the descriptor for v. A nil v, including a typed
// nil pointer, yields Null.
func NewTypedValue(v any) TypedValue {
	if IsNilValue(v) {
		return Null
	}
	return TypedValue{Value: v, Type: typesystem.ForValue(v)}
}

// IsNull reports whether the value is absent.
func (tv TypedValue) IsNull() bool {
	return tv.Value == nil
}

// IsNilValue reports whether v reads as null in an expression: the untyped
// nil, or a nil pointer, map, slice, channel, function, or interface. Both
// execution backends use the same test so null gates agree.
func IsNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
