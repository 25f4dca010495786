// Package typesystem provides the runtime type descriptors used by method
// resolution and call-site caching.
package typesystem

import (
	"fmt"
	"reflect"
)

// TypeDescriptor describes the runtime type of an evaluated value. It is a
// cheap value object recomputed on every evaluation; descriptors are compared
// with exact equality (never assignability), which is what call-site cache
// guards need.
//
// A nil *TypeDescriptor describes the null value.
type TypeDescriptor struct {
	rtype reflect.Type
}

// ForValue computes the descriptor of a runtime value. Returns nil for a nil
// value, matching "null has no type".
func ForValue(value any) *TypeDescriptor {
	if value == nil {
		return nil
	}
	return ForType(reflect.TypeOf(value))
}

// ForType wraps an already known reflect.Type.
func ForType(t reflect.Type) *TypeDescriptor {
	if t == nil {
		return nil
	}
	return &TypeDescriptor{rtype: t}
}

// Type returns the described reflect.Type.
func (td *TypeDescriptor) Type() reflect.Type {
	return td.rtype
}

// Kind returns the reflect.Kind of the described type.
func (td *TypeDescriptor) Kind() reflect.Kind {
	return td.rtype.Kind()
}

// Elem returns the element descriptor for containers (slices, arrays, maps,
// channels, pointers), or nil for non-container types. reflect.Type identity
// already folds element types into equality; Elem exists for diagnostics and
// structural inspection.
func (td *TypeDescriptor) Elem() *TypeDescriptor {
	switch td.rtype.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Pointer:
		return ForType(td.rtype.Elem())
	default:
		return nil
	}
}

// Equal reports whether two descriptors describe exactly the same type shape.
// Both nil (both null) compare equal.
func (td *TypeDescriptor) Equal(other *TypeDescriptor) bool {
	if td == nil || other == nil {
		return td == nil && other == nil
	}
	return td.rtype == other.rtype
}

// EqualTypes compares two argument descriptor lists element-wise, order
// sensitive.
func EqualTypes(a, b []*TypeDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ForValues computes descriptors for a list of evaluated argument values.
func ForValues(values []any) []*TypeDescriptor {
	descs := make([]*TypeDescriptor, len(values))
	for i, v := range values {
		descs[i] = ForValue(v)
	}
	return descs
}

func (td *TypeDescriptor) String() string {
	if td == nil {
		return "null"
	}
	return td.rtype.String()
}

// FormatTypes renders an argument descriptor list for error messages, e.g.
// "(int, string)".
func FormatTypes(descs []*TypeDescriptor) string {
	out := "("
	for i, d := range descs {
		if i > 0 {
			out += ", "
		}
		out += d.String()
	}
	return out + ")"
}

var _ fmt.Stringer = (*TypeDescriptor)(nil)
