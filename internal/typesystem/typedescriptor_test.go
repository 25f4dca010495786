package typesystem_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/funvibe/exprel/internal/typesystem"
)

func TestForValue(t *testing.T) {
	if d := typesystem.ForValue(nil); d != nil {
		t.Errorf("expected nil descriptor for nil value, got %v", d)
	}
	d := typesystem.ForValue(42)
	if d == nil || d.Type() != reflect.TypeOf(42) {
		t.Errorf("expected int descriptor, got %v", d)
	}
}

func TestEqual(t *testing.T) {
	intDesc := typesystem.ForValue(1)
	testCases := []struct {
		name  string
		a, b  *typesystem.TypeDescriptor
		equal bool
	}{
		{"same_type", intDesc, typesystem.ForValue(2), true},
		{"different_type", intDesc, typesystem.ForValue("s"), false},
		{"both_nil", nil, nil, true},
		{"one_nil", intDesc, nil, false},
		{"named_vs_underlying", typesystem.ForType(reflect.TypeOf(time.Duration(0))), typesystem.ForValue(int64(0)), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.equal {
				t.Errorf("Equal(%v, %v) = %v, expected %v", tc.a, tc.b, got, tc.equal)
			}
		})
	}
}

func TestEqualTypes(t *testing.T) {
	a := typesystem.ForValues([]any{1, "x"})
	if !typesystem.EqualTypes(a, typesystem.ForValues([]any{2, "y"})) {
		t.Error("expected equal descriptor lists")
	}
	if typesystem.EqualTypes(a, typesystem.ForValues([]any{"y", 2})) {
		t.Error("order must matter")
	}
	if typesystem.EqualTypes(a, typesystem.ForValues([]any{1})) {
		t.Error("length must matter")
	}
	if !typesystem.EqualTypes(
		typesystem.ForValues([]any{nil, 1}),
		typesystem.ForValues([]any{nil, 2})) {
		t.Error("null slots must compare equal")
	}
}

func TestElemAndString(t *testing.T) {
	d := typesystem.ForValue([]string{"a"})
	if d.Elem() == nil || d.Elem().Type() != reflect.TypeOf("") {
		t.Errorf("expected string element descriptor, got %v", d.Elem())
	}
	if typesystem.ForValue(7).Elem() != nil {
		t.Error("scalar types have no element descriptor")
	}
	var nilDesc *typesystem.TypeDescriptor
	if nilDesc.String() != "null" {
		t.Errorf("nil descriptor renders %q", nilDesc.String())
	}
}

func TestFormatTypes(t *testing.T) {
	got := typesystem.FormatTypes(typesystem.ForValues([]any{1, "x", nil}))
	if got != "(int, string, null)" {
		t.Errorf("unexpected rendering %q", got)
	}
}
