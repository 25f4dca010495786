package dispatch

import (
	"reflect"
	"strings"

	"github.com/funvibe/exprel/internal/typesystem"
)

type propKind int

const (
	propField propKind = iota
	propGetter
	propMapKey
)

// PropertyAccessor is the member-read analog of a cached method binding: one
// resolved way to read a named member off a target type, guarded by the
// target's exact type descriptor. Accessors are immutable; property nodes
// replace them wholesale.
type PropertyAccessor struct {
	name            string
	kind            propKind
	target          *typesystem.TypeDescriptor
	index           []int // struct field index path
	method          reflect.Method
	pointerReceiver bool
	resultType      reflect.Type
}

// ResolveProperty locates a readable member: an exported struct field, a
// zero-argument getter method (Name or GetName), or a string-keyed map entry.
// Returns (nil, nil) when the target type has no such member.
func ResolveProperty(target any, name string) (*PropertyAccessor, error) {
	t := reflect.TypeOf(target)
	desc := typesystem.ForType(t)

	structType := t
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	if structType.Kind() == reflect.Struct {
		for _, fieldName := range []string{name, capitalize(name)} {
			if f, ok := structType.FieldByName(fieldName); ok && f.IsExported() {
				return &PropertyAccessor{
					name:       name,
					kind:       propField,
					target:     desc,
					index:      f.Index,
					resultType: f.Type,
				}, nil
			}
		}
	}

	for _, methodName := range []string{capitalize(name), "Get" + capitalize(name)} {
		lookup := t
		m, found := lookup.MethodByName(methodName)
		pointerReceiver := false
		if !found && t.Kind() != reflect.Pointer {
			lookup = reflect.PointerTo(t)
			m, found = lookup.MethodByName(methodName)
			pointerReceiver = found
		}
		if !found {
			continue
		}
		// Receiver only, exactly one result.
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		return &PropertyAccessor{
			name:            name,
			kind:            propGetter,
			target:          desc,
			method:          m,
			pointerReceiver: pointerReceiver,
			resultType:      m.Type.Out(0),
		}, nil
	}

	if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		return &PropertyAccessor{
			name:       name,
			kind:       propMapKey,
			target:     desc,
			resultType: t.Elem(),
		}, nil
	}

	return nil, nil
}

// Suitable reports whether the accessor still matches the target's type.
func (pa *PropertyAccessor) Suitable(desc *typesystem.TypeDescriptor) bool {
	return pa.target.Equal(desc)
}

// Name returns the member name as written in the expression.
func (pa *PropertyAccessor) Name() string { return pa.name }

// ResultType is the statically known type of the member value.
func (pa *PropertyAccessor) ResultType() reflect.Type { return pa.resultType }

// Compilable reports whether a compiled chunk may embed this accessor.
// Getter access requires a publicly importable declaring type, matching the
// method-call rule.
func (pa *PropertyAccessor) Compilable() bool {
	if pa.kind != propGetter {
		return true
	}
	base := pa.target.Type()
	if pa.pointerReceiver && base.Kind() != reflect.Pointer {
		base = reflect.PointerTo(base)
	}
	return isPublicType(base)
}

// Read performs the member read. A target whose type drifted from the
// resolution-time descriptor is a mechanism failure (stale accessor).
func (pa *PropertyAccessor) Read(target any) (TypedValue, error) {
	desc := typesystem.ForValue(target)
	if !pa.target.Equal(desc) {
		return Null, accessErrorf("accessor bound to %s, target is now %s", pa.target, desc)
	}
	rv := reflect.ValueOf(target)

	switch pa.kind {
	case propField:
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return Null, accessErrorf("nil pointer dereference reading %s", pa.name)
			}
			rv = rv.Elem()
		}
		return NewTypedValue(rv.FieldByIndex(pa.index).Interface()), nil

	case propGetter:
		recv := rv
		if pa.pointerReceiver {
			p := reflect.New(rv.Type())
			p.Elem().Set(rv)
			recv = p
		}
		out, callErr := callGuarded(pa.method.Func, []reflect.Value{recv}, false)
		if callErr != nil {
			return Null, callErr
		}
		return NewTypedValue(out[0].Interface()), nil

	default: // propMapKey
		v := rv.MapIndex(reflect.ValueOf(pa.name).Convert(pa.target.Type().Key()))
		if !v.IsValid() {
			return Null, nil
		}
		return NewTypedValue(v.Interface()), nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
