package dispatch

import (
	"reflect"

	"github.com/funvibe/exprel/internal/typesystem"
)

// CachedExecutor is one call site's memoized resolution: the executor plus
// the guard conditions under which reusing it stays valid. Entries are
// immutable and replaced wholesale; the call site holds one in an atomic
// pointer, so concurrent evaluations observe either a complete old entry, an
// absent slot, or a complete new entry.
type CachedExecutor struct {
	executor      MethodExecutor
	staticType    reflect.Type // set when the target was a type object
	target        *typesystem.TypeDescriptor
	argumentTypes []*typesystem.TypeDescriptor
}

// NewCachedExecutor captures a fresh resolution. staticType must be the
// wrapped type when target was a TypeValue, nil otherwise.
func NewCachedExecutor(executor MethodExecutor, staticType reflect.Type,
	target *typesystem.TypeDescriptor, argumentTypes []*typesystem.TypeDescriptor) *CachedExecutor {

	return &CachedExecutor{
		executor:      executor,
		staticType:    staticType,
		target:        target,
		argumentTypes: argumentTypes,
	}
}

// Suitable reports whether the entry may serve the current call: the static
// guard (if any) matches the target identity, the target descriptor matches
// exactly, and the argument descriptors match element-wise in order.
func (c *CachedExecutor) Suitable(value any, target *typesystem.TypeDescriptor, argumentTypes []*typesystem.TypeDescriptor) bool {
	if c.staticType != nil {
		tv, ok := value.(TypeValue)
		if !ok || tv.T != c.staticType {
			return false
		}
	}
	return c.target.Equal(target) && typesystem.EqualTypes(c.argumentTypes, argumentTypes)
}

// HasDynamicTarget reports whether the resolved target binds methods
// dynamically; such call sites never compile.
func (c *CachedExecutor) HasDynamicTarget() bool {
	return c.target != nil && c.target.Type().Implements(dynamicType)
}

// Get returns the memoized executor.
func (c *CachedExecutor) Get() MethodExecutor {
	return c.executor
}

// StaticType returns the static guard type, nil unless the target was a type
// object at resolution time.
func (c *CachedExecutor) StaticType() reflect.Type {
	return c.staticType
}
