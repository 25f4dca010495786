package vm

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/evaluator"
)

// ErrStale reports that a compiled snapshot no longer matches the runtime
// shapes flowing through the expression. It is not a user-visible failure:
// the driver reverts to the interpreted path, which re-resolves and caches a
// fresh executor, after which the expression may compile again.
var ErrStale = errors.New("compiled call site is stale")

// VM executes a compiled chunk. A VM is cheap to construct and holds no
// state between runs.
type VM struct {
	stack []any
}

func New() *VM {
	return &VM{stack: make([]any, 0, 16)}
}

// Run executes chunk against the root object. It returns ErrStale when any
// bound call or property read observes a runtime type the compiler did not
// snapshot; every other failure carries the same category and position an
// interpreted run would report.
func (vm *VM) Run(chunk *Chunk, root any, ctx *dispatch.EvalContext) (dispatch.TypedValue, error) {
	vm.stack = vm.stack[:0]
	ip := 0

	for ip < len(chunk.Code) {
		opPos := ip
		op := Opcode(chunk.Code[ip])
		ip++

		switch op {
		case OP_CONST:
			vm.push(chunk.Constants[chunk.ReadU16(ip)])
			ip += 2

		case OP_NIL:
			vm.push(nil)
		case OP_TRUE:
			vm.push(true)
		case OP_FALSE:
			vm.push(false)
		case OP_POP:
			vm.pop()

		case OP_LOAD_ROOT:
			vm.pushValue(root)

		case OP_GET_VAR:
			name := chunk.Constants[chunk.ReadU16(ip)].(string)
			ip += 2
			value, ok := ctx.Variable(name)
			if !ok {
				return dispatch.Null, vm.errorAt(chunk, opPos, evaluator.VariableNotFound, name)
			}
			vm.pushValue(value)

		case OP_GET_TYPE:
			name := chunk.Constants[chunk.ReadU16(ip)].(string)
			ip += 2
			t, ok := ctx.TypeNamed(name)
			if !ok {
				return dispatch.Null, vm.errorAt(chunk, opPos, evaluator.TypeNotFound, name)
			}
			vm.push(dispatch.TypeValue{T: t})

		case OP_GET_PROP:
			accessor := chunk.Constants[chunk.ReadU16(ip)].(*dispatch.PropertyAccessor)
			ip += 2
			target := vm.pop()
			if target == nil {
				return dispatch.Null, vm.errorAt(chunk, opPos, evaluator.PropertyReadOnNullNotAllowed, accessor.Name())
			}
			tv, err := accessor.Read(target)
			if err != nil {
				// The accessor only fails when the target shape drifted from
				// the compiled snapshot.
				return dispatch.Null, ErrStale
			}
			vm.push(tv.Value)

		case OP_JUMP_IF_NIL:
			dest := chunk.ReadU16(ip)
			ip += 2
			if vm.peek() == nil {
				ip = dest
			}

		case OP_CALL_BOUND:
			bc := chunk.Constants[chunk.ReadU16(ip)].(*BoundCall)
			ip += 2
			argc := int(chunk.Code[ip])
			ip++

			args := vm.popN(argc)
			target := vm.pop()
			if target == nil {
				return dispatch.Null, vm.errorAt(chunk, opPos, evaluator.MethodCallOnNullNotAllowed, bc.Name)
			}

			result, err := bc.invoke(target, args)
			if err != nil {
				var tre *targetReturnedError
				if errors.As(err, &tre) {
					return dispatch.Null, vm.errorCausedAt(chunk, opPos,
						evaluator.InvocationTargetFailure, tre.err,
						bc.Name, typeName(target))
				}
				return dispatch.Null, ErrStale
			}
			vm.push(result)

		case OP_RETURN:
			return dispatch.NewTypedValue(vm.pop()), nil

		default:
			return dispatch.Null, fmt.Errorf("unknown opcode %s at offset %d", op, opPos)
		}
	}
	return dispatch.Null, fmt.Errorf("chunk ended without OP_RETURN")
}

func (vm *VM) push(v any) {
	vm.stack = append(vm.stack, v)
}

// pushValue pushes an externally supplied value, folding typed nils to the
// plain nil the null checks test for.
func (vm *VM) pushValue(v any) {
	if dispatch.IsNilValue(v) {
		v = nil
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() any {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// popN removes the top n values and returns them in push order.
func (vm *VM) popN(n int) []any {
	values := make([]any, n)
	copy(values, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return values
}

func (vm *VM) peek() any {
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) errorAt(chunk *Chunk, pos int, code evaluator.Message, args ...any) error {
	return evaluator.NewError(chunk.Lines[pos], chunk.Columns[pos], code, args...)
}

func (vm *VM) errorCausedAt(chunk *Chunk, pos int, code evaluator.Message, cause error, args ...any) error {
	return evaluator.NewErrorWithCause(chunk.Lines[pos], chunk.Columns[pos], code, cause, args...)
}

func typeName(target any) string {
	if tv, ok := target.(dispatch.TypeValue); ok {
		return tv.String()
	}
	return reflect.TypeOf(target).String()
}
