// Package vm implements the compiled execution path: a bytecode compiler
// that snapshots stable call-site resolutions into direct call instructions,
// and a small stack machine that executes them without consulting resolvers.
package vm

// Opcode represents a single VM instruction.
type Opcode byte

const (
	// Stack manipulation
	OP_CONST Opcode = iota // Push constant from pool (u16 index)
	OP_NIL                 // Push nil
	OP_TRUE                // Push true
	OP_FALSE               // Push false
	OP_POP                 // Discard top of stack

	// Environment access
	OP_LOAD_ROOT // Push the root object
	OP_GET_VAR   // Push a context variable (u16 name constant)
	OP_GET_TYPE  // Push a registered type object (u16 name constant)

	// Member access
	OP_GET_PROP // Pop target, push member (u16 accessor constant)

	// Direct method invocation
	OP_CALL_BOUND // Pop args and target, push result (u16 bound-call constant, u8 argc)

	// Control flow
	OP_JUMP_IF_NIL // Jump forward when top of stack is nil, leaving it in place (u16 target)

	OP_RETURN // Finish; top of stack is the expression value
)

var opcodeNames = map[Opcode]string{
	OP_CONST:       "OP_CONST",
	OP_NIL:         "OP_NIL",
	OP_TRUE:        "OP_TRUE",
	OP_FALSE:       "OP_FALSE",
	OP_POP:         "OP_POP",
	OP_LOAD_ROOT:   "OP_LOAD_ROOT",
	OP_GET_VAR:     "OP_GET_VAR",
	OP_GET_TYPE:    "OP_GET_TYPE",
	OP_GET_PROP:    "OP_GET_PROP",
	OP_CALL_BOUND:  "OP_CALL_BOUND",
	OP_JUMP_IF_NIL: "OP_JUMP_IF_NIL",
	OP_RETURN:      "OP_RETURN",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "OP_UNKNOWN"
}
