package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable representation of the bytecode.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Lines[offset]))
	}

	op := Opcode(chunk.Code[offset])

	switch op {
	case OP_CONST:
		return constantInstruction(sb, "CONST", chunk, offset)

	case OP_NIL:
		return simpleInstruction(sb, "NIL", offset)
	case OP_TRUE:
		return simpleInstruction(sb, "TRUE", offset)
	case OP_FALSE:
		return simpleInstruction(sb, "FALSE", offset)
	case OP_POP:
		return simpleInstruction(sb, "POP", offset)

	case OP_LOAD_ROOT:
		return simpleInstruction(sb, "LOAD_ROOT", offset)
	case OP_GET_VAR:
		return constantInstruction(sb, "GET_VAR", chunk, offset)
	case OP_GET_TYPE:
		return constantInstruction(sb, "GET_TYPE", chunk, offset)
	case OP_GET_PROP:
		return constantInstruction(sb, "GET_PROP", chunk, offset)

	case OP_CALL_BOUND:
		idx := chunk.ReadU16(offset + 1)
		argc := chunk.Code[offset+3]
		bc := chunk.Constants[idx].(*BoundCall)
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s' (%d args)\n", "CALL_BOUND", idx, bc.Name, argc))
		return offset + 4

	case OP_JUMP_IF_NIL:
		dest := chunk.ReadU16(offset + 1)
		sb.WriteString(fmt.Sprintf("%-16s %4d -> %d\n", "JUMP_IF_NIL", offset, dest))
		return offset + 3

	case OP_RETURN:
		return simpleInstruction(sb, "RETURN", offset)

	default:
		sb.WriteString(fmt.Sprintf("Unknown opcode %d\n", op))
		return offset + 1
	}
}

func simpleInstruction(sb *strings.Builder, name string, offset int) int {
	sb.WriteString(fmt.Sprintf("%s\n", name))
	return offset + 1
}

func constantInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	idx := chunk.ReadU16(offset + 1)
	sb.WriteString(fmt.Sprintf("%-16s %4d '%v'\n", name, idx, chunk.Constants[idx]))
	return offset + 3
}
