package vm

// Chunk represents a compiled expression: a sequence of bytecode instructions
// with a constant pool and source-position sidecars for error reporting.
type Chunk struct {
	// Code is the bytecode instructions.
	Code []byte

	// Constants pool - literals, bound calls, property accessors, names.
	Constants []any

	// Lines maps bytecode offset to source line number.
	Lines []int

	// Columns maps bytecode offset to source column number.
	Columns []int
}

// NewChunk creates a new empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Constants: make([]any, 0, 16),
		Lines:     make([]int, 0, 64),
		Columns:   make([]int, 0, 64),
	}
}

// Write adds a byte to the chunk with position info.
func (c *Chunk) Write(b byte, line, col int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
}

// WriteOp writes an opcode to the chunk.
func (c *Chunk) WriteOp(op Opcode, line, col int) {
	c.Write(byte(op), line, col)
}

// WriteU16 writes a 16-bit big-endian operand.
func (c *Chunk) WriteU16(v int, line, col int) {
	c.Write(byte(v>>8), line, col)
	c.Write(byte(v), line, col)
}

// PatchU16 rewrites a previously written 16-bit operand at offset.
func (c *Chunk) PatchU16(offset, v int) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// ReadU16 reads a 16-bit operand at offset.
func (c *Chunk) ReadU16(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// AddConstant adds a constant to the pool and returns its index.
func (c *Chunk) AddConstant(value any) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// Len returns the number of bytes in the chunk.
func (c *Chunk) Len() int {
	return len(c.Code)
}
