package vm

import (
	"fmt"

	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/dispatch"
)

// Compilable reports whether a node is eligible for the compiled path. A
// call site qualifies only after interpretation cached a reflective (not
// opaque) executor, on a non-dynamic target, bound without implicit argument
// conversion, to a publicly importable declaring type, with every child
// expression compilable in turn. Eligibility is reassessed from the current
// cache entry on every call, so it tracks re-resolutions.
func Compilable(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NilLiteral:
		return true
	case *ast.VariableRef, *ast.TypeRef:
		return true

	case *ast.PropertyAccess:
		accessor := e.Cache.Load()
		if accessor == nil || !accessor.Compilable() {
			return false
		}
		return e.Target == nil || Compilable(e.Target)

	case *ast.MethodCall:
		entry := e.Cache.Load()
		if entry == nil || entry.HasDynamicTarget() {
			return false
		}
		ce, ok := entry.Get().(dispatch.CompilableExecutor)
		if !ok {
			return false
		}
		if e.Target != nil && !Compilable(e.Target) {
			return false
		}
		for _, arg := range e.Args {
			if !Compilable(arg) {
				return false
			}
		}
		if ce.ConversionOccurred() {
			return false
		}
		return ce.PublicDeclaring()

	default:
		return false
	}
}

// Compiler emits a chunk for an expression whose call sites have all been
// warmed by the interpreter. Compilation is a pure function of the cache
// entry snapshots; it never resolves anything itself.
type Compiler struct {
	chunk *Chunk
}

func NewCompiler() *Compiler {
	return &Compiler{chunk: NewChunk()}
}

// Compile builds the chunk. It fails when a call site has no usable cache
// snapshot; callers should check Compilable first.
func (c *Compiler) Compile(expr ast.Expression) (*Chunk, error) {
	if err := c.compileExpression(expr); err != nil {
		return nil, err
	}
	tok := expr.GetToken()
	c.chunk.WriteOp(OP_RETURN, tok.Line, tok.Column)
	return c.chunk, nil
}

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emitConstant(e.Value, e.Token.Line, e.Token.Column)
		return nil

	case *ast.FloatLiteral:
		c.emitConstant(e.Value, e.Token.Line, e.Token.Column)
		return nil

	case *ast.StringLiteral:
		c.emitConstant(e.Value, e.Token.Line, e.Token.Column)
		return nil

	case *ast.BooleanLiteral:
		if e.Value {
			c.chunk.WriteOp(OP_TRUE, e.Token.Line, e.Token.Column)
		} else {
			c.chunk.WriteOp(OP_FALSE, e.Token.Line, e.Token.Column)
		}
		return nil

	case *ast.NilLiteral:
		c.chunk.WriteOp(OP_NIL, e.Token.Line, e.Token.Column)
		return nil

	case *ast.VariableRef:
		idx := c.chunk.AddConstant(e.Name)
		c.chunk.WriteOp(OP_GET_VAR, e.Token.Line, e.Token.Column)
		c.chunk.WriteU16(idx, e.Token.Line, e.Token.Column)
		return nil

	case *ast.TypeRef:
		idx := c.chunk.AddConstant(e.Name)
		c.chunk.WriteOp(OP_GET_TYPE, e.Token.Line, e.Token.Column)
		c.chunk.WriteU16(idx, e.Token.Line, e.Token.Column)
		return nil

	case *ast.PropertyAccess:
		return c.compilePropertyAccess(e)

	case *ast.MethodCall:
		return c.compileMethodCall(e)

	default:
		return fmt.Errorf("expression %s is not compilable", expr.String())
	}
}

func (c *Compiler) compilePropertyAccess(e *ast.PropertyAccess) error {
	accessor := e.Cache.Load()
	if accessor == nil {
		return fmt.Errorf("no cached accessor for property %s", e.Name)
	}
	line, col := e.Token.Line, e.Token.Column

	if e.Target == nil {
		c.chunk.WriteOp(OP_LOAD_ROOT, line, col)
	} else if err := c.compileExpression(e.Target); err != nil {
		return err
	}

	guard := -1
	if e.NullSafe {
		guard = c.emitJump(line, col)
	}

	idx := c.chunk.AddConstant(accessor)
	c.chunk.WriteOp(OP_GET_PROP, line, col)
	c.chunk.WriteU16(idx, line, col)

	if guard >= 0 {
		c.patchJump(guard)
	}
	return nil
}

// compileMethodCall emits, in order: target load, the null-safe guard jump,
// argument code, and the direct call. The bound-call constant reconciles the
// receiver type at run time; a void call pushes an explicit nil so the
// null-safe join sees the same stack shape on both paths.
func (c *Compiler) compileMethodCall(e *ast.MethodCall) error {
	entry := e.Cache.Load()
	if entry == nil {
		return fmt.Errorf("no applicable cached executor for method %s", e.Name)
	}
	ce, ok := entry.Get().(dispatch.CompilableExecutor)
	if !ok {
		return fmt.Errorf("cached executor for method %s is not compilable", e.Name)
	}
	line, col := e.Token.Line, e.Token.Column

	if e.Target == nil {
		c.chunk.WriteOp(OP_LOAD_ROOT, line, col)
	} else if err := c.compileExpression(e.Target); err != nil {
		return err
	}

	guard := -1
	if e.NullSafe {
		guard = c.emitJump(line, col)
	}

	for _, arg := range e.Args {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}

	bc := newBoundCall(e.Name, ce, entry.StaticType())
	idx := c.chunk.AddConstant(bc)
	c.chunk.WriteOp(OP_CALL_BOUND, line, col)
	c.chunk.WriteU16(idx, line, col)
	c.chunk.Write(byte(len(e.Args)), line, col)

	if bc.Void {
		// The call left nothing behind; the join point needs an explicit
		// null so both control-flow paths agree on stack shape.
		c.chunk.WriteOp(OP_NIL, line, col)
	}

	if guard >= 0 {
		c.patchJump(guard)
	}
	return nil
}

func (c *Compiler) emitConstant(value any, line, col int) {
	idx := c.chunk.AddConstant(value)
	c.chunk.WriteOp(OP_CONST, line, col)
	c.chunk.WriteU16(idx, line, col)
}

// emitJump writes OP_JUMP_IF_NIL with a placeholder target and returns the
// operand offset for patching.
func (c *Compiler) emitJump(line, col int) int {
	c.chunk.WriteOp(OP_JUMP_IF_NIL, line, col)
	pos := c.chunk.Len()
	c.chunk.WriteU16(0xFFFF, line, col)
	return pos
}

func (c *Compiler) patchJump(operandPos int) {
	c.chunk.PatchU16(operandPos, c.chunk.Len())
}
