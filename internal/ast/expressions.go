package ast

import (
	"reflect"
	"strconv"
	"sync/atomic"

	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/token"
)

// IntegerLiteral represents a whole-number literal, e.g. 42.
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }
func (il *IntegerLiteral) String() string        { return strconv.FormatInt(il.Value, 10) }

// FloatLiteral represents a floating-point literal, e.g. 3.14.
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }
func (fl *FloatLiteral) String() string        { return strconv.FormatFloat(fl.Value, 'g', -1, 64) }

// StringLiteral represents a quoted string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }
func (sl *StringLiteral) String() string        { return "'" + sl.Value + "'" }

// BooleanLiteral represents true or false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }
func (bl *BooleanLiteral) String() string        { return strconv.FormatBool(bl.Value) }

// NilLiteral represents the null value.
type NilLiteral struct {
	Token token.Token
}

func (nl *NilLiteral) expressionNode()       {}
func (nl *NilLiteral) TokenLiteral() string  { return nl.Token.Lexeme }
func (nl *NilLiteral) GetToken() token.Token { return nl.Token }
func (nl *NilLiteral) String() string        { return "nil" }

// VariableRef represents a #name variable reference.
type VariableRef struct {
	Token token.Token // the '#' token
	Name  string
}

func (vr *VariableRef) expressionNode()       {}
func (vr *VariableRef) TokenLiteral() string  { return vr.Token.Lexeme }
func (vr *VariableRef) GetToken() token.Token { return vr.Token }
func (vr *VariableRef) String() string        { return "#" + vr.Name }

// TypeRef represents a type reference, T(Name). It evaluates to the type
// object registered under Name in the evaluation context.
type TypeRef struct {
	Token token.Token // the 'T' token
	Name  string      // possibly dotted, e.g. "time.Time"
}

func (tr *TypeRef) expressionNode()       {}
func (tr *TypeRef) TokenLiteral() string  { return tr.Token.Lexeme }
func (tr *TypeRef) GetToken() token.Token { return tr.Token }
func (tr *TypeRef) String() string        { return "T(" + tr.Name + ")" }

// PropertyAccess represents member access, target.Name or target?.Name.
// A nil Target reads the property off the root object.
type PropertyAccess struct {
	Token    token.Token // the member name token
	Target   Expression
	Name     string
	NullSafe bool

	// Cache memoizes the resolved accessor, guarded by the target type.
	Cache atomic.Pointer[dispatch.PropertyAccessor]
}

func (pa *PropertyAccess) expressionNode()       {}
func (pa *PropertyAccess) TokenLiteral() string  { return pa.Token.Lexeme }
func (pa *PropertyAccess) GetToken() token.Token { return pa.Token }

func (pa *PropertyAccess) String() string {
	op := "."
	if pa.NullSafe {
		op = "?."
	}
	if pa.Target == nil {
		return pa.Name
	}
	return pa.Target.String() + op + pa.Name
}

// MethodCall represents one method-invocation call site, target.Name(args)
// or target?.Name(args). A nil Target invokes on the root object. Name and
// NullSafe are immutable after construction; only the cache slot and the
// exit-type bookkeeping mutate, and the cache slot only by whole-entry
// replacement.
type MethodCall struct {
	Token    token.Token // the method name token
	Target   Expression
	Name     string
	NullSafe bool
	Args     []Expression

	// Cache is the single-slot resolution cache for this call site.
	Cache atomic.Pointer[dispatch.CachedExecutor]

	// exitType is the statically known result type for the compiled path,
	// refreshed after each successful interpreted evaluation. originalValue
	// remembers a value-kind result that a null-safe join forces into its
	// widened nullable form.
	exitType      atomic.Pointer[exitDescriptor]
	originalValue atomic.Bool
}

type exitDescriptor struct {
	t reflect.Type // nil for void
}

func (mc *MethodCall) expressionNode()       {}
func (mc *MethodCall) TokenLiteral() string  { return mc.Token.Lexeme }
func (mc *MethodCall) GetToken() token.Token { return mc.Token }

func (mc *MethodCall) String() string {
	op := "."
	if mc.NullSafe {
		op = "?."
	}
	prefix := ""
	if mc.Target != nil {
		prefix = mc.Target.String() + op
	}
	return prefix + mc.Name + joinArgs(mc.Args)
}

// SetExitType records the compiled-path result type. boxedValue marks a
// value-kind result widened for a null-safe join.
func (mc *MethodCall) SetExitType(t reflect.Type, boxedValue bool) {
	mc.exitType.Store(&exitDescriptor{t: t})
	mc.originalValue.Store(boxedValue)
}

// ExitType returns the recorded result type (nil for void) and whether it
// has been recorded at all.
func (mc *MethodCall) ExitType() (reflect.Type, bool) {
	d := mc.exitType.Load()
	if d == nil {
		return nil, false
	}
	return d.t, true
}

// BoxedValueExit reports that the result is a value kind forced into its
// nullable widened form by a null-safe short circuit.
func (mc *MethodCall) BoxedValueExit() bool {
	return mc.originalValue.Load()
}
