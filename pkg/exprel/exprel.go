// Package exprel is the public embedding API. It parses expressions once and
// evaluates them repeatedly against Go values, with per-call-site executor
// caching and optional bytecode compilation of stable expressions.
package exprel

import (
	"errors"
	"reflect"
	"sync/atomic"

	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/config"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/evaluator"
	"github.com/funvibe/exprel/internal/lexer"
	"github.com/funvibe/exprel/internal/parser"
	"github.com/funvibe/exprel/internal/pipeline"
	"github.com/funvibe/exprel/internal/vm"
)

// CompilerMode controls when an expression compiles to bytecode.
type CompilerMode int

const (
	// ModeOff always interprets.
	ModeOff CompilerMode = iota

	// ModeImmediate compiles after the first interpreted evaluation.
	ModeImmediate

	// ModeMixed interprets until the warm-up threshold, then compiles.
	// A call site that keeps re-resolving never stabilizes enough to
	// compile, which is the point.
	ModeMixed
)

// ParseMode converts a config-file mode string.
func ParseMode(s string) (CompilerMode, bool) {
	switch s {
	case config.CompilerModeOff:
		return ModeOff, true
	case config.CompilerModeImmediate:
		return ModeImmediate, true
	case config.CompilerModeMixed:
		return ModeMixed, true
	}
	return ModeOff, false
}

// Expression is a parsed expression ready for repeated evaluation. It is
// safe for concurrent Eval calls as long as the context's variables are not
// mutated concurrently.
type Expression struct {
	source string
	root   ast.Expression
	ctx    *dispatch.EvalContext
	mode   CompilerMode
	warmup int64

	runs  atomic.Int64
	chunk atomic.Pointer[vm.Chunk]
}

// Option configures a parsed expression.
type Option func(*Expression)

// WithResolver appends a method resolver to the context's chain.
func WithResolver(r dispatch.MethodResolver) Option {
	return func(e *Expression) { e.ctx.AddResolver(r) }
}

// WithResolvers replaces the resolver chain.
func WithResolvers(rs ...dispatch.MethodResolver) Option {
	return func(e *Expression) { e.ctx.SetResolvers(rs...) }
}

// WithVariable binds #name to a value.
func WithVariable(name string, value any) Option {
	return func(e *Expression) { e.ctx.SetVariable(name, value) }
}

// WithType registers a type for T(name) references.
func WithType(name string, t reflect.Type) Option {
	return func(e *Expression) { e.ctx.RegisterType(name, t) }
}

// WithFunc registers a static function callable on T(name). fn must be a
// func value.
func WithFunc(t reflect.Type, name string, fn any) Option {
	return func(e *Expression) { e.ctx.RegisterFunc(t, name, fn) }
}

// WithCompilerMode selects when the expression compiles to bytecode.
// The default is ModeMixed.
func WithCompilerMode(mode CompilerMode) Option {
	return func(e *Expression) { e.mode = mode }
}

// WithWarmup overrides the mixed-mode warm-up threshold.
func WithWarmup(n int) Option {
	return func(e *Expression) { e.warmup = int64(n) }
}

// Parse parses source into a reusable Expression.
func Parse(source string, opts ...Option) (*Expression, error) {
	p := pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{})
	pc := p.Run(&pipeline.PipelineContext{Source: source})
	if len(pc.Errors) > 0 {
		return nil, pc.Errors[0]
	}
	e := &Expression{
		source: source,
		root:   pc.Root,
		ctx:    dispatch.NewEvalContext(),
		mode:   ModeMixed,
		warmup: config.DefaultWarmupThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MustParse is Parse that panics on error, for expressions known at build
// time.
func MustParse(source string, opts ...Option) *Expression {
	e, err := Parse(source, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}

// Context exposes the evaluation context for registering variables, types
// and resolvers after parsing.
func (e *Expression) Context() *dispatch.EvalContext {
	return e.ctx
}

// Eval evaluates against target and returns the plain result value.
func (e *Expression) Eval(target any) (any, error) {
	tv, err := e.EvalTyped(target)
	if err != nil {
		return nil, err
	}
	return tv.Value, nil
}

// EvalTyped evaluates against target and returns the typed result.
func (e *Expression) EvalTyped(target any) (dispatch.TypedValue, error) {
	if e.mode == ModeOff {
		return e.interpret(target)
	}

	if chunk := e.chunk.Load(); chunk != nil {
		result, err := vm.New().Run(chunk, target, e.ctx)
		if !errors.Is(err, vm.ErrStale) {
			return result, err
		}
		// The compiled snapshot no longer fits the values flowing through;
		// drop it and let the interpreted path re-resolve.
		e.chunk.Store(nil)
		e.runs.Store(0)
	}

	result, err := e.interpret(target)
	if err != nil {
		return result, err
	}

	runs := e.runs.Add(1)
	if e.mode == ModeMixed && runs < e.warmup {
		return result, nil
	}
	if vm.Compilable(e.root) {
		if chunk, cerr := vm.NewCompiler().Compile(e.root); cerr == nil {
			e.chunk.Store(chunk)
		}
	}
	return result, nil
}

func (e *Expression) interpret(target any) (dispatch.TypedValue, error) {
	eval := evaluator.New()
	return eval.Eval(e.root, evaluator.NewState(target, e.ctx))
}

// Disassemble evaluates once against target to warm the call sites, then
// compiles and returns the bytecode listing.
func (e *Expression) Disassemble(target any) (string, error) {
	if _, err := e.interpret(target); err != nil {
		return "", err
	}
	if !vm.Compilable(e.root) {
		return "", errors.New("expression is not compilable")
	}
	chunk, err := vm.NewCompiler().Compile(e.root)
	if err != nil {
		return "", err
	}
	return vm.Disassemble(chunk, e.source), nil
}

// Ref returns a value reference for the expression evaluated against
// target: the target and arguments are captured eagerly, and GetValue
// re-invokes without re-evaluating them. Method calls are not writable.
func (e *Expression) Ref(target any) (evaluator.Ref, error) {
	eval := evaluator.New()
	return eval.RefFor(e.root, evaluator.NewState(target, e.ctx))
}
