package parser

import (
	"fmt"

	"github.com/funvibe/exprel/internal/pipeline"
)

// ParserProcessor builds ctx.Root from ctx.Tokens. A parse failure lands in
// ctx.Errors and leaves Root nil.
type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Tokens) == 0 {
		// Safeguard: the lexer stage always emits at least EOF.
		ctx.Errors = append(ctx.Errors, fmt.Errorf("parser: token stream is empty"))
		return ctx
	}
	root, err := ParseTokens(ctx.Tokens)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Root = root
	return ctx
}
