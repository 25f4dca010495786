package lexer

import (
	"github.com/funvibe/exprel/internal/pipeline"
)

// LexerProcessor tokenizes ctx.Source into ctx.Tokens.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.Tokens = New(ctx.Source).Tokens()
	return ctx
}
