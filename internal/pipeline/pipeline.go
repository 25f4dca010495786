package pipeline

import (
	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/token"
)

// PipelineContext carries one expression through the processing stages:
// source text in, tokens out, then the parsed tree. Stages append their
// failures to Errors instead of aborting so a caller sees everything at
// once.
type PipelineContext struct {
	Source string
	Tokens []token.Token
	Root   ast.Expression

	Errors []error
}

// Processor is one processing stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
