// Package ast defines the expression tree produced by the parser. Nodes are
// created once per parsed expression and live as long as the tree; call-site
// nodes additionally carry the mutable resolution cache the evaluator and
// compiler share.
package ast

import (
	"strings"

	"github.com/funvibe/exprel/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

func joinArgs(args []Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}
