// Package parser builds the expression AST from a token stream.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/lexer"
	"github.com/funvibe/exprel/internal/token"
)

// MaxRecursionDepth bounds nesting to keep malformed input from blowing the
// stack.
const MaxRecursionDepth = 200

// Error is a parse failure at a source position.
type Error struct {
	Tok token.Token
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Tok.Line, e.Tok.Column, e.Msg)
}

type Parser struct {
	tokens []token.Token
	pos    int
	depth  int
	errors []error
}

// New builds a parser over pre-lexed tokens (ending with EOF).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses a complete expression. The whole input must be
// consumed.
func Parse(input string) (ast.Expression, error) {
	return ParseTokens(lexer.New(input).Tokens())
}

// ParseTokens parses a complete expression from pre-lexed tokens.
func ParseTokens(tokens []token.Token) (ast.Expression, error) {
	p := New(tokens)
	expr := p.parseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if p.curToken().Type != token.EOF {
		return nil, &Error{Tok: p.curToken(), Msg: fmt.Sprintf("unexpected trailing input %q", p.curToken().Lexeme)}
	}
	return expr, nil
}

func (p *Parser) curToken() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekToken() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	p.errors = append(p.errors, &Error{Tok: tok, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(t token.TokenType) bool {
	if p.curToken().Type != t {
		p.errorf(p.curToken(), "expected %s, got %q", t, p.curToken().Lexeme)
		return false
	}
	return true
}

// parseExpression parses a primary expression followed by any number of
// member accesses and method calls.
func (p *Parser) parseExpression() ast.Expression {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		p.errorf(p.curToken(), "expression too complex: recursion depth limit exceeded")
		return nil
	}

	left := p.parsePrimary()
	if left == nil {
		return nil
	}

	for {
		switch p.curToken().Type {
		case token.DOT:
			p.nextToken()
			left = p.parseMember(left, false)
		case token.SAFE_NAV:
			p.nextToken()
			left = p.parseMember(left, true)
		default:
			return left
		}
		if left == nil {
			return nil
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.curToken()
	switch tok.Type {
	case token.INT:
		p.nextToken()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf(tok, "invalid integer literal %q", tok.Lexeme)
			return nil
		}
		return &ast.IntegerLiteral{Token: tok, Value: value}

	case token.FLOAT:
		p.nextToken()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf(tok, "invalid float literal %q", tok.Lexeme)
			return nil
		}
		return &ast.FloatLiteral{Token: tok, Value: value}

	case token.STRING:
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}

	case token.TRUE, token.FALSE:
		p.nextToken()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.TRUE}

	case token.NIL:
		p.nextToken()
		return &ast.NilLiteral{Token: tok}

	case token.HASH:
		p.nextToken()
		nameTok := p.curToken()
		if !p.expect(token.IDENT) {
			return nil
		}
		p.nextToken()
		return &ast.VariableRef{Token: tok, Name: nameTok.Literal}

	case token.IDENT:
		if tok.Lexeme == "T" && p.peekToken().Type == token.LPAREN {
			return p.parseTypeRef()
		}
		p.nextToken()
		if p.curToken().Type == token.LPAREN {
			args := p.parseArguments()
			return &ast.MethodCall{Token: tok, Name: tok.Literal, Args: args}
		}
		return &ast.PropertyAccess{Token: tok, Name: tok.Literal}

	case token.LPAREN:
		p.nextToken()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		p.nextToken()
		return inner

	default:
		p.errorf(tok, "unexpected token %q", tok.Lexeme)
		return nil
	}
}

// parseMember parses the member after a '.' or '?.': a property read or a
// method call on the target parsed so far.
func (p *Parser) parseMember(target ast.Expression, nullSafe bool) ast.Expression {
	tok := p.curToken()
	if !p.expect(token.IDENT) {
		return nil
	}
	p.nextToken()
	if p.curToken().Type == token.LPAREN {
		args := p.parseArguments()
		return &ast.MethodCall{Token: tok, Target: target, Name: tok.Literal, NullSafe: nullSafe, Args: args}
	}
	return &ast.PropertyAccess{Token: tok, Target: target, Name: tok.Literal, NullSafe: nullSafe}
}

// parseArguments parses a parenthesized, comma-separated argument list. The
// current token is the opening paren.
func (p *Parser) parseArguments() []ast.Expression {
	p.nextToken() // consume '('
	args := []ast.Expression{}
	if p.curToken().Type == token.RPAREN {
		p.nextToken()
		return args
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return args
		}
		args = append(args, arg)
		if p.curToken().Type == token.COMMA {
			p.nextToken()
			continue
		}
		break
	}
	if p.expect(token.RPAREN) {
		p.nextToken()
	}
	return args
}

// parseTypeRef parses T(Name) with an optionally dotted name.
func (p *Parser) parseTypeRef() ast.Expression {
	tok := p.curToken() // 'T'
	p.nextToken()       // to '('
	p.nextToken()       // consume '('

	var parts []string
	for {
		nameTok := p.curToken()
		if !p.expect(token.IDENT) {
			return nil
		}
		parts = append(parts, nameTok.Literal)
		p.nextToken()
		if p.curToken().Type == token.DOT {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	p.nextToken()
	return &ast.TypeRef{Token: tok, Name: strings.Join(parts, ".")}
}
