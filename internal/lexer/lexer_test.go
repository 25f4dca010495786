package lexer_test

import (
	"testing"

	"github.com/funvibe/exprel/internal/lexer"
	"github.com/funvibe/exprel/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `inventory.Find('widget', 3)?.Price`

	expected := []struct {
		typ     token.TokenType
		lexeme  string
		literal string
	}{
		{token.IDENT, "inventory", "inventory"},
		{token.DOT, ".", "."},
		{token.IDENT, "Find", "Find"},
		{token.LPAREN, "(", "("},
		{token.STRING, "'widget'", "widget"},
		{token.COMMA, ",", ","},
		{token.INT, "3", "3"},
		{token.RPAREN, ")", ")"},
		{token.SAFE_NAV, "?.", "?."},
		{token.IDENT, "Price", "Price"},
		{token.EOF, "", ""},
	}

	l := lexer.New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Fatalf("token %d: expected type %q, got %q (%q)", i, exp.typ, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != exp.lexeme {
			t.Errorf("token %d: expected lexeme %q, got %q", i, exp.lexeme, tok.Lexeme)
		}
		if tok.Literal != exp.literal {
			t.Errorf("token %d: expected literal %q, got %q", i, exp.literal, tok.Literal)
		}
	}
}

func TestTokens(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		types []token.TokenType
	}{
		{"variable", "#user", []token.TokenType{token.HASH, token.IDENT, token.EOF}},
		{"type_ref", "T(Math)", []token.TokenType{token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.EOF}},
		{"float", "3.14", []token.TokenType{token.FLOAT, token.EOF}},
		{"int_then_member", "3.Abs()", []token.TokenType{token.INT, token.DOT, token.IDENT, token.LPAREN, token.RPAREN, token.EOF}},
		{"keywords", "true false nil null", []token.TokenType{token.TRUE, token.FALSE, token.NIL, token.NIL, token.EOF}},
		{"double_quoted", `"hi"`, []token.TokenType{token.STRING, token.EOF}},
		{"illegal", "@", []token.TokenType{token.ILLEGAL, token.EOF}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := lexer.New(tc.input).Tokens()
			if len(tokens) != len(tc.types) {
				t.Fatalf("expected %d tokens, got %d: %v", len(tc.types), len(tokens), tokens)
			}
			for i, typ := range tc.types {
				if tokens[i].Type != typ {
					t.Errorf("token %d: expected %q, got %q (%q)", i, typ, tokens[i].Type, tokens[i].Lexeme)
				}
			}
		})
	}
}

func TestStringEscapes(t *testing.T) {
	testCases := []struct {
		input   string
		literal string
	}{
		{`'it''s'`, "it's"},
		{`'plain'`, "plain"},
		{`""`, ""},
	}

	for _, tc := range testCases {
		tok := lexer.New(tc.input).NextToken()
		if tok.Type != token.STRING {
			t.Fatalf("%q: expected STRING, got %q", tc.input, tok.Type)
		}
		if tok.Literal != tc.literal {
			t.Errorf("%q: expected literal %q, got %q", tc.input, tc.literal, tok.Literal)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, input := range []string{"'abc", `"abc`, "'it''s"} {
		tok := lexer.New(input).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %q (%q)", input, tok.Type, tok.Lexeme)
		}
	}
}

func TestPositions(t *testing.T) {
	tokens := lexer.New("a.B()").Tokens()
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("first token at %d:%d, expected 1:1", tokens[0].Line, tokens[0].Column)
	}
	if tokens[2].Column != 3 {
		t.Errorf("method name at column %d, expected 3", tokens[2].Column)
	}
}
