// Package token defines the lexical token kinds of the expression language.
package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers and literals
	IDENT  = "IDENT"  // size, Find, inventory
	INT    = "INT"    // 42
	FLOAT  = "FLOAT"  // 3.14
	STRING = "STRING" // 'hello'

	// Delimiters
	DOT      = "."
	SAFE_NAV = "?."
	LPAREN   = "("
	RPAREN   = ")"
	COMMA    = ","
	HASH     = "#"

	// Keywords
	TRUE  = "TRUE"
	FALSE = "FALSE"
	NIL   = "NIL"
)

type Token struct {
	Type    TokenType
	Lexeme  string // raw source text
	Literal string // decoded value for string literals, Lexeme otherwise
	Line    int
	Column  int
}

var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
	"nil":   NIL,
	"null":  NIL,
}

// LookupIdent returns the keyword token type for an identifier, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
