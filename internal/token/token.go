// Package token defines the lexical tokens produced by internal/lexer and
// consumed by internal/asm.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Invalid Kind = iota
	Ident           // label name, mnemonic, register name, directive target
	Directive       // .data, .text, .word, .macro, ...
	Int             // integer literal (decimal, hex, binary, char)
	Str             // string literal, escapes already resolved
	Comma
	LParen
	RParen
	Colon
	Newline
	EOF
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "identifier"
	case Directive:
		return "directive"
	case Int:
		return "integer"
	case Str:
		return "string"
	case Comma:
		return "','"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Colon:
		return "':'"
	case Newline:
		return "newline"
	case EOF:
		return "end of file"
	default:
		return "invalid"
	}
}

// Pos is a source position, used for error reporting: parse errors
// must name line/column.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Token is one lexical unit. IntVal and Str hold the decoded value for Int
// and Str kinds respectively; Text holds the raw spelling for everything
// else (identifiers, directive names).
type Token struct {
	Kind   Kind
	Text   string
	IntVal int64
	Str    string
	Pos    Pos
}

func (t Token) String() string {
	switch t.Kind {
	case Int:
		return fmt.Sprintf("%d", t.IntVal)
	case Str:
		return fmt.Sprintf("%q", t.Str)
	default:
		return t.Text
	}
}
