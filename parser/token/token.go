// Copyright © 2025 The gnls authors

// Package token defines lexical tokens of the GN build language and a
// scanner that produces them.
package token

import "fmt"

// Type identifies the lexical class of a token.
type Type uint

const (
	INVALID Type = iota
	ERROR
	EOF

	COMMENT

	// Atomic expressions & literals
	IDENT
	INT
	STRING

	// Operators
	ASSIGN       // =
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	EQ           // ==
	NOT_EQ       // !=
	LT           // <
	LE           // <=
	GT           // >
	GE           // >=
	NOT          // !
	AND          // &&
	OR           // ||
	PLUS         // +
	MINUS        // -

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	DOT      // .

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:      "invalid",
		ERROR:        "error",
		EOF:          "EOF",
		COMMENT:      "comment",
		IDENT:        "identifier",
		INT:          "int",
		STRING:       "string",
		ASSIGN:       "=",
		PLUS_ASSIGN:  "+=",
		MINUS_ASSIGN: "-=",
		EQ:           "==",
		NOT_EQ:       "!=",
		LT:           "<",
		LE:           "<=",
		GT:           ">",
		GE:           ">=",
		NOT:          "!",
		AND:          "&&",
		OR:           "||",
		PLUS:         "+",
		MINUS:        "-",
		LPAREN:       "(",
		RPAREN:       ")",
		LBRACE:       "{",
		RBRACE:       "}",
		LBRACKET:     "[",
		RBRACKET:     "]",
		COMMA:        ",",
		DOT:          ".",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Token is a single lexical element with its source extent. Pos and End are
// byte offsets into the scanned input; Text is the raw token text (for
// STRING tokens it includes the surrounding quotes).
type Token struct {
	Type Type
	Text string
	Pos  int
	End  int
}

// Location is a human-readable source position used in error messages and
// cross-file references.
type Location struct {
	File string
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}
