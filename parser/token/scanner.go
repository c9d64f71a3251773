// Copyright © 2025 The gnls authors

package token

import (
	"strings"
	"unicode/utf8"
)

// Scanner tokenizes GN source held in memory. Build files are small and the
// document store keeps full contents in memory anyway, so the scanner works
// on a byte slice rather than a stream.
type Scanner struct {
	file string
	src  []byte
	pos  int
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(file string, src []byte) *Scanner {
	return &Scanner{file: file, src: src}
}

// Next scans and returns the next token. At the end of input it returns an
// EOF token; it never fails. Malformed input (unterminated strings, stray
// bytes) yields ERROR tokens so the parser can recover.
func (s *Scanner) Next() Token {
	s.skipSpace()
	start := s.pos
	if s.pos >= len(s.src) {
		return Token{Type: EOF, Pos: start, End: start}
	}

	c := s.src[s.pos]
	switch {
	case c == '#':
		return s.scanComment(start)
	case c == '"':
		return s.scanString(start)
	case c >= '0' && c <= '9':
		return s.scanInt(start)
	case isIdentStart(c):
		return s.scanIdent(start)
	}

	// Operators and delimiters.
	if tok, ok := s.scanOperator(start); ok {
		return tok
	}

	// Skip the offending rune so the scanner always makes progress.
	_, size := utf8.DecodeRune(s.src[s.pos:])
	s.pos += size
	return s.emit(ERROR, start)
}

// All returns every remaining token including the trailing EOF. COMMENT
// tokens are included; the parser decides whether to keep them.
func (s *Scanner) All() []Token {
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

func (s *Scanner) emit(typ Type, start int) Token {
	return Token{Type: typ, Text: string(s.src[start:s.pos]), Pos: start, End: s.pos}
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

func (s *Scanner) scanComment(start int) Token {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
	return s.emit(COMMENT, start)
}

// scanString consumes a double-quoted string. GN strings support \" \$ \\
// escapes and $var / ${...} expansions; expansions are kept verbatim in the
// token text. An unterminated string produces an ERROR token ending at the
// end of the line or input.
func (s *Scanner) scanString(start int) Token {
	s.pos++ // opening quote
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos++
			if s.pos < len(s.src) {
				s.pos++
			}
		case '"':
			s.pos++
			return s.emit(STRING, start)
		case '\n':
			// Strings do not span lines.
			return s.emit(ERROR, start)
		default:
			s.pos++
		}
	}
	return s.emit(ERROR, start)
}

func (s *Scanner) scanInt(start int) Token {
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	return s.emit(INT, start)
}

func (s *Scanner) scanIdent(start int) Token {
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return s.emit(IDENT, start)
}

func (s *Scanner) scanOperator(start int) (Token, bool) {
	two := ""
	if s.pos+1 < len(s.src) {
		two = string(s.src[s.pos : s.pos+2])
	}
	switch two {
	case "+=":
		s.pos += 2
		return s.emit(PLUS_ASSIGN, start), true
	case "-=":
		s.pos += 2
		return s.emit(MINUS_ASSIGN, start), true
	case "==":
		s.pos += 2
		return s.emit(EQ, start), true
	case "!=":
		s.pos += 2
		return s.emit(NOT_EQ, start), true
	case "<=":
		s.pos += 2
		return s.emit(LE, start), true
	case ">=":
		s.pos += 2
		return s.emit(GE, start), true
	case "&&":
		s.pos += 2
		return s.emit(AND, start), true
	case "||":
		s.pos += 2
		return s.emit(OR, start), true
	}

	var typ Type
	switch s.src[s.pos] {
	case '=':
		typ = ASSIGN
	case '<':
		typ = LT
	case '>':
		typ = GT
	case '!':
		typ = NOT
	case '+':
		typ = PLUS
	case '-':
		typ = MINUS
	case '(':
		typ = LPAREN
	case ')':
		typ = RPAREN
	case '{':
		typ = LBRACE
	case '}':
		typ = RBRACE
	case '[':
		typ = LBRACKET
	case ']':
		typ = RBRACKET
	case ',':
		typ = COMMA
	case '.':
		typ = DOT
	default:
		return Token{}, false
	}
	s.pos++
	return s.emit(typ, start), true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// UnquoteSimple strips the surrounding quotes from a STRING token's text and
// returns the literal value, or false if the string uses escapes or $
// expansions and therefore has no configuration-independent value.
func UnquoteSimple(text string) (string, bool) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if strings.ContainsAny(inner, "\\$") {
		return "", false
	}
	return inner, true
}

// IsIdent reports whether s is a valid GN identifier.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	if !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
