// Copyright © 2025 The gnls authors

// Package parser implements an error-tolerant recursive descent parser for
// the GN build language. Parsing is total: any input yields a syntax tree,
// with malformed regions represented as error nodes so that editor features
// keep working on files that are mid-edit.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gntools/gnls/parser/token"
)

// Parse parses src and returns the file-level block. It never fails;
// syntax problems surface as ErrorNode statements in the tree.
func Parse(src []byte, file string) *Block {
	toks := token.NewScanner(file, src).All()
	p := &parser{toks: toks, end: len(src)}
	return p.parseBlock(0, true)
}

type parser struct {
	toks []token.Token
	pos  int
	end  int // byte length of the input

	// comments holds the comment lines immediately preceding the token at
	// pos, collected by advance.
	comments []string
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) at(typ token.Type) bool {
	return p.cur().Type == typ
}

func (p *parser) atIdent(name string) bool {
	t := p.cur()
	return t.Type == token.IDENT && t.Text == name
}

// advance moves past the current token, skipping and collecting any comment
// tokens that follow so they can be attached to the next statement.
func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	p.collectComments()
	return t
}

func (p *parser) collectComments() {
	for p.at(token.COMMENT) {
		text := strings.TrimPrefix(p.cur().Text, "#")
		text = strings.TrimPrefix(text, " ")
		p.comments = append(p.comments, text)
		if p.pos >= len(p.toks)-1 {
			return
		}
		p.pos++
	}
}

// takeComments returns and clears the pending comment lines.
func (p *parser) takeComments() []string {
	c := p.comments
	p.comments = nil
	return c
}

// parseBlock parses statements until a closing brace (or EOF for the
// file-level block). The opening brace, if any, has already been consumed.
func (p *parser) parseBlock(start int, topLevel bool) *Block {
	p.collectComments()
	block := &Block{S: Span{Start: start}}
	for {
		switch {
		case p.at(token.EOF):
			if !topLevel {
				block.Statements = append(block.Statements, &ErrorNode{
					S:       Span{Start: p.cur().Pos, End: p.cur().Pos},
					Message: "missing closing brace",
				})
			}
			block.S.End = p.end
			return block
		case p.at(token.RBRACE):
			if topLevel {
				// Stray closing brace at file level.
				t := p.advance()
				block.Statements = append(block.Statements, &ErrorNode{
					S:       Span{Start: t.Pos, End: t.End},
					Message: "unexpected closing brace",
				})
				continue
			}
			t := p.advance()
			block.S.End = t.End
			return block
		}
		block.Statements = append(block.Statements, p.parseStatement())
	}
}

// parseStatement parses one statement: an assignment, a call, or a
// condition. On malformed input it records an error node and resynchronizes
// at the next plausible statement start.
func (p *parser) parseStatement() Statement {
	comments := p.takeComments()

	if p.atIdent("if") {
		return p.parseCondition()
	}

	if p.at(token.IDENT) {
		ident := p.parseIdentifier()
		switch p.cur().Type {
		case token.LPAREN:
			return p.parseCall(ident, comments)
		case token.LBRACKET, token.DOT, token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN:
			return p.parseAssignment(ident, comments)
		}
		return p.errorAndSync(ident.S.Start, "expected assignment or call")
	}

	return p.errorAndSync(p.cur().Pos, fmt.Sprintf("unexpected %s", p.cur().Type))
}

// errorAndSync records an error node starting at start and skips tokens
// until the next statement boundary: an identifier that can start a
// statement, a closing brace, or EOF.
func (p *parser) errorAndSync(start int, msg string) *ErrorNode {
	end := p.cur().End
	for !p.at(token.EOF) && !p.at(token.RBRACE) && !p.at(token.IDENT) {
		end = p.cur().End
		p.advance()
	}
	if end < start {
		end = start
	}
	return &ErrorNode{S: Span{Start: start, End: end}, Message: msg}
}

func (p *parser) parseIdentifier() *Identifier {
	t := p.advance()
	return &Identifier{S: Span{Start: t.Pos, End: t.End}, Name: t.Text}
}

func (p *parser) parseAssignment(ident *Identifier, comments []string) Statement {
	lvalue := p.parseLValue(ident)

	op := p.cur()
	switch op.Type {
	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN:
		p.advance()
	default:
		return p.errorAndSync(ident.S.Start, "expected assignment operator")
	}

	rvalue := p.parseExpr()
	return &Assignment{
		S:        Span{Start: ident.S.Start, End: rvalue.Span().End},
		LValue:   lvalue,
		Op:       op.Type,
		RValue:   rvalue,
		Comments: comments,
	}
}

func (p *parser) parseLValue(ident *Identifier) LValue {
	switch p.cur().Type {
	case token.LBRACKET:
		p.advance()
		index := p.parseExpr()
		end := index.Span().End
		if p.at(token.RBRACKET) {
			end = p.advance().End
		}
		return &ArrayAccess{S: Span{Start: ident.S.Start, End: end}, Base: ident, Index: index}
	case token.DOT:
		p.advance()
		if !p.at(token.IDENT) {
			return ident
		}
		field := p.parseIdentifier()
		return &ScopeAccess{S: Span{Start: ident.S.Start, End: field.S.End}, Base: ident, Field: field}
	}
	return ident
}

func (p *parser) parseCall(ident *Identifier, comments []string) Statement {
	call := p.parseCallTail(ident)
	call.Comments = comments
	return call
}

// parseCallTail parses the argument list and optional trailing block of a
// call whose function identifier has already been consumed.
func (p *parser) parseCallTail(ident *Identifier) *Call {
	call := &Call{S: Span{Start: ident.S.Start}, Function: ident}
	end := p.advance().End // consume '('
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		arg := p.parseExpr()
		call.Args = append(call.Args, arg)
		end = arg.Span().End
		if p.at(token.COMMA) {
			end = p.advance().End
			continue
		}
		break
	}
	if p.at(token.RPAREN) {
		end = p.advance().End
	}
	if p.at(token.LBRACE) {
		open := p.advance()
		call.Block = p.parseBlock(open.Pos, false)
		end = call.Block.S.End
	}
	call.S.End = end
	return call
}

func (p *parser) parseCondition() Statement {
	start := p.cur().Pos
	p.advance() // 'if'
	cond := p.parseConditionChain(start)
	return cond
}

func (p *parser) parseConditionChain(start int) *Condition {
	c := &Condition{S: Span{Start: start}}

	if p.at(token.LPAREN) {
		p.advance()
		c.Cond = p.parseExpr()
		if p.at(token.RPAREN) {
			p.advance()
		}
	} else {
		c.Cond = &ErrorNode{
			S:       Span{Start: p.cur().Pos, End: p.cur().End},
			Message: "expected condition",
		}
	}

	if p.at(token.LBRACE) {
		open := p.advance()
		c.Then = p.parseBlock(open.Pos, false)
	} else {
		c.Then = &Block{S: Span{Start: p.cur().Pos, End: p.cur().Pos}}
	}
	end := c.Then.S.End

	if p.atIdent("else") {
		p.advance()
		switch {
		case p.atIdent("if"):
			elseStart := p.cur().Pos
			p.advance()
			c.ElseCond = p.parseConditionChain(elseStart)
			end = c.ElseCond.S.End
		case p.at(token.LBRACE):
			open := p.advance()
			c.ElseBlock = p.parseBlock(open.Pos, false)
			end = c.ElseBlock.S.End
		}
	}

	c.S.End = end
	return c
}

// Binary operator precedence, loosest first. GN has no exponentiation or
// multiplication; arithmetic is + and - only.
var precedence = map[token.Type]int{
	token.OR:     1,
	token.AND:    2,
	token.EQ:     3,
	token.NOT_EQ: 3,
	token.LT:     4,
	token.LE:     4,
	token.GT:     4,
	token.GE:     4,
	token.PLUS:   5,
	token.MINUS:  5,
}

func (p *parser) parseExpr() Expr {
	return p.parseBinary(1)
}

func (p *parser) parseBinary(minPrec int) Expr {
	lhs := p.parseUnary()
	for {
		prec, ok := precedence[p.cur().Type]
		if !ok || prec < minPrec {
			return lhs
		}
		op := p.advance()
		rhs := p.parseBinary(prec + 1)
		lhs = &BinaryExpr{
			S:   Span{Start: lhs.Span().Start, End: rhs.Span().End},
			Op:  op.Type,
			LHS: lhs,
			RHS: rhs,
		}
	}
}

func (p *parser) parseUnary() Expr {
	if p.at(token.NOT) {
		op := p.advance()
		x := p.parseUnary()
		return &UnaryExpr{S: Span{Start: op.Pos, End: x.Span().End}, Op: token.NOT, X: x}
	}
	if p.at(token.MINUS) {
		op := p.advance()
		x := p.parseUnary()
		return &UnaryExpr{S: Span{Start: op.Pos, End: x.Span().End}, Op: token.MINUS, X: x}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() Expr {
	t := p.cur()
	switch t.Type {
	case token.INT:
		p.advance()
		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return &ErrorNode{S: Span{Start: t.Pos, End: t.End}, Message: "invalid integer literal"}
		}
		return &IntegerLit{S: Span{Start: t.Pos, End: t.End}, Value: v}

	case token.STRING:
		p.advance()
		return &StringLit{
			S:   Span{Start: t.Pos, End: t.End},
			Raw: t.Text[1 : len(t.Text)-1],
		}

	case token.IDENT:
		switch t.Text {
		case "true", "false":
			p.advance()
			return &BooleanLit{S: Span{Start: t.Pos, End: t.End}, Value: t.Text == "true"}
		}
		ident := p.parseIdentifier()
		switch p.cur().Type {
		case token.LPAREN:
			return p.parseCallTail(ident)
		case token.LBRACKET:
			p.advance()
			index := p.parseExpr()
			end := index.Span().End
			if p.at(token.RBRACKET) {
				end = p.advance().End
			}
			return &ArrayAccess{S: Span{Start: ident.S.Start, End: end}, Base: ident, Index: index}
		case token.DOT:
			p.advance()
			if !p.at(token.IDENT) {
				return ident
			}
			field := p.parseIdentifier()
			return &ScopeAccess{S: Span{Start: ident.S.Start, End: field.S.End}, Base: ident, Field: field}
		}
		return ident

	case token.LPAREN:
		p.advance()
		x := p.parseExpr()
		end := x.Span().End
		if p.at(token.RPAREN) {
			end = p.advance().End
		}
		return &ParenExpr{S: Span{Start: t.Pos, End: end}, X: x}

	case token.LBRACKET:
		p.advance()
		list := &ListLit{S: Span{Start: t.Pos}}
		for !p.at(token.RBRACKET) && !p.at(token.EOF) {
			v := p.parseExpr()
			list.Values = append(list.Values, v)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		end := p.cur().End
		if p.at(token.RBRACKET) {
			end = p.advance().End
		}
		list.S.End = end
		return list

	case token.LBRACE:
		open := p.advance()
		block := p.parseBlock(open.Pos, false)
		return &BlockExpr{S: block.S, Block: block}
	}

	// Not a valid expression start; consume one token so parsing advances.
	p.advance()
	return &ErrorNode{
		S:       Span{Start: t.Pos, End: t.End},
		Message: fmt.Sprintf("unexpected %s in expression", t.Type),
	}
}
