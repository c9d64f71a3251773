// Copyright © 2025 The gnls authors

package parser

import (
	"strings"

	"github.com/gntools/gnls/parser/token"
)

// Span is a half-open byte range [Start, End) into the parsed input.
type Span struct {
	Start int
	End   int
}

// Contains reports whether the byte offset pos falls strictly inside the
// span. The boundaries are excluded so that a cursor sitting on a closing
// brace is attributed to the enclosing scope.
func (s Span) Contains(pos int) bool {
	return s.Start < pos && pos < s.End
}

// Node is implemented by every syntax tree node.
type Node interface {
	Span() Span
}

// Block is a brace-delimited (or file-level) sequence of statements.
type Block struct {
	S          Span
	Statements []Statement
}

func (b *Block) Span() Span { return b.S }

// Statement is one of *Assignment, *Call, *Condition or *ErrorNode.
type Statement interface {
	Node
	stmtNode()
}

// Assignment is `lvalue = expr`, `lvalue += expr` or `lvalue -= expr`.
type Assignment struct {
	S        Span
	LValue   LValue
	Op       token.Type // ASSIGN, PLUS_ASSIGN or MINUS_ASSIGN
	RValue   Expr
	Comments []string // preceding comment lines, without the leading '#'
}

func (a *Assignment) Span() Span { return a.S }
func (*Assignment) stmtNode()    {}

// Call is `name(args...)` with an optional trailing block:
// `template("foo") { ... }`. Calls appear both as statements and as
// expressions.
type Call struct {
	S        Span
	Function *Identifier
	Args     []Expr
	Block    *Block
	Comments []string
}

func (c *Call) Span() Span { return c.S }
func (*Call) stmtNode()    {}
func (*Call) exprNode()    {}

// OnlyArg returns the single argument of the call, or nil when the call has
// any other number of arguments.
func (c *Call) OnlyArg() Expr {
	if len(c.Args) != 1 {
		return nil
	}
	return c.Args[0]
}

// Condition is an if/else-if/else chain.
type Condition struct {
	S         Span
	Cond      Expr
	Then      *Block
	ElseCond  *Condition // else if (...) { ... }
	ElseBlock *Block     // else { ... }
}

func (c *Condition) Span() Span { return c.S }
func (*Condition) stmtNode()    {}

// ErrorNode marks a region of malformed input. Parsing is total: bad input
// becomes error nodes and the parser resynchronizes after them.
type ErrorNode struct {
	S       Span
	Message string
}

func (e *ErrorNode) Span() Span { return e.S }
func (*ErrorNode) stmtNode()    {}
func (*ErrorNode) exprNode()    {}

// LValue is the destination of an assignment: a bare identifier, an array
// element, or a scope member.
type LValue interface {
	Node
	// Primary returns the identifier naming the assigned variable.
	Primary() *Identifier
}

// Identifier is a name occurrence.
type Identifier struct {
	S    Span
	Name string
}

func (i *Identifier) Span() Span           { return i.S }
func (i *Identifier) Primary() *Identifier { return i }
func (*Identifier) exprNode()              {}

// ArrayAccess is `base[index]`.
type ArrayAccess struct {
	S     Span
	Base  *Identifier
	Index Expr
}

func (a *ArrayAccess) Span() Span           { return a.S }
func (a *ArrayAccess) Primary() *Identifier { return a.Base }
func (*ArrayAccess) exprNode()              {}

// ScopeAccess is `base.field`.
type ScopeAccess struct {
	S     Span
	Base  *Identifier
	Field *Identifier
}

func (a *ScopeAccess) Span() Span           { return a.S }
func (a *ScopeAccess) Primary() *Identifier { return a.Base }
func (*ScopeAccess) exprNode()              {}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// UnaryExpr is `!x`.
type UnaryExpr struct {
	S  Span
	Op token.Type
	X  Expr
}

func (u *UnaryExpr) Span() Span { return u.S }
func (*UnaryExpr) exprNode()    {}

// BinaryExpr is `lhs op rhs`.
type BinaryExpr struct {
	S   Span
	Op  token.Type
	LHS Expr
	RHS Expr
}

func (b *BinaryExpr) Span() Span { return b.S }
func (*BinaryExpr) exprNode()    {}

// IntegerLit is a decimal integer literal.
type IntegerLit struct {
	S     Span
	Value int64
}

func (i *IntegerLit) Span() Span { return i.S }
func (*IntegerLit) exprNode()    {}

// BooleanLit is `true` or `false`.
type BooleanLit struct {
	S     Span
	Value bool
}

func (b *BooleanLit) Span() Span { return b.S }
func (*BooleanLit) exprNode()    {}

// StringLit is a double-quoted string. Raw holds the text between the
// quotes, escapes and $ expansions unprocessed.
type StringLit struct {
	S   Span
	Raw string
}

func (s *StringLit) Span() Span { return s.S }
func (*StringLit) exprNode()    {}

// SimpleValue returns the literal value of the string, or false when the
// string contains escapes or $ expansions and so has no value independent of
// build configuration.
func (s *StringLit) SimpleValue() (string, bool) {
	if strings.ContainsAny(s.Raw, "\\$") {
		return "", false
	}
	return s.Raw, true
}

// ContentSpan returns the span of the string contents, excluding quotes.
func (s *StringLit) ContentSpan() Span {
	return Span{Start: s.S.Start + 1, End: s.S.End - 1}
}

// ListLit is `[a, b, c]`.
type ListLit struct {
	S      Span
	Values []Expr
}

func (l *ListLit) Span() Span { return l.S }
func (*ListLit) exprNode()    {}

// BlockExpr is a scope literal: a block used in expression position.
type BlockExpr struct {
	S     Span
	Block *Block
}

func (b *BlockExpr) Span() Span { return b.S }
func (*BlockExpr) exprNode()    {}

// ParenExpr is `(x)`.
type ParenExpr struct {
	S Span
	X Expr
}

func (p *ParenExpr) Span() Span { return p.S }
func (*ParenExpr) exprNode()    {}

// AsSimpleString unwraps an expression that is a plain string literal
// without expansions and returns its value.
func AsSimpleString(e Expr) (string, bool) {
	s, ok := e.(*StringLit)
	if !ok {
		return "", false
	}
	return s.SimpleValue()
}

// AsPrimaryString unwraps an expression that is a string literal, expansions
// included.
func AsPrimaryString(e Expr) (*StringLit, bool) {
	s, ok := e.(*StringLit)
	return s, ok
}

// AsPrimaryList unwraps an expression that is a list literal.
func AsPrimaryList(e Expr) (*ListLit, bool) {
	l, ok := e.(*ListLit)
	return l, ok
}

// AsPrimaryIdentifier unwraps an expression that is a bare identifier.
func AsPrimaryIdentifier(e Expr) (*Identifier, bool) {
	id, ok := e.(*Identifier)
	return id, ok
}

// ExprBlocks collects all blocks appearing inside an expression: scope
// literals and trailing blocks of calls in expression position. The result
// is in source order.
func ExprBlocks(e Expr) []*Block {
	var blocks []*Block
	collectExprBlocks(e, &blocks)
	return blocks
}

func collectExprBlocks(e Expr, out *[]*Block) {
	switch e := e.(type) {
	case *BlockExpr:
		*out = append(*out, e.Block)
	case *Call:
		for _, arg := range e.Args {
			collectExprBlocks(arg, out)
		}
		if e.Block != nil {
			*out = append(*out, e.Block)
		}
	case *ParenExpr:
		collectExprBlocks(e.X, out)
	case *ListLit:
		for _, v := range e.Values {
			collectExprBlocks(v, out)
		}
	case *UnaryExpr:
		collectExprBlocks(e.X, out)
	case *BinaryExpr:
		collectExprBlocks(e.LHS, out)
		collectExprBlocks(e.RHS, out)
	}
}

// WalkStrings visits every string literal in the tree rooted at n, in source
// order.
func WalkStrings(n Node, visit func(*StringLit)) {
	switch n := n.(type) {
	case *Block:
		for _, stmt := range n.Statements {
			WalkStrings(stmt, visit)
		}
	case *Assignment:
		if n.LValue != nil {
			if aa, ok := n.LValue.(*ArrayAccess); ok && aa.Index != nil {
				WalkStrings(aa.Index, visit)
			}
		}
		if n.RValue != nil {
			WalkStrings(n.RValue, visit)
		}
	case *Call:
		for _, arg := range n.Args {
			WalkStrings(arg, visit)
		}
		if n.Block != nil {
			WalkStrings(n.Block, visit)
		}
	case *Condition:
		if n.Cond != nil {
			WalkStrings(n.Cond, visit)
		}
		if n.Then != nil {
			WalkStrings(n.Then, visit)
		}
		if n.ElseCond != nil {
			WalkStrings(n.ElseCond, visit)
		}
		if n.ElseBlock != nil {
			WalkStrings(n.ElseBlock, visit)
		}
	case *StringLit:
		visit(n)
	case *ListLit:
		for _, v := range n.Values {
			WalkStrings(v, visit)
		}
	case *ParenExpr:
		WalkStrings(n.X, visit)
	case *UnaryExpr:
		WalkStrings(n.X, visit)
	case *BinaryExpr:
		WalkStrings(n.LHS, visit)
		WalkStrings(n.RHS, visit)
	case *BlockExpr:
		WalkStrings(n.Block, visit)
	}
}

// Errors collects every error node in the tree rooted at b, in source order.
func (b *Block) Errors() []*ErrorNode {
	var errs []*ErrorNode
	var walkBlock func(*Block)
	var walkExpr func(Expr)
	walkExpr = func(e Expr) {
		switch e := e.(type) {
		case *ErrorNode:
			errs = append(errs, e)
		case *BlockExpr:
			walkBlock(e.Block)
		case *Call:
			for _, arg := range e.Args {
				walkExpr(arg)
			}
			if e.Block != nil {
				walkBlock(e.Block)
			}
		case *ParenExpr:
			walkExpr(e.X)
		case *ListLit:
			for _, v := range e.Values {
				walkExpr(v)
			}
		case *UnaryExpr:
			walkExpr(e.X)
		case *BinaryExpr:
			walkExpr(e.LHS)
			walkExpr(e.RHS)
		}
	}
	walkBlock = func(blk *Block) {
		for _, stmt := range blk.Statements {
			switch stmt := stmt.(type) {
			case *ErrorNode:
				errs = append(errs, stmt)
			case *Assignment:
				if stmt.RValue != nil {
					walkExpr(stmt.RValue)
				}
			case *Call:
				for _, arg := range stmt.Args {
					walkExpr(arg)
				}
				if stmt.Block != nil {
					walkBlock(stmt.Block)
				}
			case *Condition:
				for c := stmt; c != nil; c = c.ElseCond {
					if c.Cond != nil {
						walkExpr(c.Cond)
					}
					if c.Then != nil {
						walkBlock(c.Then)
					}
					if c.ElseCond == nil && c.ElseBlock != nil {
						walkBlock(c.ElseBlock)
					}
				}
			}
		}
	}
	walkBlock(b)
	return errs
}
