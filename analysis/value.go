// Copyright © 2025 The gnls authors

package analysis

import (
	"fmt"
	"strings"

	"github.com/gntools/gnls/parser"
)

// ValueKind tags a Value. GN values are loosely typed; consumers check the
// kind explicitly instead of coercing.
type ValueKind int

const (
	KindUndefined ValueKind = iota
	KindBool
	KindInt
	KindString
	KindList
	KindScope
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindScope:
		return "scope"
	}
	return "undefined"
}

// Value is a closed tagged variant over the GN value space. Analysis never
// evaluates build arguments, so a Value is only defined when it comes from a
// configuration-independent literal; everything else is KindUndefined.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Str   string
	List  []Value
	Scope map[string]Value
}

// Undefined is the zero Value.
var Undefined = Value{}

// IsDefined reports whether v holds a concrete literal value.
func (v Value) IsDefined() bool { return v.Kind != KindUndefined }

// AsString returns the string payload with an explicit kind check.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsBool returns the boolean payload with an explicit kind check.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// Lookup resolves a name inside a scope value.
func (v Value) Lookup(name string) (Value, bool) {
	if v.Kind != KindScope {
		return Undefined, false
	}
	val, ok := v.Scope[name]
	return val, ok
}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	case KindScope:
		return "{ ... }"
	}
	return "<undefined>"
}

// EvalLiteral evaluates an expression that is a plain literal: booleans,
// integers, strings without expansions, and lists or scope literals of such.
// Anything configuration-dependent (identifiers, operators, interpolated
// strings) yields Undefined.
func EvalLiteral(e parser.Expr) Value {
	switch e := e.(type) {
	case *parser.BooleanLit:
		return Value{Kind: KindBool, Bool: e.Value}
	case *parser.IntegerLit:
		return Value{Kind: KindInt, Int: e.Value}
	case *parser.StringLit:
		s, ok := e.SimpleValue()
		if !ok {
			return Undefined
		}
		return Value{Kind: KindString, Str: s}
	case *parser.ListLit:
		list := make([]Value, 0, len(e.Values))
		for _, v := range e.Values {
			list = append(list, EvalLiteral(v))
		}
		return Value{Kind: KindList, List: list}
	case *parser.BlockExpr:
		return evalScopeLiteral(e.Block)
	case *parser.ParenExpr:
		return EvalLiteral(e.X)
	}
	return Undefined
}

func evalScopeLiteral(block *parser.Block) Value {
	scope := make(map[string]Value)
	for _, stmt := range block.Statements {
		a, ok := stmt.(*parser.Assignment)
		if !ok {
			continue
		}
		id, ok := a.LValue.(*parser.Identifier)
		if !ok {
			continue
		}
		scope[id.Name] = EvalLiteral(a.RValue)
	}
	return Value{Kind: KindScope, Scope: scope}
}
