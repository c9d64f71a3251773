// Copyright © 2025 The gnls authors
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package analysis

import (
	"context"

	"github.com/gntools/gnls/parser"
)

// UndefinedRef is a use of an identifier with no visible definition.
type UndefinedRef struct {
	Name string
	Span parser.Span
}

// builtinVariables are the names GN predefines in every scope. Uses of
// these never need a visible assignment.
var builtinVariables = map[string]bool{
	"current_cpu":       true,
	"current_os":        true,
	"current_toolchain": true,
	"default_toolchain": true,
	"host_cpu":          true,
	"host_os":           true,
	"invoker":           true,
	"python_path":       true,
	"root_build_dir":    true,
	"root_gen_dir":      true,
	"root_out_dir":      true,
	"target_cpu":        true,
	"target_gen_dir":    true,
	"target_name":       true,
	"target_os":         true,
	"target_out_dir":    true,
}

// UndefinedIdentifiers reports identifier uses in file that resolve neither
// in the file's environment nor in GN's builtin variables, in source order.
//
// The check is deliberately conservative. Names assigned anywhere at a
// scope level count as defined for the whole level, because any condition
// branch may run under some configuration. A forward_variables_from with a
// "*" pattern makes the receiving scope open-ended, so reporting is
// suppressed there and in nested scopes. The check is skipped entirely when
// the file has parse errors or unresolvable imports; a broken input would
// only produce cascades of false positives.
func (a *Analyzer) UndefinedIdentifiers(ctx context.Context, file *AnalyzedFile, mode RefreshMode) ([]UndefinedRef, error) {
	if len(file.Errors) > 0 {
		return nil, nil
	}
	env, err := a.ResolveEnvironment(ctx, file.Path, len(file.Content), mode)
	if err != nil {
		return nil, err
	}
	if len(env.Missing) > 0 {
		return nil, nil
	}
	global := &undefScope{names: make(map[string]bool, len(env.Variables)+len(env.Templates))}
	for name := range env.Variables {
		global.names[name] = true
	}
	for name := range env.Templates {
		global.names[name] = true
	}
	c := &undefChecker{}
	c.block(file.Root, global)
	return c.refs, nil
}

// undefScope is one lexical level of visible names. open marks a scope that
// received a wildcard forward_variables_from and may hold any name.
type undefScope struct {
	parent *undefScope
	names  map[string]bool
	open   bool
}

func (s *undefScope) defined(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.names[name] {
			return true
		}
	}
	return false
}

func (s *undefScope) suppressed() bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.open {
			return true
		}
	}
	return false
}

type undefChecker struct {
	refs []UndefinedRef
}

func (c *undefChecker) block(b *parser.Block, parent *undefScope) {
	sc := &undefScope{parent: parent, names: make(map[string]bool)}

	// First pass: collect every name the level defines. declare_args and
	// foreach bodies are flattened into the level, matching GN scoping.
	walkScopeLevel(b, func(stmt parser.Statement, _ bool) {
		switch stmt := stmt.(type) {
		case *parser.Assignment:
			if stmt.LValue == nil {
				return
			}
			if id := stmt.LValue.Primary(); id != nil {
				sc.names[id.Name] = true
			}
		case *parser.Call:
			switch stmt.Function.Name {
			case "foreach":
				if len(stmt.Args) > 0 {
					if id, ok := parser.AsPrimaryIdentifier(stmt.Args[0]); ok {
						sc.names[id.Name] = true
					}
				}
			case "forward_variables_from":
				if len(stmt.Args) < 2 {
					return
				}
				if pat, ok := parser.AsSimpleString(stmt.Args[1]); ok && pat == "*" {
					sc.open = true
					return
				}
				if list, ok := parser.AsPrimaryList(stmt.Args[1]); ok {
					for _, v := range list.Values {
						if name, ok := parser.AsSimpleString(v); ok {
							sc.names[name] = true
						}
					}
				}
			}
		}
	})

	// Second pass: check uses in source order.
	walkScopeLevel(b, func(stmt parser.Statement, _ bool) {
		switch stmt := stmt.(type) {
		case *parser.Assignment:
			switch lv := stmt.LValue.(type) {
			case *parser.ArrayAccess:
				c.use(sc, lv.Base)
				c.expr(sc, lv.Index)
			case *parser.ScopeAccess:
				c.use(sc, lv.Base)
			}
			c.expr(sc, stmt.RValue)
		case *parser.Condition:
			for cond := stmt; cond != nil; cond = cond.ElseCond {
				c.expr(sc, cond.Cond)
			}
		case *parser.Call:
			c.call(sc, stmt)
		}
	})
}

func (c *undefChecker) call(sc *undefScope, call *parser.Call) {
	switch call.Function.Name {
	case "defined":
		// The operand of defined() is being probed, not read.
		return
	case "forward_variables_from":
		// The copied names are strings; only the source scope is a use.
		if len(call.Args) > 0 {
			c.expr(sc, call.Args[0])
		}
		return
	}
	for _, arg := range call.Args {
		c.expr(sc, arg)
	}
	// Flattened bodies were already walked as part of the enclosing level.
	if call.Block != nil && !flattensScope(call.Function.Name) {
		c.block(call.Block, sc)
	}
}

func (c *undefChecker) expr(sc *undefScope, e parser.Expr) {
	switch e := e.(type) {
	case *parser.Identifier:
		c.use(sc, e)
	case *parser.ArrayAccess:
		c.use(sc, e.Base)
		c.expr(sc, e.Index)
	case *parser.ScopeAccess:
		// Field names live in the base scope's namespace, not this one.
		c.use(sc, e.Base)
	case *parser.UnaryExpr:
		c.expr(sc, e.X)
	case *parser.BinaryExpr:
		c.expr(sc, e.LHS)
		c.expr(sc, e.RHS)
	case *parser.ParenExpr:
		c.expr(sc, e.X)
	case *parser.ListLit:
		for _, v := range e.Values {
			c.expr(sc, v)
		}
	case *parser.BlockExpr:
		c.block(e.Block, sc)
	case *parser.Call:
		c.call(sc, e)
	}
}

func (c *undefChecker) use(sc *undefScope, id *parser.Identifier) {
	if id == nil || sc.suppressed() {
		return
	}
	if builtinVariables[id.Name] || sc.defined(id.Name) {
		return
	}
	c.refs = append(c.refs, UndefinedRef{Name: id.Name, Span: id.S})
}
