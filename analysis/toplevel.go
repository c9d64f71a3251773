// Copyright © 2025 The gnls authors

package analysis

import "github.com/gntools/gnls/parser"

// GN treats some block-carrying constructs as transparent: statements inside
// condition branches, declare_args, and foreach bodies live at the enclosing
// scope level. walkScopeLevel visits every statement at block's level,
// flattening those constructs, without descending into real subscopes
// (targets, templates, scope literals). Traversal is iterative with an
// explicit stack, so deeply nested conditionals cannot exhaust call depth.
func walkScopeLevel(block *parser.Block, visit func(stmt parser.Statement, inDeclareArgs bool)) {
	type frame struct {
		stmts       []parser.Statement
		declareArgs bool
	}
	stack := []frame{{stmts: block.Statements}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.stmts) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		stmt := top.stmts[0]
		top.stmts = top.stmts[1:]
		inDeclareArgs := top.declareArgs
		visit(stmt, inDeclareArgs)

		// Push nested transparent blocks. Pushed frames are processed before
		// the remainder of the current frame, preserving document order.
		var nested []frame
		switch stmt := stmt.(type) {
		case *parser.Condition:
			for c := stmt; c != nil; c = c.ElseCond {
				if c.Then != nil {
					nested = append(nested, frame{stmts: c.Then.Statements, declareArgs: inDeclareArgs})
				}
				if c.ElseCond == nil && c.ElseBlock != nil {
					nested = append(nested, frame{stmts: c.ElseBlock.Statements, declareArgs: inDeclareArgs})
				}
			}
		case *parser.Call:
			if stmt.Block != nil && flattensScope(stmt.Function.Name) {
				nested = append(nested, frame{
					stmts:       stmt.Block.Statements,
					declareArgs: inDeclareArgs || stmt.Function.Name == "declare_args",
				})
			}
		}
		if len(nested) == 0 {
			continue
		}
		// The remainder of the current frame must run after all nested
		// frames, so re-push it below them in reverse.
		rest := *top
		stack = stack[:len(stack)-1]
		stack = append(stack, rest)
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, nested[i])
		}
	}
}

// flattensScope reports whether a call's trailing block shares the enclosing
// scope level instead of opening a new one.
func flattensScope(function string) bool {
	switch function {
	case "declare_args", "foreach":
		return true
	}
	return false
}
