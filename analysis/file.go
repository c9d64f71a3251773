// Copyright © 2025 The gnls authors

package analysis

import (
	"sort"
	"strings"

	"github.com/gntools/gnls/parser"
)

// SymbolKind classifies a definition.
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymTemplate
	SymTarget
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymTemplate:
		return "template"
	case SymTarget:
		return "target"
	}
	return "unknown"
}

// VarAssignment is one definition site of a variable. Because conditional
// branches are never evaluated, a variable accumulates one assignment per
// branch that assigns it, all simultaneously valid.
type VarAssignment struct {
	Path          string
	Span          parser.Span // the assigned identifier
	StatementSpan parser.Span // the whole assignment statement
	Comments      []string
	DeclareArgs   bool  // assigned inside a declare_args block
	Value         Value // literal value when configuration-independent
}

// Variable is a named variable with every assignment site seen for it, in
// document order.
type Variable struct {
	Name        string
	Exported    bool // names starting with '_' are file-private
	Assignments []VarAssignment
}

// Template is a template definition site.
type Template struct {
	Name     string
	Path     string
	Span     parser.Span // the template name string contents
	CallSpan parser.Span
	Comments []string
}

// Target is a target definition site.
type Target struct {
	Name     string
	Rule     string // the defining function: source_set, executable, ...
	Path     string
	Span     parser.Span // the target name string contents
	CallSpan parser.Span
}

// FileExports is the importer-visible surface of a file: its top-level
// variables, templates, and targets.
type FileExports struct {
	Variables map[string]*Variable
	Templates map[string]*Template
	Targets   map[string]*Target
}

func newFileExports() *FileExports {
	return &FileExports{
		Variables: make(map[string]*Variable),
		Templates: make(map[string]*Template),
		Targets:   make(map[string]*Target),
	}
}

// TargetNames returns the defined target names sorted.
func (e *FileExports) TargetNames() []string {
	names := make([]string, 0, len(e.Targets))
	for name := range e.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LinkKind classifies an outbound reference found in a file.
type LinkKind int

const (
	// LinkImport is the argument of an import() call.
	LinkImport LinkKind = iota
	// LinkLabel is a target label such as "//base:util" or ":util".
	LinkLabel
	// LinkFile is a file path such as "//src/main.cc" or "main.cc".
	LinkFile
)

// Link is an outbound reference: an import, a target label, or a file path.
// Span covers the string contents without the quotes. Path is the resolved
// absolute file path, empty when the reference could not be resolved by path
// arithmetic alone.
type Link struct {
	Kind  LinkKind
	Span  parser.Span
	Raw   string
	Path  string
	Label Label // set for LinkLabel
}

// Symbol is a flat outline entry.
type Symbol struct {
	Name string
	Kind SymbolKind
	Span parser.Span // selection range: the defining name
	Full parser.Span // the whole defining statement
}

// ParseError is a syntax problem recorded during parsing. Parse errors are
// data carried by the result, never analysis failures.
type ParseError struct {
	Span    parser.Span
	Message string
}

// AnalyzedFile is the per-file semantic summary. It is immutable once
// published: re-analysis builds a fresh value and swaps it into the cache as
// a unit, so concurrent readers always observe a complete result.
type AnalyzedFile struct {
	Path        string
	Version     DocumentVersion
	Fingerprint uint64
	Content     []byte
	Root        *parser.Block
	Exports     *FileExports
	Links       []Link
	Symbols     []Symbol
	Errors      []ParseError
}

// Imports returns the file's import links in declaration order.
func (f *AnalyzedFile) Imports() []Link {
	var imports []Link
	for _, l := range f.Links {
		if l.Kind == LinkImport {
			imports = append(imports, l)
		}
	}
	return imports
}

// LinkAt returns the link whose span contains the byte offset pos.
func (f *AnalyzedFile) LinkAt(pos int) (Link, bool) {
	for _, l := range f.Links {
		if l.Span.Start <= pos && pos <= l.Span.End {
			return l, true
		}
	}
	return Link{}, false
}

// IdentifierAt returns the identifier under the byte offset pos, searching
// the whole tree.
func (f *AnalyzedFile) IdentifierAt(pos int) *parser.Identifier {
	return identifierAt(f.Root, pos)
}

// LocalsAt returns the variables lexically visible at pos, innermost block
// last. Top-level statement flattening applies at every level: condition
// branches, declare_args and foreach bodies belong to the enclosing scope,
// and every branch's assignments stay visible because no branch is ever
// eliminated.
func (f *AnalyzedFile) LocalsAt(pos int) map[string]*Variable {
	locals := make(map[string]*Variable)
	block := f.Root
	for block != nil {
		collectBlockVariables(f.Path, block, locals)
		block = subscopeAt(block, pos)
	}
	return locals
}

// collectBlockVariables records every assignment at block's scope level into
// vars, in document order.
func collectBlockVariables(path string, block *parser.Block, vars map[string]*Variable) {
	walkScopeLevel(block, func(stmt parser.Statement, inDeclareArgs bool) {
		a, ok := stmt.(*parser.Assignment)
		if !ok {
			return
		}
		recordAssignment(path, a, inDeclareArgs, vars)
	})
}

func recordAssignment(path string, a *parser.Assignment, inDeclareArgs bool, vars map[string]*Variable) {
	primary := a.LValue.Primary()
	if primary == nil {
		return
	}
	name := primary.Name
	v := vars[name]
	if v == nil {
		v = &Variable{Name: name, Exported: !strings.HasPrefix(name, "_")}
		vars[name] = v
	}
	v.Assignments = append(v.Assignments, VarAssignment{
		Path:          path,
		Span:          primary.S,
		StatementSpan: a.S,
		Comments:      a.Comments,
		DeclareArgs:   inDeclareArgs,
		Value:         EvalLiteral(a.RValue),
	})
}

// subscopeAt returns the child block one scope level deeper that contains
// pos, or nil when pos sits at block's own level. Condition branches and
// flattened call bodies are the same level, so only target/template blocks
// and scope literals count as subscopes.
func subscopeAt(block *parser.Block, pos int) *parser.Block {
	var found *parser.Block
	walkScopeLevel(block, func(stmt parser.Statement, _ bool) {
		switch stmt := stmt.(type) {
		case *parser.Call:
			if stmt.Block != nil && !flattensScope(stmt.Function.Name) && stmt.Block.S.Contains(pos) {
				found = stmt.Block
			}
			for _, arg := range stmt.Args {
				for _, b := range parser.ExprBlocks(arg) {
					if b.S.Contains(pos) {
						found = b
					}
				}
			}
		case *parser.Assignment:
			for _, b := range parser.ExprBlocks(stmt.RValue) {
				if b.S.Contains(pos) {
					found = b
				}
			}
		}
	})
	return found
}

func identifierAt(block *parser.Block, pos int) *parser.Identifier {
	var found *parser.Identifier
	var visitExpr func(e parser.Expr)
	visit := func(id *parser.Identifier) {
		if id != nil && id.S.Start <= pos && pos <= id.S.End {
			found = id
		}
	}
	var visitBlock func(b *parser.Block)
	visitExpr = func(e parser.Expr) {
		switch e := e.(type) {
		case *parser.Identifier:
			visit(e)
		case *parser.ArrayAccess:
			visit(e.Base)
			visitExpr(e.Index)
		case *parser.ScopeAccess:
			visit(e.Base)
			visit(e.Field)
		case *parser.UnaryExpr:
			visitExpr(e.X)
		case *parser.BinaryExpr:
			visitExpr(e.LHS)
			visitExpr(e.RHS)
		case *parser.ParenExpr:
			visitExpr(e.X)
		case *parser.ListLit:
			for _, v := range e.Values {
				visitExpr(v)
			}
		case *parser.Call:
			visit(e.Function)
			for _, arg := range e.Args {
				visitExpr(arg)
			}
			if e.Block != nil {
				visitBlock(e.Block)
			}
		case *parser.BlockExpr:
			visitBlock(e.Block)
		}
	}
	visitBlock = func(b *parser.Block) {
		for _, stmt := range b.Statements {
			switch stmt := stmt.(type) {
			case *parser.Assignment:
				switch lv := stmt.LValue.(type) {
				case *parser.Identifier:
					visit(lv)
				case *parser.ArrayAccess:
					visit(lv.Base)
					visitExpr(lv.Index)
				case *parser.ScopeAccess:
					visit(lv.Base)
					visit(lv.Field)
				}
				visitExpr(stmt.RValue)
			case *parser.Call:
				visitExpr(stmt)
			case *parser.Condition:
				for c := stmt; c != nil; c = c.ElseCond {
					visitExpr(c.Cond)
					if c.Then != nil {
						visitBlock(c.Then)
					}
					if c.ElseCond == nil && c.ElseBlock != nil {
						visitBlock(c.ElseBlock)
					}
				}
			}
		}
	}
	visitBlock(block)
	return found
}
