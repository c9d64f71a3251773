// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gntools/gnls/parser"
)

// Location is a resolved source range in a file.
type Location struct {
	Path string
	Span parser.Span
}

// ReferenceResult carries the matches plus whether the answer was computed
// over a complete index. Partial answers are first-class: a query racing the
// background indexer returns what the cache holds rather than blocking.
type ReferenceResult struct {
	Locations []Location
	Complete  bool
}

// FindTargetReferences returns every link in the indexed workspace that
// refers to the given target, including the target's own definition site
// when includeDefinition is set.
//
// The search runs over the cached analyses only; Complete is false while the
// index is still populating. Target names that share a prefix do not bleed
// into each other: "foo" never claims references to "foo_bar".
func (a *Analyzer) FindTargetReferences(ctx context.Context, ix *Indexer, target Label, includeDefinition bool) (*ReferenceResult, error) {
	result := &ReferenceResult{Complete: ix.Status() == IndexComplete}

	if includeDefinition {
		if def, err := a.AnalyzeFile(ctx, target.BuildFile()); err == nil {
			if t := def.Exports.Targets[target.Name]; t != nil {
				result.Locations = append(result.Locations, Location{Path: t.Path, Span: t.Span})
			}
		}
	}

	for _, path := range a.CachedPaths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := a.Cached(path)
		if file == nil {
			continue
		}
		for _, link := range file.Links {
			if link.Kind != LinkLabel {
				continue
			}
			if link.Label == target {
				result.Locations = append(result.Locations, Location{Path: path, Span: link.Span})
			}
		}
	}

	sortLocations(result.Locations)
	return result, nil
}

// TargetAt returns the target whose definition or label reference sits at
// pos in file. Definitions win over references; among overlapping defined
// target names the longest name containing pos is chosen, so a target whose
// name is a strict prefix of another never hijacks the longer target's
// definition site.
func TargetAt(file *AnalyzedFile, pos int) (Label, bool) {
	var best *Target
	for _, t := range file.Exports.Targets {
		if t.Span.Start <= pos && pos <= t.Span.End {
			if best == nil || len(t.Name) > len(best.Name) {
				best = t
			}
		}
	}
	if best != nil {
		return Label{Dir: filepath.Dir(best.Path), Name: best.Name}, true
	}

	if link, ok := file.LinkAt(pos); ok && link.Kind == LinkLabel {
		return link.Label, true
	}
	return Label{}, false
}

// FindSymbolOccurrences returns every occurrence of an identifier within a
// single file: assignment sites and uses. Used for per-file references and
// rename-adjacent features; workspace variables are resolved through the
// environment instead.
func FindSymbolOccurrences(file *AnalyzedFile, name string) []Location {
	var locs []Location
	var visitExpr func(e parser.Expr)
	record := func(id *parser.Identifier) {
		if id != nil && id.Name == name {
			locs = append(locs, Location{Path: file.Path, Span: id.S})
		}
	}
	var visitBlock func(b *parser.Block)
	visitExpr = func(e parser.Expr) {
		switch e := e.(type) {
		case *parser.Identifier:
			record(e)
		case *parser.ArrayAccess:
			record(e.Base)
			visitExpr(e.Index)
		case *parser.ScopeAccess:
			record(e.Base)
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
				record(stmt.LValue.Primary())
				if aa, ok := stmt.LValue.(*parser.ArrayAccess); ok {
					visitExpr(aa.Index)
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
	visitBlock(file.Root)
	return locs
}

// WorkspaceSymbols returns every exported symbol of every cached file whose
// name satisfies match, with the index completeness flag.
func (a *Analyzer) WorkspaceSymbols(ix *Indexer, match func(name string) bool) (symbols []Symbol, paths []string, complete bool) {
	complete = ix.Status() == IndexComplete
	for _, path := range a.CachedPaths() {
		file := a.Cached(path)
		if file == nil {
			continue
		}
		for _, sym := range file.Symbols {
			if sym.Kind == SymVariable && strings.HasPrefix(sym.Name, "_") {
				continue
			}
			if match(sym.Name) {
				symbols = append(symbols, sym)
				paths = append(paths, path)
			}
		}
	}
	return symbols, paths, complete
}

func sortLocations(locs []Location) {
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Path != locs[j].Path {
			return locs[i].Path < locs[j].Path
		}
		return locs[i].Span.Start < locs[j].Span.Start
	})
}
