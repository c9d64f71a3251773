// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/gntools/gnls/parser"
)

// RefreshMode selects how much freshness checking an operation pays for.
type RefreshMode int

const (
	// RefreshShallow verifies only the requested file; cached dependency
	// analyses are used as-is. Interactive per-file requests default to
	// this.
	RefreshShallow RefreshMode = iota
	// RefreshFull re-verifies every file touched along the traversal.
	// Cross-file and workspace-wide requests use this.
	RefreshFull
)

// Analyzer owns the shared per-file analysis cache. Analyses of distinct
// files proceed fully in parallel; concurrent requests for the same file
// collapse to one computation, and completed results are published
// atomically so readers never see a partial AnalyzedFile.
type Analyzer struct {
	docs   *DocumentStore
	tracer trace.Tracer

	mu    sync.RWMutex
	cache map[string]*AnalyzedFile
	group singleflight.Group
}

func NewAnalyzer(docs *DocumentStore) *Analyzer {
	return &Analyzer{
		docs:   docs,
		tracer: otel.Tracer("gnls/analysis"),
		cache:  make(map[string]*AnalyzedFile),
	}
}

// Docs returns the document store backing the analyzer.
func (a *Analyzer) Docs() *DocumentStore { return a.docs }

// Cached returns the cached analysis for path without any freshness check,
// or nil. Partial-index consumers use this to see exactly what has been
// analyzed so far.
func (a *Analyzer) Cached(path string) *AnalyzedFile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cache[path]
}

// CachedPaths returns the paths with a published analysis, sorted.
func (a *Analyzer) CachedPaths() []string {
	a.mu.RLock()
	paths := make([]string, 0, len(a.cache))
	for p := range a.cache {
		paths = append(paths, p)
	}
	a.mu.RUnlock()
	sort.Strings(paths)
	return paths
}

// Invalidate drops the cached analysis for path. Called when a disk change
// notification arrives for a file that is not open in the editor.
func (a *Analyzer) Invalidate(path string) {
	a.mu.Lock()
	delete(a.cache, path)
	a.mu.Unlock()
}

// AnalyzeFile returns the semantic summary of path, computing it if the
// cache has no fresh entry. Identical content yields identical results. The
// only failure is an *IOError for an unreadable file; malformed syntax is
// data in the result, and I/O failures are never cached.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*AnalyzedFile, error) {
	path = filepath.Clean(path)

	for {
		version, err := a.docs.Version(path)
		if err != nil {
			return nil, err
		}
		if cached := a.Cached(path); cached != nil && cached.Version == version {
			return cached, nil
		}

		// One in-flight computation per path; concurrent requesters share
		// the result. The computation is not tied to any single requester's
		// context, so a cancelled request abandons the wait without
		// discarding work others may still want.
		ch := a.group.DoChan(path, func() (interface{}, error) {
			return a.analyze(path)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			file := res.Val.(*AnalyzedFile)
			// The flight may predate the version this request observed; a
			// result for another revision never satisfies this request.
			if file.Version == version {
				return file, nil
			}
			a.group.Forget(path)
		}
	}
}

// analyzeStale returns a cached analysis regardless of freshness, computing
// one only when the cache is empty for path. Shallow-mode dependency lookups
// go through here.
func (a *Analyzer) analyzeStale(ctx context.Context, path string) (*AnalyzedFile, error) {
	path = filepath.Clean(path)
	if cached := a.Cached(path); cached != nil {
		return cached, nil
	}
	return a.AnalyzeFile(ctx, path)
}

func (a *Analyzer) analyze(path string) (*AnalyzedFile, error) {
	_, span := a.tracer.Start(context.Background(), "analyze",
		trace.WithAttributes(attribute.String("file", path)))
	defer span.End()

	doc, err := a.docs.Read(path)
	if err != nil {
		return nil, err
	}
	fingerprint := xxhash.Sum64(doc.Content)

	// Same bytes under a new revision: republish the previous result with
	// the revision bumped instead of re-parsing.
	if cached := a.Cached(path); cached != nil && cached.Fingerprint == fingerprint {
		if cached.Version == doc.Version {
			return cached, nil
		}
		fresh := *cached
		fresh.Version = doc.Version
		a.publish(&fresh)
		return &fresh, nil
	}

	file := buildAnalyzedFile(path, doc, fingerprint)
	a.publish(file)
	return file, nil
}

// publish swaps a fully built analysis into the cache as a unit.
func (a *Analyzer) publish(file *AnalyzedFile) {
	a.mu.Lock()
	a.cache[file.Path] = file
	a.mu.Unlock()
}

// buildAnalyzedFile parses and extracts exports, links, and symbols in one
// pass over the top-level statements. Pure: same content, same result.
func buildAnalyzedFile(path string, doc *Document, fingerprint uint64) *AnalyzedFile {
	root := parser.Parse(doc.Content, path)
	file := &AnalyzedFile{
		Path:        path,
		Version:     doc.Version,
		Fingerprint: fingerprint,
		Content:     doc.Content,
		Root:        root,
		Exports:     newFileExports(),
	}

	for _, e := range root.Errors() {
		file.Errors = append(file.Errors, ParseError{Span: e.S, Message: e.Message})
	}

	ws := FindWorkspace(path)
	dir := filepath.Dir(path)

	walkScopeLevel(root, func(stmt parser.Statement, inDeclareArgs bool) {
		switch stmt := stmt.(type) {
		case *parser.Assignment:
			recordAssignment(path, stmt, inDeclareArgs, file.Exports.Variables)
		case *parser.Call:
			extractCall(file, stmt, ws, dir)
		}
	})

	collectLinks(file, ws, dir)
	collectSymbols(file)
	return file
}

func extractCall(file *AnalyzedFile, call *parser.Call, ws *Workspace, dir string) {
	name := call.Function.Name
	switch name {
	case "import":
		// Links for imports are collected with all other string links; the
		// export surface is unaffected.
		return
	case "template":
		arg, ok := parser.AsPrimaryString(call.OnlyArg())
		if !ok {
			return
		}
		tmplName, ok := arg.SimpleValue()
		if !ok || file.Exports.Templates[tmplName] != nil {
			return
		}
		file.Exports.Templates[tmplName] = &Template{
			Name:     tmplName,
			Path:     file.Path,
			Span:     arg.ContentSpan(),
			CallSpan: call.S,
			Comments: call.Comments,
		}
	case "forward_variables_from":
		// forward_variables_from(scope, ["a", "b"]) declares the listed
		// names in the enclosing scope.
		if len(call.Args) < 2 {
			return
		}
		list, ok := parser.AsPrimaryList(call.Args[1])
		if !ok {
			return
		}
		for _, v := range list.Values {
			s, ok := parser.AsPrimaryString(v)
			if !ok {
				continue
			}
			varName, ok := s.SimpleValue()
			if !ok || varName == "" {
				continue
			}
			variable := file.Exports.Variables[varName]
			if variable == nil {
				variable = &Variable{Name: varName, Exported: !strings.HasPrefix(varName, "_")}
				file.Exports.Variables[varName] = variable
			}
			variable.Assignments = append(variable.Assignments, VarAssignment{
				Path:          file.Path,
				Span:          s.ContentSpan(),
				StatementSpan: call.S,
			})
		}
	case "set_defaults":
		return
	default:
		// Any other call with a trailing block and a single literal string
		// argument defines a target, whether through a builtin rule or a
		// template.
		if call.Block == nil {
			return
		}
		arg, ok := parser.AsPrimaryString(call.OnlyArg())
		if !ok {
			return
		}
		targetName, ok := arg.SimpleValue()
		if !ok || targetName == "" || file.Exports.Targets[targetName] != nil {
			return
		}
		file.Exports.Targets[targetName] = &Target{
			Name:     targetName,
			Rule:     name,
			Path:     file.Path,
			Span:     arg.ContentSpan(),
			CallSpan: call.S,
		}
	}
}

// collectLinks walks every string literal in the file and records outbound
// references: import arguments, target labels, and file paths. Resolution is
// pure path arithmetic; existence of the referenced file is checked at use
// time, so a dangling reference degrades the one link and nothing else.
func collectLinks(file *AnalyzedFile, ws *Workspace, dir string) {
	importSpans := importArgSpans(file.Root)
	parser.WalkStrings(file.Root, func(s *parser.StringLit) {
		raw, ok := s.SimpleValue()
		if !ok || raw == "" {
			return
		}
		span := s.ContentSpan()

		if importSpans[s.S.Start] {
			link := Link{Kind: LinkImport, Span: span, Raw: raw}
			if ws != nil {
				link.Path = ws.ResolvePath(raw, dir)
			} else if !strings.HasPrefix(raw, "//") {
				link.Path = filepath.Join(dir, filepath.FromSlash(raw))
			}
			file.Links = append(file.Links, link)
			return
		}

		if strings.Contains(raw, ":") && ws != nil {
			if label, ok := ws.ParseLabel(raw, dir); ok {
				file.Links = append(file.Links, Link{
					Kind:  LinkLabel,
					Span:  span,
					Raw:   raw,
					Path:  label.BuildFile(),
					Label: label,
				})
				return
			}
		}

		if looksLikeFilePath(raw) {
			link := Link{Kind: LinkFile, Span: span, Raw: raw}
			if ws != nil {
				link.Path = ws.ResolvePath(raw, dir)
			} else if !strings.HasPrefix(raw, "//") {
				link.Path = filepath.Join(dir, filepath.FromSlash(raw))
			}
			file.Links = append(file.Links, link)
		}
	})
}

// importArgSpans returns the start offsets of string literals that are the
// argument of an import call.
func importArgSpans(root *parser.Block) map[int]bool {
	spans := make(map[int]bool)
	walkScopeLevel(root, func(stmt parser.Statement, _ bool) {
		call, ok := stmt.(*parser.Call)
		if !ok || call.Function.Name != "import" {
			return
		}
		if s, ok := parser.AsPrimaryString(call.OnlyArg()); ok {
			spans[s.S.Start] = true
		}
	})
	return spans
}

// looksLikeFilePath reports whether a string literal plausibly names a file.
func looksLikeFilePath(raw string) bool {
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") {
		return true
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, ".") {
		return false
	}
	ext := filepath.Ext(raw)
	return ext != "" && len(ext) > 1 && !strings.Contains(ext, " ")
}

// collectSymbols flattens the export surface into the outline list, sorted
// by position.
func collectSymbols(file *AnalyzedFile) {
	for _, v := range file.Exports.Variables {
		if len(v.Assignments) == 0 {
			continue
		}
		first := v.Assignments[0]
		file.Symbols = append(file.Symbols, Symbol{
			Name: v.Name,
			Kind: SymVariable,
			Span: first.Span,
			Full: first.StatementSpan,
		})
	}
	for _, t := range file.Exports.Templates {
		file.Symbols = append(file.Symbols, Symbol{
			Name: t.Name,
			Kind: SymTemplate,
			Span: t.Span,
			Full: t.CallSpan,
		})
	}
	for _, t := range file.Exports.Targets {
		file.Symbols = append(file.Symbols, Symbol{
			Name: t.Name,
			Kind: SymTarget,
			Span: t.Span,
			Full: t.CallSpan,
		})
	}
	sort.Slice(file.Symbols, func(i, j int) bool {
		if file.Symbols[i].Span.Start != file.Symbols[j].Span.Start {
			return file.Symbols[i].Span.Start < file.Symbols[j].Span.Start
		}
		return file.Symbols[i].Name < file.Symbols[j].Name
	})
}
