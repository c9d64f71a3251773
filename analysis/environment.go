// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Environment is the fully resolved scope at one (file, position) pair: the
// merged exports of the build config and every transitively imported file,
// overlaid with the definitions lexically visible at the position. It is
// built per query and discarded; the per-file exports it aggregates stay
// cached.
type Environment struct {
	Path string
	Pos  int

	Variables map[string]*Variable
	Templates map[string]*Template
	// Targets are the targets of the queried file itself; targets are never
	// importable.
	Targets map[string]*Target

	// Missing lists import strings that could not be read, in encounter
	// order. A missing import degrades the environment, it never fails the
	// resolution.
	Missing []string
}

// Variable looks up a name in the resolved scope.
func (e *Environment) Variable(name string) *Variable {
	return e.Variables[name]
}

// Names returns every resolved variable and template name, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.Variables)+len(e.Templates))
	for name := range e.Variables {
		names = append(names, name)
	}
	for name := range e.Templates {
		if _, dup := e.Variables[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ResolveEnvironment resolves the scope visible at a byte offset in path.
//
// Merge order is deterministic: the workspace build config first, then the
// import graph depth-first in declaration order with each file's own exports
// merged after its imports', and finally the lexical scope chain at pos from
// the file root down. A later merge of a name replaces the earlier entry
// wholesale, so shallower and more local definitions shadow deeper ones; the
// assignments within one entry keep every branch's definition site, since no
// conditional branch is ever eliminated.
//
// Cyclic imports terminate: each file is visited at most once per
// resolution, and both sides of a cycle contribute their exports.
func (a *Analyzer) ResolveEnvironment(ctx context.Context, path string, pos int, mode RefreshMode) (*Environment, error) {
	ctx, span := a.tracer.Start(ctx, "resolve-environment",
		trace.WithAttributes(attribute.String("file", path), attribute.Int("pos", pos)))
	defer span.End()

	path = filepath.Clean(path)
	file, err := a.AnalyzeFile(ctx, path)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Path:      path,
		Pos:       pos,
		Variables: make(map[string]*Variable),
		Templates: make(map[string]*Template),
		Targets:   make(map[string]*Target),
	}

	ws := FindWorkspace(path)
	if ws != nil && ws.BuildConfig != "" && ws.BuildConfig != path {
		if cfg := a.dependency(ctx, env, ws.BuildConfig, mode); cfg != nil {
			a.mergeImports(ctx, env, cfg, mode, map[string]bool{path: true})
		}
	}

	a.mergeImports(ctx, env, file, mode, make(map[string]bool))

	for name, t := range file.Exports.Targets {
		env.Targets[name] = t
	}

	// Lexical overlay: walk the block chain from the file root to the
	// innermost block containing pos. Root-level names were already merged
	// as the file's own exports; deeper levels shadow them here.
	block := file.Root
	for block != nil {
		locals := make(map[string]*Variable)
		collectBlockVariables(path, block, locals)
		for name, v := range locals {
			env.Variables[name] = v
		}
		block = subscopeAt(block, pos)
	}

	return env, nil
}

// mergeImports merges file's transitive imports and then file's own exports
// into env. Traversal is iterative with an explicit frame stack; visited
// breaks cycles by file identity.
func (a *Analyzer) mergeImports(ctx context.Context, env *Environment, file *AnalyzedFile, mode RefreshMode, visited map[string]bool) {
	type frame struct {
		file    *AnalyzedFile
		imports []Link
		next    int
	}

	push := func(stack []frame, f *AnalyzedFile) []frame {
		visited[f.Path] = true
		return append(stack, frame{file: f, imports: f.Imports()})
	}

	stack := push(nil, file)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.imports) {
			link := top.imports[top.next]
			top.next++
			if link.Path == "" {
				env.Missing = append(env.Missing, link.Raw)
				continue
			}
			if visited[link.Path] {
				continue
			}
			dep := a.dependency(ctx, env, link.Path, mode)
			if dep == nil {
				// Recorded as missing by dependency; mark visited so a
				// second import of the same unreadable file is not
				// reported twice.
				visited[link.Path] = true
				continue
			}
			stack = push(stack, dep)
			continue
		}

		// Imports done: merge this file's own exports over its imports'.
		mergeExports(env, top.file.Exports)
		stack = stack[:len(stack)-1]
	}
}

// dependency loads an imported file through the cache, honoring the refresh
// mode: shallow accepts stale cache entries, full re-verifies freshness. A
// read failure is recorded in env.Missing and returns nil; it never aborts
// the resolution and is never cached.
func (a *Analyzer) dependency(ctx context.Context, env *Environment, path string, mode RefreshMode) *AnalyzedFile {
	var dep *AnalyzedFile
	var err error
	if mode == RefreshFull {
		dep, err = a.AnalyzeFile(ctx, path)
	} else {
		dep, err = a.analyzeStale(ctx, path)
	}
	if err != nil {
		env.Missing = append(env.Missing, path)
		return nil
	}
	return dep
}

func mergeExports(env *Environment, exports *FileExports) {
	for name, v := range exports.Variables {
		env.Variables[name] = v
	}
	for name, t := range exports.Templates {
		env.Templates[name] = t
	}
}
