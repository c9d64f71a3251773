// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexedAnalyzer(t *testing.T) (*Analyzer, *Indexer) {
	t.Helper()
	a := newTestAnalyzer()
	ws := FindWorkspace(td(t, "simple"))
	require.NotNil(t, ws)
	ix := NewIndexer(a, ws)
	ix.Start(context.Background())
	waitForIndex(t, ix)
	require.Equal(t, IndexComplete, ix.Status())
	return a, ix
}

func TestFindTargetReferences(t *testing.T) {
	a, ix := indexedAnalyzer(t)
	target := Label{Dir: td(t, "simple", "lib"), Name: "util"}

	result, err := a.FindTargetReferences(context.Background(), ix, target, true)
	require.NoError(t, err)
	assert.True(t, result.Complete)

	// Definition in lib/BUILD.gn, the dep "//lib:util" in the root
	// BUILD.gn, and the dep ":util" inside lib/BUILD.gn itself.
	var paths []string
	for _, loc := range result.Locations {
		paths = append(paths, loc.Path)
	}
	assert.Equal(t, []string{
		td(t, "simple", "BUILD.gn"),
		td(t, "simple", "lib", "BUILD.gn"),
		td(t, "simple", "lib", "BUILD.gn"),
	}, paths)
}

func TestFindTargetReferences_NoPrefixBleed(t *testing.T) {
	a, ix := indexedAnalyzer(t)

	// "util" is a strict prefix of "util_extra"; each target must keep its
	// own references.
	util, err := a.FindTargetReferences(context.Background(), ix,
		Label{Dir: td(t, "simple", "lib"), Name: "util"}, false)
	require.NoError(t, err)
	extra, err := a.FindTargetReferences(context.Background(), ix,
		Label{Dir: td(t, "simple", "lib"), Name: "util_extra"}, false)
	require.NoError(t, err)

	assert.Len(t, util.Locations, 2)
	require.Len(t, extra.Locations, 1)
	assert.Equal(t, td(t, "simple", "BUILD.gn"), extra.Locations[0].Path)
}

func TestFindTargetReferences_PartialIndex(t *testing.T) {
	a := newTestAnalyzer()
	ws := FindWorkspace(td(t, "simple"))
	require.NotNil(t, ws)
	ix := NewIndexer(a, ws)

	// Query before indexing ever starts: no crash, no block, and the
	// result is flagged incomplete.
	result, err := a.FindTargetReferences(context.Background(), ix,
		Label{Dir: td(t, "simple", "lib"), Name: "util"}, false)
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Empty(t, result.Locations, "only cached files may contribute")
}

func TestTargetAt(t *testing.T) {
	a, _ := indexedAnalyzer(t)
	file := a.Cached(td(t, "simple", "BUILD.gn"))
	require.NotNil(t, file)

	// On the label string inside deps.
	label, ok := TargetAt(file, offsetOf(t, file, "//lib:util", 3))
	require.True(t, ok)
	assert.Equal(t, Label{Dir: td(t, "simple", "lib"), Name: "util"}, label)

	// On a target definition name.
	label, ok = TargetAt(file, offsetOf(t, file, `"app"`, 2))
	require.True(t, ok)
	assert.Equal(t, Label{Dir: td(t, "simple"), Name: "app"}, label)

	_, ok = TargetAt(file, offsetOf(t, file, "executable", 0))
	assert.False(t, ok)
}

func TestFindSymbolOccurrences(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/BUILD.gn"
	a.Docs().Open(path, `level = 1
if (level == 2) {
  level = 3
}
other = level
`, 1)
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	locs := FindSymbolOccurrences(file, "level")
	assert.Len(t, locs, 4)
	for i := 1; i < len(locs); i++ {
		assert.Less(t, locs[i-1].Span.Start, locs[i].Span.Start)
	}
	assert.Empty(t, FindSymbolOccurrences(file, "missing"))
}

func TestWorkspaceSymbols(t *testing.T) {
	a, ix := indexedAnalyzer(t)

	syms, paths, complete := a.WorkspaceSymbols(ix, func(name string) bool {
		return name == "my_component"
	})
	assert.True(t, complete)
	require.Len(t, syms, 1)
	assert.Equal(t, SymTemplate, syms[0].Kind)
	assert.Equal(t, filepath.Base(paths[0]), "config.gni")

	// Underscore-private variables are not workspace-visible.
	syms, _, _ = a.WorkspaceSymbols(ix, func(name string) bool {
		return name == "_config_private"
	})
	assert.Empty(t, syms)
}
