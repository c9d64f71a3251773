// Copyright © 2025 The gnls authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/BUILD.gn",
		"src/legacy.gni",
		"lib/BUILD.gn",
	}
	result := filterExcludes(paths, []string{"legacy.gni"})
	assert.Equal(t, []string{"src/BUILD.gn", "lib/BUILD.gn"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/BUILD.gn",
		"third_party/BUILD.gn",
		"third_party/sub/deep.gni",
		"lib/BUILD.gn",
	}
	result := filterExcludes(paths, []string{"third_party"})
	assert.Equal(t, []string{"src/BUILD.gn", "lib/BUILD.gn"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/BUILD.gn",
		"src/generated_foo.gni",
		"src/generated_bar.gni",
		"lib/BUILD.gn",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/BUILD.gn", "lib/BUILD.gn"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/BUILD.gn",
		"third_party/BUILD.gn",
		"src/legacy.gni",
		"lib/BUILD.gn",
	}
	result := filterExcludes(paths, []string{"third_party", "legacy.gni"})
	assert.Equal(t, []string{"src/BUILD.gn", "lib/BUILD.gn"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/BUILD.gn"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/BUILD.gn"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	// filepath.Match on the full path
	assert.True(t, matchesAny("src/overrides.gni", []string{"src/*.gni"}))
	assert.False(t, matchesAny("lib/overrides.gni", []string{"src/*.gni"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/legacy.gni", []string{"legacy.gni"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/third_party/BUILD.gn", []string{"third_party"}))
	assert.False(t, matchesAny("project/src/BUILD.gn", []string{"third_party"}))
}

func TestSplitPath(t *testing.T) {
	components := splitPath("a/b/BUILD.gn")
	assert.Contains(t, components, "BUILD.gn")
	assert.Contains(t, components, "b")
	assert.Contains(t, components, "a")
}

func TestExpandArgs_Recursive(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"BUILD.gn",
		"lib/BUILD.gn",
		"build/flags.gni",
		"out/args.gn",
		"src/main.cc",
		"third_party/x.gni",
	}
	for _, name := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}

	result, err := expandArgs([]string{root + "/..."}, []string{"third_party"})
	require.NoError(t, err)

	var rels []string
	for _, p := range result {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"BUILD.gn", "lib/BUILD.gn", "build/flags.gni"}, rels)
}

func TestExpandArgs_PassThrough(t *testing.T) {
	result, err := expandArgs([]string{"BUILD.gn", "lib/foo.gni"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"BUILD.gn", "lib/foo.gni"}, result)
}
