// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func undefinedIn(t *testing.T, src string) []UndefinedRef {
	t.Helper()
	a := newTestAnalyzer()
	path := "/virtual/undef/BUILD.gn"
	a.Docs().Open(path, src, 1)
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	refs, err := a.UndefinedIdentifiers(context.Background(), file, RefreshShallow)
	require.NoError(t, err)
	return refs
}

func TestUndefinedIdentifiers_CleanFile(t *testing.T) {
	refs := undefinedIn(t, `x = 1
y = x + 1
executable("app") {
  sources = [ "main.cc" ]
  defines = [ "X=$x" ]
}
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_UnknownName(t *testing.T) {
	src := `deps = missing_list
`
	refs := undefinedIn(t, src)
	require.Len(t, refs, 1)
	assert.Equal(t, "missing_list", refs[0].Name)
	assert.Equal(t, 7, refs[0].Span.Start)
	assert.Equal(t, 7+len("missing_list"), refs[0].Span.End)
}

func TestUndefinedIdentifiers_Builtins(t *testing.T) {
	refs := undefinedIn(t, `v = target_os
w = current_cpu
out = root_build_dir
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_BranchesAreOrderInsensitive(t *testing.T) {
	// A name assigned in any branch counts as defined for the whole level;
	// which branch runs depends on the build configuration.
	refs := undefinedIn(t, `if (host_os == "linux") {
  flag = true
} else {
  flag = false
}
v = flag
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_ForeachVariable(t *testing.T) {
	refs := undefinedIn(t, `sources = [ "a.cc" ]
foreach(src, sources) {
  print(src)
}
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_ForwardedNames(t *testing.T) {
	refs := undefinedIn(t, `template("wrapper") {
  forward_variables_from(invoker, [ "wrapped_sources" ])
  source_set(target_name) {
    sources = wrapped_sources
  }
}
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_ForwardWildcardSuppresses(t *testing.T) {
	// A "*" forward may introduce any name; the scope and everything nested
	// in it stop reporting.
	refs := undefinedIn(t, `template("wrapper") {
  forward_variables_from(invoker, "*")
  source_set(target_name) {
    sources = whatever_the_invoker_set
  }
}
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_DefinedArgumentsSkipped(t *testing.T) {
	refs := undefinedIn(t, `if (defined(maybe_set)) {
  v = maybe_set
}
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_TargetBlockSeesOuterScope(t *testing.T) {
	refs := undefinedIn(t, `common = [ "a.cc" ]
executable("app") {
  sources = common
  extra = oops
}
`)
	require.Len(t, refs, 1)
	assert.Equal(t, "oops", refs[0].Name)
}

func TestUndefinedIdentifiers_ScopeAccessChecksBaseOnly(t *testing.T) {
	// Field names live in the base scope; only the base itself must resolve.
	refs := undefinedIn(t, `cfg = {
  mode = "debug"
}
v = cfg.mode
w = invoker.anything
`)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_ParseErrorsSkipCheck(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/undef/broken/BUILD.gn"
	a.Docs().Open(path, "executable(\"app\") {\n  x = nonsense_here\n", 1)
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, file.Errors)

	refs, err := a.UndefinedIdentifiers(context.Background(), file, RefreshShallow)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_MissingImportSkipsCheck(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/undef/orphan/BUILD.gn"
	a.Docs().Open(path, `import("//nope/missing.gni")
v = who_knows
`, 1)
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	refs, err := a.UndefinedIdentifiers(context.Background(), file, RefreshShallow)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestUndefinedIdentifiers_ImportedNamesResolve(t *testing.T) {
	a := newTestAnalyzer()
	path := td(t, "simple", "BUILD.gn")
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	refs, err := a.UndefinedIdentifiers(context.Background(), file, RefreshFull)
	require.NoError(t, err)
	assert.Empty(t, refs)
}
