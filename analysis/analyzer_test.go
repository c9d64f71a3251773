// Copyright © 2025 The gnls authors

package analysis

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// td returns an absolute path under testdata.
func td(t *testing.T, parts ...string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join(append([]string{"testdata"}, parts...)...))
	require.NoError(t, err)
	return abs
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(NewDocumentStore())
}

// offsetOf returns the byte offset of the first occurrence of needle in the
// analyzed file, plus extra.
func offsetOf(t *testing.T, file *AnalyzedFile, needle string, extra int) int {
	t.Helper()
	i := bytes.Index(file.Content, []byte(needle))
	require.GreaterOrEqual(t, i, 0, "%q not found in %s", needle, file.Path)
	return i + extra
}

func TestAnalyzeFile_Exports(t *testing.T) {
	a := newTestAnalyzer()
	file, err := a.AnalyzeFile(context.Background(), td(t, "simple", "build", "config.gni"))
	require.NoError(t, err)

	foo := file.Exports.Variables["enable_foo"]
	require.NotNil(t, foo)
	assert.True(t, foo.Exported)
	require.Len(t, foo.Assignments, 1)
	assert.True(t, foo.Assignments[0].DeclareArgs)
	assert.Equal(t, []string{"Enables the optional foo feature."}, foo.Assignments[0].Comments)
	v, ok := foo.Assignments[0].Value.AsBool()
	require.True(t, ok)
	assert.False(t, v)

	opt := file.Exports.Variables["opt_level"]
	require.NotNil(t, opt)
	assert.Equal(t, KindInt, opt.Assignments[0].Value.Kind)

	private := file.Exports.Variables["_config_private"]
	require.NotNil(t, private)
	assert.False(t, private.Exported)

	tmpl := file.Exports.Templates["my_component"]
	require.NotNil(t, tmpl)
	assert.Equal(t, file.Path, tmpl.Path)

	// The template body opens its own scope; nothing inside it leaks out.
	assert.Nil(t, file.Exports.Targets["target_name"])
	assert.Nil(t, file.Exports.Variables["sources"])
}

func TestAnalyzeFile_MultiBranchVariable(t *testing.T) {
	a := newTestAnalyzer()
	file, err := a.AnalyzeFile(context.Background(), td(t, "simple", "build", "config.gni"))
	require.NoError(t, err)

	// Both branches assign platform_define; neither is eliminated.
	pd := file.Exports.Variables["platform_define"]
	require.NotNil(t, pd)
	require.Len(t, pd.Assignments, 2)
	assert.Less(t, pd.Assignments[0].Span.Start, pd.Assignments[1].Span.Start,
		"assignments must be in document order")
	s0, _ := pd.Assignments[0].Value.AsString()
	s1, _ := pd.Assignments[1].Value.AsString()
	assert.Equal(t, []string{"OS_LINUX", "OS_OTHER"}, []string{s0, s1})
}

func TestAnalyzeFile_Targets(t *testing.T) {
	a := newTestAnalyzer()
	file, err := a.AnalyzeFile(context.Background(), td(t, "simple", "lib", "BUILD.gn"))
	require.NoError(t, err)

	util := file.Exports.Targets["util"]
	require.NotNil(t, util)
	assert.Equal(t, "my_component", util.Rule)

	extra := file.Exports.Targets["util_extra"]
	require.NotNil(t, extra)
	assert.Equal(t, "source_set", extra.Rule)

	assert.ElementsMatch(t, []string{"util", "util_extra"}, file.Exports.TargetNames())
}

func TestAnalyzeFile_Links(t *testing.T) {
	a := newTestAnalyzer()
	file, err := a.AnalyzeFile(context.Background(), td(t, "simple", "BUILD.gn"))
	require.NoError(t, err)

	imports := file.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, "//build/config.gni", imports[0].Raw)
	assert.Equal(t, td(t, "simple", "build", "config.gni"), imports[0].Path)

	var labels []string
	for _, l := range file.Links {
		if l.Kind == LinkLabel {
			labels = append(labels, l.Raw)
		}
	}
	assert.Equal(t, []string{"//lib:util", "//lib:util_extra", ":app"}, labels)

	var files []string
	for _, l := range file.Links {
		if l.Kind == LinkFile {
			files = append(files, l.Raw)
		}
	}
	assert.Equal(t, []string{"main.cc"}, files)
}

func TestAnalyzeFile_Symbols(t *testing.T) {
	a := newTestAnalyzer()
	file, err := a.AnalyzeFile(context.Background(), td(t, "simple", "BUILD.gn"))
	require.NoError(t, err)

	var names []string
	for _, sym := range file.Symbols {
		names = append(names, sym.Kind.String()+":"+sym.Name)
	}
	assert.Equal(t, []string{"target:app", "target:default"}, names)
}

func TestAnalyzeFile_Idempotent(t *testing.T) {
	a := newTestAnalyzer()
	path := td(t, "simple", "BUILD.gn")
	first, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	second, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, first, second, "fresh cache hit must not recompute")

	b := newTestAnalyzer()
	recomputed, err := b.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first.Exports, recomputed.Exports)
	assert.Equal(t, first.Links, recomputed.Links)
	assert.Equal(t, first.Fingerprint, recomputed.Fingerprint)
}

func TestAnalyzeFile_FreshnessAfterEdit(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/BUILD.gn"
	a.Docs().Open(path, "before = 1\n", 1)

	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, file.Exports.Variables["before"])

	a.Docs().Change(path, "after = 2\n", 2)
	file, err = a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, file.Exports.Variables["before"], "stale analysis returned after edit")
	assert.NotNil(t, file.Exports.Variables["after"])
}

func TestAnalyzeFile_EditDuringInFlightAnalysis(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/BUILD.gn"
	a.Docs().Open(path, "before = 1\n", 1)

	stale, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	// Occupy the per-path flight with a computation that completes only
	// after the edit below has landed, delivering the revision-1 result to
	// everyone who joined it.
	release := make(chan struct{})
	a.group.DoChan(path, func() (interface{}, error) {
		<-release
		return stale, nil
	})

	a.Docs().Change(path, "after = 2\n", 2)

	type result struct {
		file *AnalyzedFile
		err  error
	}
	got := make(chan result, 1)
	go func() {
		file, err := a.AnalyzeFile(context.Background(), path)
		got <- result{file, err}
	}()

	// Give the request time to join the occupied flight before letting the
	// stale result through.
	time.Sleep(50 * time.Millisecond)
	close(release)

	res := <-got
	require.NoError(t, res.err)
	assert.Equal(t, int32(2), res.file.Version.Revision,
		"request made after the edit must not see the pre-edit result")
	assert.Nil(t, res.file.Exports.Variables["before"])
	assert.NotNil(t, res.file.Exports.Variables["after"])
}

func TestAnalyzeFile_SameContentNewRevision(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/BUILD.gn"
	a.Docs().Open(path, "x = 1\n", 1)

	first, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	a.Docs().Change(path, "x = 1\n", 2)
	second, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	// Identical bytes: the tree is reused, only the revision moves.
	assert.Equal(t, int32(2), second.Version.Revision)
	assert.Same(t, first.Root, second.Root)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestAnalyzeFile_IOFailureNotCached(t *testing.T) {
	a := newTestAnalyzer()
	path := filepath.Join(t.TempDir(), "BUILD.gn")

	_, err := a.AnalyzeFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Nil(t, a.Cached(path), "an I/O failure must not be cached")

	require.NoError(t, os.WriteFile(path, []byte("born_late = true\n"), 0o600))
	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.NotNil(t, file.Exports.Variables["born_late"])
}

func TestAnalyzeFile_MalformedInput(t *testing.T) {
	a := newTestAnalyzer()
	path := filepath.Join(t.TempDir(), "BUILD.gn")
	src := "good = 1\ngroup(\"g\") {\n  deps = []\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	file, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err, "syntax errors are data, not failures")
	assert.NotEmpty(t, file.Errors)
	assert.NotNil(t, file.Exports.Variables["good"],
		"exports before the error point must survive")
	assert.NotNil(t, file.Exports.Targets["g"])
}

func TestAnalyzeFile_ConcurrentRequestsShareOneComputation(t *testing.T) {
	a := newTestAnalyzer()
	path := "/virtual/BUILD.gn"
	a.Docs().Open(path, "x = 1\n", 1)

	const n = 32
	results := make([]*AnalyzedFile, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			file, err := a.AnalyzeFile(context.Background(), path)
			assert.NoError(t, err)
			results[i] = file
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i],
			"all concurrent requesters must receive the identical result")
	}
}

func TestAnalyzeFile_CancelledContext(t *testing.T) {
	a := newTestAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.AnalyzeFile(ctx, td(t, "simple", "BUILD.gn"))
	require.ErrorIs(t, err, context.Canceled)

	// The abandoned wait must not have corrupted the cache: a live request
	// still succeeds.
	file, err := a.AnalyzeFile(context.Background(), td(t, "simple", "BUILD.gn"))
	require.NoError(t, err)
	assert.NotNil(t, file.Exports.Targets["app"])
}

func TestInvalidate(t *testing.T) {
	a := newTestAnalyzer()
	path := td(t, "simple", "BUILD.gn")
	first, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	a.Invalidate(path)
	assert.Nil(t, a.Cached(path))

	second, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first.Exports, second.Exports)
}
