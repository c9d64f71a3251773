// Copyright © 2025 The gnls authors

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gntools/gnls/analysis"
	"github.com/gntools/gnls/diagnostic"
)

func analyzeSource(t *testing.T, name, src string) (*analysis.DocumentStore, *analysis.AnalyzedFile) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	docs := analysis.NewDocumentStore()
	analyzer := analysis.NewAnalyzer(docs)
	file, err := analyzer.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	return docs, file
}

func TestFileDiagnostics_Clean(t *testing.T) {
	docs, file := analyzeSource(t, "BUILD.gn", "group(\"all\") {\n}\n")
	assert.Empty(t, fileDiagnostics(docs, file))
}

func TestFileDiagnostics_ParseError(t *testing.T) {
	docs, file := analyzeSource(t, "BUILD.gn", "group(\"all\") {\n  deps = []\n")

	diags := fileDiagnostics(docs, file)
	require.NotEmpty(t, diags)
	assert.Equal(t, diagnostic.SeverityError, diags[0].Severity)
	assert.Equal(t, "missing closing brace", diags[0].Message)
	require.Len(t, diags[0].Spans, 1)
	assert.Equal(t, file.Path, diags[0].Spans[0].File)
	assert.Greater(t, diags[0].Spans[0].Line, 0)
}

func TestFileDiagnostics_UnresolvedImport(t *testing.T) {
	docs, file := analyzeSource(t, "standalone.gni", "import(\"missing.gni\")\n")

	diags := fileDiagnostics(docs, file)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "cannot resolve import missing.gni")
	require.Len(t, diags[0].Notes, 1)
	assert.Contains(t, diags[0].Notes[0], "missing.gni")
}

func TestFileDiagnostics_ImportOutsideWorkspace(t *testing.T) {
	// A //-rooted import has no meaning without a workspace root; it must
	// still be reported, not silently dropped.
	docs, file := analyzeSource(t, "standalone.gni", "import(\"//build/rules.gni\")\n")

	diags := fileDiagnostics(docs, file)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "cannot resolve import //build/rules.gni")
	require.Len(t, diags[0].Notes, 1)
	assert.Contains(t, diags[0].Notes[0], "workspace")
}

func TestFileDiagnostics_ResolvedImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defs.gni"), []byte("x = 1\n"), 0o600))
	path := filepath.Join(dir, "main.gni")
	require.NoError(t, os.WriteFile(path, []byte("import(\"defs.gni\")\n"), 0o600))

	docs := analysis.NewDocumentStore()
	analyzer := analysis.NewAnalyzer(docs)
	file, err := analyzer.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, fileDiagnostics(docs, file))
}
