// Copyright © 2025 The gnls authors

package cmd

import (
	"os"

	"github.com/gntools/gnls/analysis"
	"github.com/gntools/gnls/diagnostic"
)

func colorMode() diagnostic.ColorMode {
	switch colorFlag {
	case "always":
		return diagnostic.ColorAlways
	case "never":
		return diagnostic.ColorNever
	default:
		return diagnostic.ColorAuto
	}
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// fileDiagnostics converts the findings of an analyzed build file into
// renderable diagnostics: parse errors, then unresolvable imports.
func fileDiagnostics(docs *analysis.DocumentStore, file *analysis.AnalyzedFile) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	for _, parseErr := range file.Errors {
		diags = append(diags, diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			Message:  parseErr.Message,
			Spans: []diagnostic.Span{
				diagnostic.SpanFromOffsets(file.Path, file.Content, parseErr.Span.Start, parseErr.Span.End),
			},
		})
	}
	for _, link := range file.Imports() {
		if link.Path == "" {
			// The import string never mapped to a file, for example a
			// //-rooted path outside any workspace.
			diags = append(diags, diagnostic.Diagnostic{
				Severity: diagnostic.SeverityWarning,
				Message:  "cannot resolve import " + link.Raw,
				Spans: []diagnostic.Span{
					diagnostic.SpanFromOffsets(file.Path, file.Content, link.Span.Start, link.Span.End),
				},
				Notes: []string{"no workspace root to resolve against"},
			})
			continue
		}
		if _, err := docs.Read(link.Path); err != nil {
			diags = append(diags, diagnostic.Diagnostic{
				Severity: diagnostic.SeverityWarning,
				Message:  "cannot resolve import " + link.Raw,
				Spans: []diagnostic.Span{
					diagnostic.SpanFromOffsets(file.Path, file.Content, link.Span.Start, link.Span.End),
				},
				Notes: []string{"expected a file at " + link.Path},
			})
		}
	}
	return diags
}

// renderDiagnostics renders diagnostics with source snippets to stderr.
func renderDiagnostics(diags []diagnostic.Diagnostic) {
	r := newRenderer()
	_ = r.RenderAll(os.Stderr, diags)
}
