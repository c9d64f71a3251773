// Copyright © 2025 The gnls authors

package lsp

import (
	"context"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

const debounceDelay = 300 * time.Millisecond

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	path := uriToPath(params.TextDocument.URI)
	s.docs.Open(path, params.TextDocument.Text, int32(params.TextDocument.Version))
	s.ensureIndexer(path)
	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	uri := params.TextDocument.URI
	s.docs.Change(uriToPath(uri), content, int32(params.TextDocument.Version))

	// Debounce: delay analysis to avoid thrashing during rapid edits. The
	// superseded analysis never runs; nothing partial is ever published.
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
	}
	s.debounce[uri] = time.AfterFunc(debounceDelay, func() {
		s.publishDiagnostics(uri)
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	// Cancel any pending debounce and publish immediately.
	s.debounceMu.Lock()
	if t, ok := s.debounce[params.TextDocument.URI]; ok {
		t.Stop()
		delete(s.debounce, params.TextDocument.URI)
	}
	s.debounceMu.Unlock()

	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	path := uriToPath(uri)
	s.docs.Close(path)
	// The next read comes from disk; the cached in-memory analysis is no
	// longer the authoritative revision.
	s.analyzer.Invalidate(path)
	return nil
}

// publishDiagnostics analyzes the document and pushes its parse errors,
// unresolved-import warnings, and undefined-identifier warnings to the
// client.
func (s *Server) publishDiagnostics(uri string) {
	file := s.analyzedDocument(uri)
	if file == nil {
		return
	}
	index := NewLineIndex(string(file.Content))

	diags := []protocol.Diagnostic{}
	for _, parseErr := range file.Errors {
		diags = append(diags, protocol.Diagnostic{
			Range:    index.Range(parseErr.Span),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(serverName),
			Message:  parseErr.Message,
		})
	}

	// An import that cannot be read is a degraded result, not an error. An
	// empty resolved path means the import string never mapped to a file at
	// all, for example a //-rooted import outside any workspace.
	for _, link := range file.Imports() {
		unresolved := link.Path == ""
		if !unresolved {
			_, err := s.docs.Read(link.Path)
			unresolved = err != nil
		}
		if unresolved {
			diags = append(diags, protocol.Diagnostic{
				Range:    index.Range(link.Span),
				Severity: severity(protocol.DiagnosticSeverityWarning),
				Source:   strPtr(serverName),
				Message:  "cannot resolve import " + link.Raw,
			})
		}
	}

	for _, ref := range s.undefinedRefs(file) {
		diags = append(diags, protocol.Diagnostic{
			Range:    index.Range(ref.Span),
			Severity: severity(protocol.DiagnosticSeverityWarning),
			Source:   strPtr(serverName),
			Message:  "undefined identifier: " + ref.Name,
		})
	}

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// undefinedRefs runs the undefined-identifier check for a published file.
// Shallow freshness keeps the diagnostics pass responsive while typing; the
// check is best-effort and a resolution failure yields no extra warnings.
func (s *Server) undefinedRefs(file *analysis.AnalyzedFile) []analysis.UndefinedRef {
	refs, err := s.analyzer.UndefinedIdentifiers(context.Background(), file, analysis.RefreshShallow)
	if err != nil {
		return nil
	}
	return refs
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}
