// Copyright © 2025 The gnls authors

package lsp

import (
	"context"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

// indexWait bounds how long a references request waits for the background
// indexer before settling for a partial answer.
const indexWait = 3 * time.Second

// textDocumentReferences handles textDocument/references. Target labels are
// searched workspace-wide over the index; plain identifiers fall back to
// occurrences within the requesting file.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	file := s.analyzedDocument(params.TextDocument.URI)
	if file == nil {
		return nil, nil
	}
	index := NewLineIndex(string(file.Content))
	pos := index.Offset(params.Position)

	if target, ok := analysis.TargetAt(file, pos); ok {
		return s.targetReferences(file.Path, target, params.Context.IncludeDeclaration)
	}

	id := file.IdentifierAt(pos)
	if id == nil {
		return nil, nil
	}
	var locations []protocol.Location
	for _, occ := range analysis.FindSymbolOccurrences(file, id.Name) {
		locations = append(locations, protocol.Location{
			URI:   pathToURI(occ.Path),
			Range: index.Range(occ.Span),
		})
	}
	return locations, nil
}

// targetReferences answers a workspace-wide label search. It gives the
// indexer a bounded window to finish; if the walk is still running after
// that, the partial index answers rather than blocking the editor.
func (s *Server) targetReferences(path string, target analysis.Label, includeDefinition bool) ([]protocol.Location, error) {
	ix := s.ensureIndexer(path)
	if ix == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), indexWait)
	defer cancel()
	select {
	case <-ix.Done():
	case <-ctx.Done():
	}

	result, err := s.analyzer.FindTargetReferences(context.Background(), ix, target, includeDefinition)
	if err != nil {
		return nil, err
	}

	var locations []protocol.Location
	for _, loc := range result.Locations {
		locations = append(locations, protocol.Location{
			URI:   pathToURI(loc.Path),
			Range: s.rangeIn(loc.Path, loc.Span),
		})
	}
	return locations, nil
}
