// Copyright © 2025 The gnls authors

package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
	"github.com/gntools/gnls/parser"
)

// textDocumentDefinition handles textDocument/definition: imports and file
// paths jump to the referenced file, target labels to the defining call,
// identifiers to every assignment site visible in the resolved environment.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	file := s.analyzedDocument(params.TextDocument.URI)
	if file == nil {
		return nil, nil
	}
	index := NewLineIndex(string(file.Content))
	pos := index.Offset(params.Position)

	if link, ok := file.LinkAt(pos); ok {
		return s.linkDefinition(link)
	}

	id := file.IdentifierAt(pos)
	if id == nil {
		return nil, nil
	}

	// Definition jumps across files; pay for a full freshness check so a
	// dependency edited on disk is never answered from its stale analysis.
	env, err := s.analyzer.ResolveEnvironment(context.Background(), file.Path, pos, analysis.RefreshFull)
	if err != nil {
		return nil, nil
	}

	var locations []protocol.Location
	if v := env.Variable(id.Name); v != nil {
		for _, a := range v.Assignments {
			locations = append(locations, s.location(a.Path, a.Span))
		}
	}
	if t := env.Templates[id.Name]; t != nil {
		locations = append(locations, s.location(t.Path, t.Span))
	}
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

func (s *Server) linkDefinition(link analysis.Link) (any, error) {
	if link.Path == "" {
		return nil, nil
	}
	switch link.Kind {
	case analysis.LinkImport, analysis.LinkFile:
		return []protocol.Location{{
			URI: pathToURI(link.Path),
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
		}}, nil
	case analysis.LinkLabel:
		def, err := s.analyzer.AnalyzeFile(context.Background(), link.Path)
		if err != nil {
			return nil, nil
		}
		target := def.Exports.Targets[link.Label.Name]
		if target == nil {
			return nil, nil
		}
		return []protocol.Location{s.location(target.Path, target.Span)}, nil
	}
	return nil, nil
}

// location builds a protocol location for a span in an arbitrary file,
// reading that file to convert byte offsets to line positions.
func (s *Server) location(path string, span parser.Span) protocol.Location {
	return protocol.Location{URI: pathToURI(path), Range: s.rangeIn(path, span)}
}

func (s *Server) rangeIn(path string, span parser.Span) protocol.Range {
	if cached := s.analyzer.Cached(path); cached != nil {
		return NewLineIndex(string(cached.Content)).Range(span)
	}
	doc, err := s.docs.Read(path)
	if err != nil {
		return protocol.Range{}
	}
	return NewLineIndex(string(doc.Content)).Range(span)
}
