// Copyright © 2025 The gnls authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

// textDocumentDocumentSymbol handles textDocument/documentSymbol, producing
// the flat outline of the file: variables, templates, and targets.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	file := s.analyzedDocument(params.TextDocument.URI)
	if file == nil {
		return nil, nil
	}
	index := NewLineIndex(string(file.Content))

	symbols := make([]protocol.DocumentSymbol, 0, len(file.Symbols))
	for _, sym := range file.Symbols {
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           symbolKind(sym.Kind),
			Range:          index.Range(sym.Full),
			SelectionRange: index.Range(sym.Span),
		})
	}
	return symbols, nil
}

func symbolKind(kind analysis.SymbolKind) protocol.SymbolKind {
	switch kind {
	case analysis.SymTemplate:
		return protocol.SymbolKindFunction
	case analysis.SymTarget:
		return protocol.SymbolKindClass
	}
	return protocol.SymbolKindVariable
}
