// Copyright © 2025 The gnls authors

package lsp

import (
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentLink handles textDocument/documentLink: every import,
// file path, and target label that resolves to an existing file becomes a
// clickable link. Dangling references are simply omitted.
func (s *Server) textDocumentDocumentLink(_ *glsp.Context, params *protocol.DocumentLinkParams) ([]protocol.DocumentLink, error) {
	file := s.analyzedDocument(params.TextDocument.URI)
	if file == nil {
		return nil, nil
	}
	index := NewLineIndex(string(file.Content))

	var links []protocol.DocumentLink
	for _, link := range file.Links {
		if link.Path == "" || link.Path == file.Path {
			continue
		}
		if _, err := os.Stat(link.Path); err != nil {
			continue
		}
		target := pathToURI(link.Path)
		links = append(links, protocol.DocumentLink{
			Range:  index.Range(link.Span),
			Target: &target,
		})
	}
	return links, nil
}
