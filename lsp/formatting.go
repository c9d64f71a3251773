// Copyright © 2025 The gnls authors

package lsp

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFormatting handles textDocument/formatting by piping the
// document through `gn format --stdin`. A formatter failure is reported to
// the caller; it never touches analyzer or document state.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, err := s.docs.Read(uriToPath(params.TextDocument.URI))
	if err != nil {
		return nil, nil
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	formatted, err := s.runFormatter(doc.Content)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(formatted, doc.Content) {
		return nil, nil
	}

	// Replace the entire document with one edit.
	index := NewLineIndex(string(doc.Content))
	return []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   index.Position(len(doc.Content)),
			},
			NewText: string(formatted),
		},
	}, nil
}

// runFormatter invokes the external gn binary with the document on stdin
// and returns the replacement text.
func (s *Server) runFormatter(content []byte) ([]byte, error) {
	cmd := exec.Command(s.gnBinary, "format", "--stdin")
	cmd.Stdin = bytes.NewReader(content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("gn format: %s", bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, fmt.Errorf("gn format: %w", err)
	}
	return stdout.Bytes(), nil
}
