// Copyright © 2025 The gnls authors

package lsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

// textDocumentHover handles textDocument/hover requests.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	file := s.analyzedDocument(params.TextDocument.URI)
	if file == nil {
		return nil, nil
	}
	index := NewLineIndex(string(file.Content))
	pos := index.Offset(params.Position)

	if link, ok := file.LinkAt(pos); ok {
		if md := s.hoverLink(link); md != "" {
			return markdownHover(md, index.Range(link.Span)), nil
		}
	}

	id := file.IdentifierAt(pos)
	if id == nil {
		return nil, nil
	}

	env, err := s.analyzer.ResolveEnvironment(context.Background(), file.Path, pos, analysis.RefreshShallow)
	if err != nil {
		return nil, nil
	}

	if v := env.Variable(id.Name); v != nil {
		return markdownHover(hoverVariable(v), index.Range(id.S)), nil
	}
	if t := env.Templates[id.Name]; t != nil {
		md := fmt.Sprintf("**template** `%s`\n\ndefined in %s", t.Name, t.Path)
		if len(t.Comments) > 0 {
			md += "\n\n" + strings.Join(t.Comments, "\n")
		}
		return markdownHover(md, index.Range(id.S)), nil
	}
	return nil, nil
}

// hoverVariable renders every known definition site of a variable. A name
// assigned in several conditional branches shows all of them; no branch is
// ever preferred.
func hoverVariable(v *analysis.Variable) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**variable** `%s`", v.Name)
	if !v.Exported {
		sb.WriteString(" (file-private)")
	}
	for _, a := range v.Assignments {
		sb.WriteString("\n\n")
		if a.DeclareArgs {
			sb.WriteString("build argument, ")
		}
		if a.Value.IsDefined() {
			fmt.Fprintf(&sb, "`= %s`", a.Value)
		} else {
			sb.WriteString("value depends on the build configuration")
		}
		if len(a.Comments) > 0 {
			sb.WriteString("\n\n" + strings.Join(a.Comments, "\n"))
		}
	}
	return sb.String()
}

func (s *Server) hoverLink(link analysis.Link) string {
	switch link.Kind {
	case analysis.LinkImport:
		return fmt.Sprintf("imports `%s`", link.Raw)
	case analysis.LinkLabel:
		def, err := s.analyzer.AnalyzeFile(context.Background(), link.Path)
		if err != nil {
			return fmt.Sprintf("**target** `%s` (unresolved)", link.Raw)
		}
		target := def.Exports.Targets[link.Label.Name]
		if target == nil {
			return fmt.Sprintf("**target** `%s` (not defined in %s)", link.Raw, link.Path)
		}
		return fmt.Sprintf("**%s** `%s`\n\ndefined in %s", target.Rule, target.Name, target.Path)
	}
	return ""
}

func markdownHover(content string, rng protocol.Range) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: &rng,
	}
}
