// Copyright © 2025 The gnls authors

package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

// builtinFunctions are the GN builtins offered alongside resolved names.
var builtinFunctions = []string{
	"action",
	"action_foreach",
	"assert",
	"config",
	"copy",
	"declare_args",
	"defined",
	"exec_script",
	"executable",
	"foreach",
	"forward_variables_from",
	"get_label_info",
	"get_path_info",
	"get_target_outputs",
	"getenv",
	"group",
	"import",
	"loadable_module",
	"print",
	"process_file_template",
	"read_file",
	"rebase_path",
	"set_defaults",
	"shared_library",
	"source_set",
	"static_library",
	"template",
	"tool",
	"toolchain",
	"write_file",
}

// textDocumentCompletion handles textDocument/completion: every variable and
// template resolvable at the cursor, plus the builtin functions. Completions
// stay responsive during typing by accepting stale dependency analyses.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	file := s.analyzedDocument(params.TextDocument.URI)
	if file == nil {
		return nil, nil
	}
	index := NewLineIndex(string(file.Content))
	pos := index.Offset(params.Position)

	env, err := s.analyzer.ResolveEnvironment(context.Background(), file.Path, pos, analysis.RefreshShallow)
	if err != nil {
		return nil, nil
	}

	var items []protocol.CompletionItem
	for _, name := range env.Names() {
		item := protocol.CompletionItem{Label: name}
		if v := env.Variable(name); v != nil {
			kind := protocol.CompletionItemKindVariable
			item.Kind = &kind
			if len(v.Assignments) > 0 && v.Assignments[0].DeclareArgs {
				item.Detail = strPtr("build argument")
			}
			if doc := firstComment(v); doc != "" {
				item.Documentation = doc
			}
		} else if t := env.Templates[name]; t != nil {
			kind := protocol.CompletionItemKindFunction
			item.Kind = &kind
			item.Detail = strPtr("template")
		}
		items = append(items, item)
	}

	kind := protocol.CompletionItemKindKeyword
	for _, name := range builtinFunctions {
		items = append(items, protocol.CompletionItem{
			Label: name,
			Kind:  &kind,
		})
	}
	return items, nil
}

func firstComment(v *analysis.Variable) string {
	for _, a := range v.Assignments {
		if len(a.Comments) > 0 {
			doc := ""
			for i, line := range a.Comments {
				if i > 0 {
					doc += "\n"
				}
				doc += line
			}
			return doc
		}
	}
	return ""
}
