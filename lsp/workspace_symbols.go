// Copyright © 2025 The gnls authors

package lsp

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for a workspace
// symbol to match a non-substring query.
const fuzzyThreshold = 0.8

// workspaceSymbol handles the workspace/symbol request over every file the
// background indexer has analyzed so far. An empty query returns all
// symbols; otherwise substring matches rank first and fuzzy matches follow.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	ix := s.anyIndexer()
	if ix == nil {
		return nil, nil
	}

	query := strings.ToLower(params.Query)
	type ranked struct {
		info  protocol.SymbolInformation
		score float32
	}
	var results []ranked

	syms, paths, _ := s.analyzer.WorkspaceSymbols(ix, func(string) bool { return true })
	for i, sym := range syms {
		score, ok := matchScore(sym.Name, query)
		if !ok {
			continue
		}
		results = append(results, ranked{
			info: protocol.SymbolInformation{
				Name: sym.Name,
				Kind: symbolKind(sym.Kind),
				Location: protocol.Location{
					URI:   pathToURI(paths[i]),
					Range: s.rangeIn(paths[i], sym.Span),
				},
			},
			score: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].info.Name < results[j].info.Name
	})

	infos := make([]protocol.SymbolInformation, len(results))
	for i, r := range results {
		infos[i] = r.info
	}
	return infos, nil
}

// matchScore ranks a symbol name against a lowercased query. Substring hits
// outrank fuzzy hits; fuzzy hits below the similarity threshold are dropped.
func matchScore(name, query string) (float32, bool) {
	if query == "" {
		return 1, true
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, query) {
		// Earlier and tighter matches score higher.
		return 2 - float32(strings.Index(lower, query))/float32(len(lower)+1), true
	}
	sim, err := edlib.StringsSimilarity(lower, query, edlib.JaroWinkler)
	if err != nil || sim < fuzzyThreshold {
		return 0, false
	}
	return sim, true
}

// anyIndexer returns an indexer to answer workspace-wide queries: the root
// workspace's when initialized inside one, otherwise any running indexer.
func (s *Server) anyIndexer() *analysis.Indexer {
	if s.rootPath != "" {
		if ix := s.ensureIndexer(s.rootPath); ix != nil {
			return ix
		}
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	for _, ix := range s.indexers {
		return ix
	}
	return nil
}
