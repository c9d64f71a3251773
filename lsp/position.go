// Copyright © 2025 The gnls authors

package lsp

import (
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/parser"
)

// LineIndex converts between byte offsets into a document and the 0-based
// line/UTF-16-character positions the protocol uses. Built once per
// conversion batch from the same content the offsets were produced from.
type LineIndex struct {
	content string
	// starts[i] is the byte offset of the first character of line i.
	starts []int
}

func NewLineIndex(content string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{content: content, starts: starts}
}

// Position converts a byte offset to a protocol position. Offsets out of
// range clamp to the document bounds.
func (ix *LineIndex) Position(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(ix.content) {
		offset = len(ix.content)
	}
	line := sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	}) - 1
	prefix := ix.content[ix.starts[line]:offset]
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(utf16Len(prefix)),
	}
}

// Offset converts a protocol position to a byte offset. Positions past the
// end of a line clamp to the line end.
func (ix *LineIndex) Offset(pos protocol.Position) int {
	line := int(pos.Line)
	if line < 0 {
		return 0
	}
	if line >= len(ix.starts) {
		return len(ix.content)
	}
	start := ix.starts[line]
	end := len(ix.content)
	if line+1 < len(ix.starts) {
		end = ix.starts[line+1] - 1 // exclude the newline
	}

	rest := ix.content[start:end]
	remaining := int(pos.Character)
	offset := start
	for remaining > 0 && len(rest) > 0 {
		r, size := utf8.DecodeRuneInString(rest)
		units := 1
		if r > 0xFFFF {
			units = 2
		}
		if units > remaining {
			break
		}
		remaining -= units
		offset += size
		rest = rest[size:]
	}
	return offset
}

// Range converts a byte span to a protocol range.
func (ix *LineIndex) Range(span parser.Span) protocol.Range {
	return protocol.Range{
		Start: ix.Position(span.Start),
		End:   ix.Position(span.End),
	}
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
