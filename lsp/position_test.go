// Copyright © 2025 The gnls authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/parser"
)

func pos(line, char int) protocol.Position {
	return protocol.Position{Line: safeUint(line), Character: safeUint(char)}
}

func TestLineIndex_Position(t *testing.T) {
	ix := NewLineIndex("ab\ncd\n\nef")
	tests := []struct {
		offset int
		want   protocol.Position
	}{
		{0, pos(0, 0)},
		{1, pos(0, 1)},
		{2, pos(0, 2)}, // on the newline
		{3, pos(1, 0)},
		{5, pos(1, 2)},
		{6, pos(2, 0)}, // empty line
		{7, pos(3, 0)},
		{9, pos(3, 2)}, // end of input
	}
	for _, test := range tests {
		assert.Equal(t, test.want, ix.Position(test.offset), "offset %d", test.offset)
	}
}

func TestLineIndex_Offset(t *testing.T) {
	ix := NewLineIndex("ab\ncd\n\nef")
	tests := []struct {
		pos  protocol.Position
		want int
	}{
		{pos(0, 0), 0},
		{pos(0, 2), 2},
		{pos(1, 0), 3},
		{pos(1, 1), 4},
		{pos(2, 0), 6},
		{pos(3, 2), 9},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, ix.Offset(test.pos), "position %v", test.pos)
	}
}

func TestLineIndex_ClampsOutOfRange(t *testing.T) {
	ix := NewLineIndex("ab\ncd")
	assert.Equal(t, pos(0, 0), ix.Position(-1))
	assert.Equal(t, pos(1, 2), ix.Position(100))
	assert.Equal(t, 2, ix.Offset(pos(0, 50)), "past end of line clamps to line end")
	assert.Equal(t, 5, ix.Offset(pos(9, 0)), "past last line clamps to input end")
}

func TestLineIndex_UTF16(t *testing.T) {
	// "é" is one UTF-16 unit but two bytes; "𝄞" is two UTF-16 units and
	// four bytes.
	src := "é = 1\nx = \"𝄞\"\ny = 2"
	ix := NewLineIndex(src)

	assert.Equal(t, pos(0, 1), ix.Position(2), "after the two-byte rune")
	assert.Equal(t, 2, ix.Offset(pos(0, 1)))

	// Offset just past the clef on line 1. Line 1 starts at byte 7; the
	// clef sits after x(1) space(1) =(1) space(1) quote(1) and spans four
	// bytes, so the offset is 7+5+4 = 16. In UTF-16 units that is 5+2 = 7.
	assert.Equal(t, pos(1, 7), ix.Position(16))
	assert.Equal(t, 16, ix.Offset(pos(1, 7)))

	// Round trip for every byte offset that starts a rune.
	for offset := range src {
		p := ix.Position(offset)
		assert.Equal(t, offset, ix.Offset(p), "offset %d", offset)
	}
}

func TestLineIndex_Range(t *testing.T) {
	ix := NewLineIndex("abc\ndef")
	r := ix.Range(parser.Span{Start: 1, End: 6})
	assert.Equal(t, pos(0, 1), r.Start)
	assert.Equal(t, pos(1, 2), r.End)
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/a/BUILD.gn", uriToPath("file:///a/BUILD.gn"))
	assert.Equal(t, "/a/BUILD.gn", uriToPath("/a/BUILD.gn"))
	assert.Equal(t, "file:///a/BUILD.gn", pathToURI("/a/BUILD.gn"))
}
