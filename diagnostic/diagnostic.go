// Copyright © 2025 The gnls authors

// Package diagnostic renders annotated source snippets for gnls CLI
// output. It is independent of the analysis package so that any command
// can use it without creating import cycles.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// SpanFromOffsets converts a byte-offset range within content into a Span
// with 1-based line and column numbers. Offsets past the end of content
// are clamped. Ranges spanning several lines highlight only their first.
func SpanFromOffsets(file string, content []byte, start, end int) Span {
	if start < 0 {
		start = 0
	}
	if start > len(content) {
		start = len(content)
	}
	if end > len(content) {
		end = len(content)
	}
	line := 1
	lineStart := 0
	for i := 0; i < start; i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col := start - lineStart + 1

	endCol := col
	if end > start {
		length := end - start
		// Clip the underline to the end of the start line.
		for i := start; i < len(content) && i < end; i++ {
			if content[i] == '\n' {
				length = i - start
				break
			}
		}
		endCol = col + length - 1
		if endCol < col {
			endCol = col
		}
	}
	return Span{File: file, Line: line, Col: col, EndCol: endCol}
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string
}
