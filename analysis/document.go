// Copyright © 2025 The gnls authors

// Package analysis implements the semantic core of the GN language server:
// per-file analysis with a shared cache, environment resolution across the
// import graph, and the background workspace indexer.
package analysis

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// IOError reports that a file could not be read. It is the only failure the
// document store produces; analysis results are never cached for a path that
// failed to read, so a transient error does not poison the cache.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an IOError for a missing file.
func IsNotFound(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr) && errors.Is(ioErr.Err, os.ErrNotExist)
}

// DocumentVersion identifies one revision of a file's content. Open
// documents are versioned by the editor's monotonically increasing revision
// counter; closed documents by their disk modification time.
type DocumentVersion struct {
	InMemory bool
	Revision int32     // editor revision, when InMemory
	ModTime  time.Time // disk mtime, when !InMemory
}

func (v DocumentVersion) String() string {
	if v.InMemory {
		return fmt.Sprintf("open:%d", v.Revision)
	}
	return fmt.Sprintf("disk:%d", v.ModTime.UnixNano())
}

// Document is one revision of a file's content.
type Document struct {
	Path    string
	Content []byte
	Version DocumentVersion
}

// DocumentStore owns file contents. Documents the editor has open live in
// memory and are authoritative over whatever is on disk; all other reads
// fall through to the filesystem. Reads are synchronous and never block on
// anything but the disk itself.
type DocumentStore struct {
	mu   sync.RWMutex
	open map[string]*Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{open: make(map[string]*Document)}
}

// Open records an editor-opened document. The in-memory content wins over
// disk from now until Close, even if the disk copy is newer.
func (s *DocumentStore) Open(path, text string, revision int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[path] = &Document{
		Path:    path,
		Content: []byte(text),
		Version: DocumentVersion{InMemory: true, Revision: revision},
	}
}

// Change replaces the full content of an open document. Unknown paths are
// treated as an open, which keeps the store consistent if a change
// notification arrives before the open was seen.
func (s *DocumentStore) Change(path, text string, revision int32) {
	s.Open(path, text, revision)
}

// Close evicts the in-memory copy; subsequent reads come from disk.
func (s *DocumentStore) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, path)
}

// IsOpen reports whether path is an editor-open document.
func (s *DocumentStore) IsOpen(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.open[path]
	return ok
}

// OpenPaths returns the paths of all editor-open documents.
func (s *DocumentStore) OpenPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.open))
	for p := range s.open {
		paths = append(paths, p)
	}
	return paths
}

// Read returns the current content of path: the open document if there is
// one, the disk copy otherwise. Failures are *IOError.
func (s *DocumentStore) Read(path string) (*Document, error) {
	s.mu.RLock()
	doc, ok := s.open[path]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return &Document{
		Path:    path,
		Content: content,
		Version: DocumentVersion{ModTime: info.ModTime()},
	}, nil
}

// Version returns the current revision of path without reading its content.
// Used for freshness checks before deciding whether a cached analysis can be
// reused.
func (s *DocumentStore) Version(path string) (DocumentVersion, error) {
	s.mu.RLock()
	doc, ok := s.open[path]
	s.mu.RUnlock()
	if ok {
		return doc.Version, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return DocumentVersion{}, &IOError{Path: path, Err: err}
	}
	return DocumentVersion{ModTime: info.ModTime()}, nil
}
