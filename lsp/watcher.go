// Copyright © 2025 The gnls authors

package lsp

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gntools/gnls/analysis"
)

// diskWatcher invalidates cached analyses when build files change on disk
// outside the editor. Open documents are exempt: their in-memory content is
// authoritative and versioned by the editor.
type diskWatcher struct {
	server *Server

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped bool
}

func newDiskWatcher(s *Server) *diskWatcher {
	return &diskWatcher{server: s}
}

// watchWorkspace registers every directory of the workspace tree. fsnotify
// watches are per-directory, so new subdirectories created later are added
// when their parent reports the create event.
func (w *diskWatcher) watchWorkspace(ws *analysis.Workspace) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.watcher == nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return
		}
		w.watcher = watcher
		w.done = make(chan struct{})
		go w.run(watcher, w.done)
	}

	for _, dir := range watchDirs(ws.Root) {
		_ = w.watcher.Add(dir)
	}
}

// watchDirs returns the directories of the workspace tree worth watching:
// dot-directories and args.gn output trees hold no build inputs, matching
// the indexer's walk.
func watchDirs(root string) []string {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if _, err := os.Stat(filepath.Join(path, analysis.ArgsGNFileName)); err == nil {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

func (w *diskWatcher) run(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *diskWatcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(event.Name)

	// A new directory may hold build files; start watching it.
	if event.Op&fsnotify.Create != 0 {
		w.mu.Lock()
		if w.watcher != nil {
			_ = w.watcher.Add(path)
		}
		w.mu.Unlock()
	}

	if !analysis.IsBuildFile(path) {
		return
	}
	if w.server.docs.IsOpen(path) {
		return
	}
	w.server.analyzer.Invalidate(path)

	// Re-analyze immediately so the file keeps answering workspace-wide
	// queries; a bare invalidation would leave it out of the index until
	// something else touched it. A deleted file stays invalidated: the
	// read fails and nothing is cached.
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		go func() {
			_, _ = w.server.analyzer.AnalyzeFile(context.Background(), path)
		}()
	}
}

func (w *diskWatcher) stop() {
	w.mu.Lock()
	watcher := w.watcher
	done := w.done
	w.watcher = nil
	w.stopped = true
	w.mu.Unlock()
	if watcher != nil {
		_ = watcher.Close()
		<-done
	}
}
