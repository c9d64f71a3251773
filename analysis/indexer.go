// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// IndexStatus reports how complete the workspace index is.
type IndexStatus int

const (
	// IndexPending means indexing has not started.
	IndexPending IndexStatus = iota
	// IndexPartial means a walk is in flight or was cancelled; queries see
	// only the files analyzed so far.
	IndexPartial
	// IndexComplete means a full walk finished.
	IndexComplete
)

func (s IndexStatus) String() string {
	switch s {
	case IndexPartial:
		return "partial"
	case IndexComplete:
		return "complete"
	}
	return "pending"
}

// Indexer walks a workspace in the background and analyzes every build file
// through the shared cache, so workspace-wide queries have a complete view.
// Runs are idempotent: files whose cached analysis is still fresh are
// re-verified, not re-parsed. Queries needing completeness wait on Done() or
// proceed against the partial index.
type Indexer struct {
	analyzer *Analyzer
	ws       *Workspace

	mu      sync.Mutex
	status  IndexStatus
	files   []string
	done    chan struct{}
	cancel  context.CancelFunc
	running bool
}

func NewIndexer(analyzer *Analyzer, ws *Workspace) *Indexer {
	done := make(chan struct{})
	close(done)
	return &Indexer{analyzer: analyzer, ws: ws, done: done}
}

// Workspace returns the indexed workspace.
func (ix *Indexer) Workspace() *Workspace { return ix.ws }

// Status returns the current index completeness.
func (ix *Indexer) Status() IndexStatus {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.status
}

// Files returns a snapshot of the build files discovered so far.
func (ix *Indexer) Files() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return append([]string(nil), ix.files...)
}

// Done returns a channel closed when no indexing run is in flight. Callers
// that need workspace completeness select on it together with their own
// context so a slow walk can only delay them, never wedge them.
func (ix *Indexer) Done() <-chan struct{} {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.done
}

// Start launches a background indexing run if none is in flight. Re-running
// after a completed or cancelled run is allowed and only re-analyzes files
// that went stale in between.
func (ix *Indexer) Start(ctx context.Context) {
	ix.mu.Lock()
	if ix.running {
		ix.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	ix.running = true
	ix.status = IndexPartial
	ix.cancel = cancel
	ix.done = make(chan struct{})
	done := ix.done
	ix.mu.Unlock()

	go func() {
		defer close(done)
		err := ix.run(ctx)
		cancel()

		ix.mu.Lock()
		ix.running = false
		if err == nil {
			ix.status = IndexComplete
		} else {
			ix.status = IndexPartial
		}
		ix.mu.Unlock()
	}()
}

// Stop cancels the in-flight run, if any, and waits for it to wind down.
// The cache keeps everything analyzed so far.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	cancel := ix.cancel
	done := ix.done
	ix.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

func (ix *Indexer) run(ctx context.Context) error {
	files := ix.ws.BuildFiles()
	ix.mu.Lock()
	ix.files = files
	ix.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := ix.analyzer.AnalyzeFile(ctx, path)
			// A file that vanished or cannot be read degrades the index by
			// one file; it must not abort the walk.
			var ioErr *IOError
			if errors.As(err, &ioErr) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
