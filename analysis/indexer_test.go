// Copyright © 2025 The gnls authors

package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForIndex(t *testing.T, ix *Indexer) {
	t.Helper()
	select {
	case <-ix.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("indexing did not finish")
	}
}

func TestIndexer_Walk(t *testing.T) {
	a := newTestAnalyzer()
	ws := FindWorkspace(td(t, "simple"))
	require.NotNil(t, ws)

	ix := NewIndexer(a, ws)
	assert.Equal(t, IndexPending, ix.Status())

	ix.Start(context.Background())
	waitForIndex(t, ix)
	assert.Equal(t, IndexComplete, ix.Status())

	// Everything under the root is cached; the output directory is not.
	assert.NotNil(t, a.Cached(td(t, "simple", "BUILD.gn")))
	assert.NotNil(t, a.Cached(td(t, "simple", "lib", "BUILD.gn")))
	assert.NotNil(t, a.Cached(td(t, "simple", "build", "config.gni")))
	assert.Nil(t, a.Cached(td(t, "simple", "out", "BUILD.gn")))
	assert.NotEmpty(t, ix.Files())
}

func TestIndexer_IdempotentRerun(t *testing.T) {
	a := newTestAnalyzer()
	ws := FindWorkspace(td(t, "simple"))
	require.NotNil(t, ws)

	ix := NewIndexer(a, ws)
	ix.Start(context.Background())
	waitForIndex(t, ix)
	first := a.Cached(td(t, "simple", "BUILD.gn"))
	require.NotNil(t, first)

	ix.Start(context.Background())
	waitForIndex(t, ix)
	assert.Equal(t, IndexComplete, ix.Status())
	assert.Same(t, first, a.Cached(td(t, "simple", "BUILD.gn")),
		"a fresh file must not be re-analyzed by a re-run")
}

func TestIndexer_Cancel(t *testing.T) {
	a := newTestAnalyzer()
	ws := FindWorkspace(td(t, "simple"))
	require.NotNil(t, ws)

	ix := NewIndexer(a, ws)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ix.Start(ctx)
	waitForIndex(t, ix)

	// A cancelled run leaves a partial index; queries still work on it.
	assert.Equal(t, IndexPartial, ix.Status())
	ix.Start(context.Background())
	waitForIndex(t, ix)
	assert.Equal(t, IndexComplete, ix.Status())
}

func TestIndexer_Stop(t *testing.T) {
	a := newTestAnalyzer()
	ws := FindWorkspace(td(t, "simple"))
	require.NotNil(t, ws)

	ix := NewIndexer(a, ws)
	ix.Start(context.Background())
	ix.Stop()
	assert.NotEqual(t, IndexPending, ix.Status())
}
