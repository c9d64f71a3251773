// Copyright © 2025 The gnls authors

// Package lsp implements a Language Server Protocol server for the GN build
// language. It provides diagnostics, hover, go-to-definition, references,
// completion, document and workspace symbols, document links, and
// formatting through gn format.
package lsp

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/gntools/gnls/analysis"
)

const serverName = "gnls"

// Server is the GN language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *analysis.DocumentStore
	analyzer *analysis.Analyzer
	rootURI  string
	rootPath string

	// One background indexer per workspace root, created lazily when a
	// file inside that workspace is first touched.
	indexMu  sync.Mutex
	indexers map[string]*analysis.Indexer

	// Watches non-open build files for on-disk changes.
	watcher *diskWatcher

	// gnBinary is the formatter executable. Overridable for testing.
	gnBinary string

	// Debouncer for didChange notifications.
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithGNBinary overrides the gn executable used for formatting.
func WithGNBinary(path string) Option {
	return func(s *Server) { s.gnBinary = path }
}

// New creates a new GN LSP server.
func New(opts ...Option) *Server {
	docs := analysis.NewDocumentStore()
	s := &Server{
		docs:     docs,
		analyzer: analysis.NewAnalyzer(docs),
		indexers: make(map[string]*analysis.Indexer),
		gnBinary: "gn",
		debounce: make(map[string]*time.Timer),
		exitFn:   os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	s.watcher = newDiskWatcher(s)

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentDocumentLink:   s.textDocumentDocumentLink,
		TextDocumentFormatting:     s.textDocumentFormatting,
		WorkspaceSymbol:            s.workspaceSymbol,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to full.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "_"},
	}
	capabilities.DocumentLinkProvider = &protocol.DocumentLinkOptions{}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// initialized handles the initialized notification by kicking off the
// workspace index for the root, when there is one.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	if s.rootPath != "" {
		s.ensureIndexer(s.rootPath)
	}
	return nil
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	// Cancel any pending debounce timers.
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()

	s.indexMu.Lock()
	for _, ix := range s.indexers {
		ix.Stop()
	}
	s.indexMu.Unlock()

	s.watcher.stop()
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// ensureIndexer returns the background indexer for the workspace containing
// path, starting one the first time that workspace is seen. Returns nil for
// files outside any workspace.
func (s *Server) ensureIndexer(path string) *analysis.Indexer {
	ws := analysis.FindWorkspace(path)
	if ws == nil {
		return nil
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if ix, ok := s.indexers[ws.Root]; ok {
		return ix
	}
	ix := analysis.NewIndexer(s.analyzer, ws)
	s.indexers[ws.Root] = ix
	ix.Start(context.Background())
	s.watcher.watchWorkspace(ws)
	return ix
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	notify := s.notify
	s.notifyMu.Unlock()
	if notify != nil {
		notify(method, params)
	}
}

// analyzedDocument returns the analysis for an open document by URI, or nil
// when the file cannot be read.
func (s *Server) analyzedDocument(uri string) *analysis.AnalyzedFile {
	path := uriToPath(uri)
	s.ensureIndexer(path)
	file, err := s.analyzer.AnalyzeFile(context.Background(), path)
	if err != nil {
		return nil
	}
	return file
}
