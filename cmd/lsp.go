// Copyright © 2025 The gnls authors

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/gntools/gnls/lsp"
	"github.com/spf13/cobra"
)

// LSPCommand creates the "lsp" cobra command.
func LSPCommand() *cobra.Command {
	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the GN Language Server Protocol server",
		Long: `Start an LSP server for GN build files.

The language server provides real-time IDE features including
diagnostics, hover documentation, go-to-definition, find references,
completion, document and workspace symbols, document links, and
formatting through gn format. A background indexer walks the workspace
so that cross-file queries work shortly after startup.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  gnls lsp                           Start with stdio transport
  gnls lsp --stdio                   Same as above (explicit)
  gnls lsp --port 7998               Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "gnls lsp --stdio" for BUILD.gn, .gn, and .gni files.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			srv := lsp.New(lsp.WithGNBinary(gnBinary))

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Printf("gnls LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			} else {
				if err := srv.RunStdio(); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
