// Copyright © 2025 The gnls authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gntools/gnls/analysis"
	"github.com/gntools/gnls/diagnostic"
	"github.com/spf13/cobra"
)

var (
	checkJSON     bool
	checkNoWarn   bool
	checkExcludes []string
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [files...]",
	Short: "Report syntax errors and broken imports in GN build files",
	Long: `Check GN build files for problems without running a build.

Each file is parsed and analyzed: syntax errors are reported as errors,
imports that do not resolve to a readable file as warnings. Analysis is
configuration-agnostic, so code under every if/else branch is checked.

With no files, reads from stdin. A directory argument ending in /...
expands to every build file under it (BUILD.gn, BUILDCONFIG.gn, .gn,
*.gni; generated args.gn files are never build inputs).

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

Examples:
  gnls check BUILD.gn                    # Check a single file
  gnls check ./...                       # Check a whole tree
  gnls check --json BUILD.gn             # Output diagnostics as JSON
  gnls check --no-warn ./...             # Errors only
  gnls check --exclude='third_party' ./...  # Skip a directory by name
  cat BUILD.gn | gnls check              # Check from stdin`,
	Run: func(cmd *cobra.Command, args []string) {
		docs := analysis.NewDocumentStore()
		analyzer := analysis.NewAnalyzer(docs)

		if len(args) == 0 {
			if err := checkStdin(docs, analyzer); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			return
		}

		expanded, err := expandArgs(args, checkExcludes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		var allDiags []diagnostic.Diagnostic
		for _, path := range expanded {
			diags, err := checkFile(docs, analyzer, path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			allDiags = append(allDiags, diags...)
		}

		reportAndExit(allDiags)
	},
}

func checkFile(docs *analysis.DocumentStore, analyzer *analysis.Analyzer, path string) ([]diagnostic.Diagnostic, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file, err := analyzer.AnalyzeFile(context.Background(), abs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fileDiagnostics(docs, file), nil
}

func checkStdin(docs *analysis.DocumentStore, analyzer *analysis.Analyzer) error {
	src, err := readStdin()
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	// Register the content as an open document so analysis reads it
	// instead of the filesystem.
	docs.Open("<stdin>", string(src), 1)
	file, err := analyzer.AnalyzeFile(context.Background(), "<stdin>")
	if err != nil {
		return err
	}
	reportAndExit(fileDiagnostics(docs, file))
	return nil
}

// reportAndExit renders diagnostics and exits 1 when any were found.
// Warnings are dropped first under --no-warn.
func reportAndExit(diags []diagnostic.Diagnostic) {
	if checkNoWarn {
		var errsOnly []diagnostic.Diagnostic
		for _, d := range diags {
			if d.Severity == diagnostic.SeverityError {
				errsOnly = append(errsOnly, d)
			}
		}
		diags = errsOnly
	}

	if len(diags) == 0 {
		return
	}

	if checkJSON {
		if err := diagnostic.FormatJSON(os.Stdout, diags); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	} else {
		renderDiagnostics(diags)
	}
	os.Exit(1)
}

func readStdin() ([]byte, error) {
	return os.ReadFile("/dev/stdin")
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output diagnostics as JSON.")
	checkCmd.Flags().BoolVar(&checkNoWarn, "no-warn", false,
		"Report errors only, suppressing warnings.")
	checkCmd.Flags().StringArrayVar(&checkExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}
