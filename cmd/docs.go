// Copyright © 2025 The gnls authors

package cmd

import (
	"fmt"

	"github.com/gntools/gnls/docs"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print the GN language reference",
	Long: `Print the bundled GN language reference to stdout.

The reference covers the build file kinds, syntax, label and path
forms, and the scoping rules gnls applies during analysis. Pipe it
through a pager or a markdown renderer as desired:

  gnls docs | less
  gnls docs | glow -`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Print(docs.LangGuide)
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
