// Copyright © 2025 The gnls authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	colorFlag string
	gnBinary  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gnls",
	Short: "gnls — language intelligence for GN build files",
	Long: `gnls provides IDE features and command-line tooling for the GN
build-configuration language (BUILD.gn, *.gni, BUILDCONFIG.gn).

Getting started:
  gnls lsp                     Start the language server (stdio)
  gnls lsp --port 7998         Start the language server over TCP
  gnls check BUILD.gn          Report syntax errors and broken imports
  gnls check ./...             Check every build file under a directory
  gnls fmt -w BUILD.gn         Format a build file in place

Language overview:
  GN files describe build targets. A workspace is rooted at a .gn file
  naming the build configuration. BUILD.gn files define targets such as
  executable("name") { ... }; .gni files hold shared variables and
  templates pulled in with import("//path/file.gni"). Targets reference
  each other with labels like //dir:name. Variables assigned under every
  build configuration are tracked per branch; gnls never assumes one
  configuration over another.

Formatting delegates to the gn binary ("gn format"); point --gn at a
non-default executable when gn is not on PATH.

More information:
  Source code:     https://github.com/gntools/gnls`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gnls.yaml)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	rootCmd.PersistentFlags().StringVar(&gnBinary, "gn", "gn",
		"Path to the gn executable used for formatting.")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".gnls" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".gnls")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
