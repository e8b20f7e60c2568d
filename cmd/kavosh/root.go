// Package main provides the entry point for the kavosh CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for kavosh.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kavosh",
		Short: "Harvester for Iranian newspaper PDF archives",
		Long: `Kavosh downloads digitized Iranian newspapers from public web archives.

It reads archive definitions from urls.yml, classifies each seed URL,
crawls directory listings for PDF issues, downloads them into a
category/folder/year tree, and regenerates the bilingual README indexes.
Download state is kept in a local SQLite database so interrupted runs
resume where they left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
