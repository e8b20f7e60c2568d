package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/crawler"
	"github.com/irpress/kavosh/internal/log"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a directory listing and list the PDF files it links to",
		Long: `Crawl walks directory listings under the given URL, bounded by depth
and file limits, and reports every PDF it finds grouped by year.

Nothing is downloaded. Problems with individual pages are listed in the
output and never change the exit status; a partial listing is still a
useful listing.`,
		Example: `  kavosh crawl https://archive.example.ir/neshat/
  kavosh crawl --max-depth 3 --output files.txt https://archive.example.ir/neshat/1377/`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawl,
	}

	cmd.Flags().Int("max-depth", config.DefaultCrawlDepth, "Maximum directory depth below the start URL")
	cmd.Flags().Int("max-files", config.DefaultMaxFilesPerDir, "Maximum number of files collected per directory")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay, "Pause between directory listing requests")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "HTTP timeout per request")
	cmd.Flags().StringP("output", "o", "", "Write the discovered file URLs to a file, one per line")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	baseURL := args[0]

	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return fmt.Errorf("failed to get max-depth flag: %w", err)
	}
	maxFiles, err := cmd.Flags().GetInt("max-files")
	if err != nil {
		return fmt.Errorf("failed to get max-files flag: %w", err)
	}
	delay, err := cmd.Flags().GetDuration("delay")
	if err != nil {
		return fmt.Errorf("failed to get delay flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	verbose := getVerboseFlag(cmd)

	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	limits := crawler.DefaultLimits()
	limits.MaxDepth = maxDepth
	limits.MaxFilesPerDir = maxFiles
	limits.Delay = delay
	limits.Timeout = timeout

	result := crawler.New(limits, logger).Crawl(ctx, baseURL)

	printCrawlResult(cmd.OutOrStdout(), result, verbose)

	if outputPath != "" {
		if err := writeURLList(outputPath, result.Files); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d file URLs to %s\n", len(result.Files), outputPath)
	}

	return nil
}

func printCrawlResult(out io.Writer, result *crawler.Result, verbose bool) {
	fmt.Fprintf(out, "Crawl of %s finished in %s\n", result.BaseURL, result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Files found: %d\n", result.TotalFiles)
	fmt.Fprintf(out, "  Directories: %d\n", len(result.Directories))
	fmt.Fprintf(out, "  Depth limit: %d\n", result.Depth)

	if len(result.Files) > 0 {
		grouped := result.GroupByYear()
		years := make([]string, 0, len(grouped))
		for y := range grouped {
			years = append(years, y)
		}
		sort.Strings(years)

		fmt.Fprintf(out, "\nFiles by year:\n")
		for _, y := range years {
			fmt.Fprintf(out, "  %s: %d\n", y, len(grouped[y]))
			if verbose {
				for _, f := range grouped[y] {
					fmt.Fprintf(out, "    %s\n", f)
				}
			}
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nProblems (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}
}

// writeURLList writes URLs to a file, one per line.
func writeURLList(path string, urls []string) error {
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write URL list: %w", err)
	}
	return nil
}
