package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/irpress/kavosh/internal/classify"
	"github.com/irpress/kavosh/internal/crawler"
	"github.com/irpress/kavosh/internal/log"
)

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <url>...",
		Short: "Classify archive URLs and suggest crawl limits",
		Long: `Classify inspects the shape of each URL (direct file, directory
listing, archive root, year or month directory) and suggests crawl
limits for it. With --content the classifier also issues HTTP requests
and inspects the responses to sharpen the result.`,
		Example: `  kavosh classify https://archive.example.ir/neshat/1377/
  kavosh classify --content --json https://archive.example.ir/hamshahri.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().Bool("content", false, "Probe URLs over HTTP to refine the classification")
	cmd.Flags().Bool("json", false, "Print the analyses as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	checkContent, err := cmd.Flags().GetBool("content")
	if err != nil {
		return fmt.Errorf("failed to get content flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}
	verbose := getVerboseFlag(cmd)

	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	classifier := classify.NewClassifier(classify.WithLogger(logger))
	analyses := classifier.AnalyzeBatch(ctx, args, checkContent)

	if asJSON {
		return printClassifyJSON(cmd.OutOrStdout(), analyses)
	}
	printClassifyText(cmd.OutOrStdout(), analyses)
	return nil
}

// classification pairs an analysis with the crawl limits suggested for
// it, for JSON output.
type classification struct {
	classify.Analysis
	SuggestedLimits crawler.Limits `json:"suggested_limits"`
}

func printClassifyJSON(out io.Writer, analyses []classify.Analysis) error {
	results := make([]classification, 0, len(analyses))
	for _, a := range analyses {
		results = append(results, classification{
			Analysis:        a,
			SuggestedLimits: classify.SuggestLimits(a),
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode analyses: %w", err)
	}
	return nil
}

func printClassifyText(out io.Writer, analyses []classify.Analysis) {
	for i, a := range analyses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		limits := classify.SuggestLimits(a)

		fmt.Fprintf(out, "%s\n", a.URL)
		fmt.Fprintf(out, "  Type:       %s (confidence %.2f)\n", a.Type, a.Confidence)
		if len(a.Patterns) > 0 {
			fmt.Fprintf(out, "  Patterns:   %s\n", strings.Join(a.Patterns, ", "))
		}
		for _, key := range sortedMetadataKeys(a.Metadata) {
			fmt.Fprintf(out, "  %-11s %s\n", key+":", strings.Join(a.Metadata[key], ", "))
		}
		fmt.Fprintf(out, "  Suggested:  depth %d, %d files/dir, %d files total, %s delay\n",
			limits.MaxDepth, limits.MaxFilesPerDir, limits.MaxTotalFiles, limits.Delay)
	}
}

func sortedMetadataKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
