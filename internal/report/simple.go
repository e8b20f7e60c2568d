package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/irpress/kavosh/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Plain ASCII formatting keeps the output safe to pipe into files and
// commit messages.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether archives with no activity are shown.
	showEmpty bool

	// verbose adds a per-year breakdown beneath each archive.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show archives without activity.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the per-year breakdown for each archive.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeTotals(&sb, summary)
	w.writeArchives(&sb, summary)
	w.writePerformance(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        KAVOSH HARVEST REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:  %s\n", summary.StartedAt.Format("2006-01-02 15:04:05")))
	if !summary.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Finished: %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05")))
	}
	sb.WriteString(fmt.Sprintf("Duration: %s\n", summary.Duration().Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Archives: %d\n", len(summary.Results)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTotals(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Found:      %d\n", summary.TotalFound))
	sb.WriteString(fmt.Sprintf("  Downloaded: %d\n", summary.TotalDownloaded))
	sb.WriteString(fmt.Sprintf("  Skipped:    %d\n", summary.TotalSkipped))
	sb.WriteString(fmt.Sprintf("  Failed:     %d\n", summary.TotalFailed))
	sb.WriteString(fmt.Sprintf("  Size:       %s\n", humanBytes(summary.TotalBytes)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeArchives(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Results) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ARCHIVES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	shown := 0
	for _, r := range summary.Results {
		if r.FilesFound == 0 && len(r.Errors) == 0 && !w.showEmpty {
			continue
		}
		w.writeArchive(sb, r)
		shown++
	}

	if shown == 0 {
		sb.WriteString("  No archive activity\n\n")
	}
}

func (w *SimpleWriter) writeArchive(sb *strings.Builder, r *model.ArchiveResult) {
	sb.WriteString(fmt.Sprintf("[+] %s (%s) %s\n", r.Archive, r.TitleFa, r.Category))
	sb.WriteString(fmt.Sprintf("    downloaded %d, skipped %d, failed %d, %s in %s\n",
		r.Downloaded, r.Skipped, r.Failed, humanBytes(r.Bytes),
		r.Duration.Round(time.Second)))

	if w.verbose {
		for _, year := range sortedYears(r) {
			yc := r.Years[year]
			sb.WriteString(fmt.Sprintf("    %s: %d found, %d downloaded, %d skipped, %d failed (%s)\n",
				year, yc.Found, yc.Downloaded, yc.Skipped, yc.Failed, humanBytes(yc.Bytes)))
		}
	}

	if len(r.Errors) > 0 {
		sb.WriteString("    errors:\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("      * %s\n", e))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePerformance(sb *strings.Builder, summary *model.Summary) {
	perf := summary.Performance
	if perf == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PERFORMANCE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Peak heap:      %.1f MB\n", perf.PeakAllocMB))
	sb.WriteString(fmt.Sprintf("  Max goroutines: %d\n", perf.MaxGoroutines))
	sb.WriteString(fmt.Sprintf("  Throughput:     %.2f files/s, %.2f MB/s\n",
		perf.FilesPerSecond, perf.MBPerSecond))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by kavosh\n")
	sb.WriteString("https://github.com/irpress/kavosh\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
