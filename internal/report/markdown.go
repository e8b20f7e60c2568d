package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/irpress/kavosh/internal/model"
)

// MarkdownWriter outputs summaries in Markdown, suitable for commit
// bodies, pull request descriptions, and wiki pages.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeArchives(md, summary)
	w.writePerformance(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Kavosh Harvest Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05")},
			{"Duration", summary.Duration().Round(time.Second).String()},
			{"Archives", strconv.Itoa(len(summary.Results))},
			{"Found", strconv.Itoa(summary.TotalFound)},
			{"Downloaded", strconv.Itoa(summary.TotalDownloaded)},
			{"Skipped", strconv.Itoa(summary.TotalSkipped)},
			{"Failed", strconv.Itoa(summary.TotalFailed)},
			{"Size", humanBytes(summary.TotalBytes)},
		},
	})
	md.PlainText("")

	if summary.TotalDownloaded > 0 && len(summary.Results) > 1 {
		w.writePieChart(md, summary)
	}
}

// writePieChart renders a mermaid chart of downloads per archive.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Downloads by Archive"),
		piechart.WithShowData(true),
	)

	for _, r := range summary.Results {
		if r.Downloaded > 0 {
			chart.LabelAndIntValue(r.Archive, uint64(r.Downloaded))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert summarizes the run outcome as a GitHub-flavored alert.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.TotalFound == 0:
		md.Note("No new files were discovered in this run.")
	case summary.TotalDownloaded == 0 && summary.TotalFailed > 0:
		md.Cautionf(
			"Every download failed. %d file(s) could not be fetched; check the error details below.",
			summary.TotalFailed,
		)
	case summary.TotalFailed > 0:
		md.Warningf(
			"%d download(s) failed and will be retried on the next run.",
			summary.TotalFailed,
		)
	default:
		md.Tip("All discovered files were downloaded successfully.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeArchives(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Archives")
	md.PlainText("")

	if len(summary.Results) == 0 {
		md.PlainText("No archives were processed.")
		md.PlainText("")
		return
	}

	for _, r := range summary.Results {
		md.H3(r.Archive + " (" + r.TitleFa + ")")
		md.PlainText("")
		w.writeYearTable(md, r)

		if len(r.Errors) > 0 {
			errs := ""
			for _, e := range r.Errors {
				errs += "- " + e + "\n"
			}
			md.Details("Errors", "\n"+errs)
			md.PlainText("")
		}
	}
}

// writeYearTable writes the per-year breakdown for one archive.
func (w *MarkdownWriter) writeYearTable(md *markdown.Markdown, r *model.ArchiveResult) {
	years := sortedYears(r)
	if len(years) == 0 {
		md.PlainText("No activity.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(years)+1)
	for _, year := range years {
		yc := r.Years[year]
		rows = append(rows, []string{
			year,
			strconv.Itoa(yc.Found),
			strconv.Itoa(yc.Downloaded),
			strconv.Itoa(yc.Skipped),
			strconv.Itoa(yc.Failed),
			humanBytes(yc.Bytes),
		})
	}
	rows = append(rows, []string{
		"**Total**",
		strconv.Itoa(r.FilesFound),
		strconv.Itoa(r.Downloaded),
		strconv.Itoa(r.Skipped),
		strconv.Itoa(r.Failed),
		"**" + humanBytes(r.Bytes) + "**",
	})

	md.Table(markdown.TableSet{
		Header: []string{"Year", "Found", "Downloaded", "Skipped", "Failed", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writePerformance(md *markdown.Markdown, summary *model.Summary) {
	perf := summary.Performance
	if perf == nil {
		return
	}

	md.H2("Performance")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Peak heap", strconv.FormatFloat(perf.PeakAllocMB, 'f', 1, 64) + " MB"},
			{"Max goroutines", strconv.Itoa(perf.MaxGoroutines)},
			{"Files/s", strconv.FormatFloat(perf.FilesPerSecond, 'f', 2, 64)},
			{"MB/s", strconv.FormatFloat(perf.MBPerSecond, 'f', 2, 64)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [kavosh](https://github.com/irpress/kavosh)*")
}
