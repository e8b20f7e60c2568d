package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/irpress/kavosh/internal/model"
	"github.com/irpress/kavosh/internal/persian"
)

// Writer renders a harvest summary to some destination.
//
// Implementations write whole summaries rather than raw bytes, so the same
// summary can go to the terminal, a file, or both without the caller
// knowing the format.
type Writer interface {
	// Write renders the summary and returns the number of bytes written.
	Write(summary *model.Summary) (int, error)
}

// MultiWriter fans one summary out to several Writers. It is used to show
// a report on the terminal while also saving it to a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the summary with every configured Writer in order. It
// returns the total bytes written and stops on the first error.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedYears returns the year keys of an archive result in ascending
// order. Keys compare on their digit-folded form so Persian and ASCII
// digits interleave correctly.
func sortedYears(r *model.ArchiveResult) []string {
	years := make([]string, 0, len(r.Years))
	for year := range r.Years {
		years = append(years, year)
	}
	sort.Slice(years, func(i, j int) bool {
		fi, fj := persian.FoldDigits(years[i]), persian.FoldDigits(years[j])
		if fi != fj {
			return fi < fj
		}
		return years[i] < years[j]
	})
	return years
}

// humanBytes formats a byte count for display: 512 B, 14.2 KB, 1.3 GB.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
