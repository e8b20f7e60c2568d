package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/irpress/kavosh/internal/model"
)

// JSONWriter outputs summaries as JSON for tool integration, such as the
// commit automation that turns a harvest run into a repository update.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output. When false, output is compact.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string, typically two spaces.
	indentString string

	// version wraps the summary in a versioned envelope when non-empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed output with the given prefix and
// per-level indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed output with two-space indents.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// WithVersion wraps the summary in an envelope carrying the given tool
// version and a generation timestamp.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Envelope is the versioned wrapper emitted when WithVersion is set.
type Envelope struct {
	// Version is the kavosh version that produced the summary.
	Version string `json:"version"`

	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generated_at"`

	// Summary is the harvest summary itself.
	Summary *model.Summary `json:"summary"`
}

// Write outputs the summary as JSON.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	var v any = summary
	if w.version != "" {
		v = &Envelope{
			Version:     w.version,
			GeneratedAt: time.Now(),
			Summary:     summary,
		}
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
