package classify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/irpress/kavosh/internal/crawler"
	"github.com/irpress/kavosh/internal/persian"
)

// Defaults for content probing.
const (
	DefaultContentTimeout = 10 * time.Second
	DefaultMaxBodySize    = 5 * 1024 * 1024
	DefaultUserAgent      = "kavosh/1.0 (+https://github.com/irpress/kavosh)"
)

// Classifier analyzes URLs against the pattern tables and, optionally,
// against the content they serve.
type Classifier struct {
	// client performs content probes.
	client *http.Client

	// userAgent is sent with every probe request.
	userAgent string

	// maxBodySize limits how much of a probed body is read.
	maxBodySize int64

	// timeout bounds a single content probe.
	timeout time.Duration

	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithUserAgent sets a custom User-Agent header for content probes.
func WithUserAgent(ua string) Option {
	return func(c *Classifier) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum probed body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Classifier) {
		c.maxBodySize = size
	}
}

// WithContentTimeout sets the per-probe timeout.
func WithContentTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = l
	}
}

// NewClassifier creates a Classifier with the default probe settings.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		client:      &http.Client{},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		timeout:     DefaultContentTimeout,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Analyze classifies a single URL. The lexical pass always runs; when
// checkContent is true and the lexical result is Unknown or
// DirectoryListing, the URL is fetched once and its body inspected too.
// Probe failures are swallowed: the lexical result stands.
func (c *Classifier) Analyze(ctx context.Context, rawURL string, checkContent bool) Analysis {
	a := Analysis{
		URL:            rawURL,
		Type:           Unknown,
		Confidence:     0,
		SuggestedDepth: 3,
		Patterns:       []string{},
		Metadata:       map[string][]string{},
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errorAnalysis(rawURL, err)
	}

	path := persian.FoldDigits(strings.ToLower(u.Path))
	lexicalPass(&a, path)

	if checkContent && (a.Type == Unknown || a.Type == DirectoryListing) {
		if f := c.probeContent(ctx, rawURL); f != nil {
			a.Patterns = append(a.Patterns, f.patterns...)
			if f.urlType != Unknown {
				a.Type = f.urlType
				a.Confidence = max(a.Confidence, f.confidence)
			}
			for k, v := range f.metadata {
				a.Metadata[k] = v
			}
		}
	}

	// Last resort: an extension-less path is probably a directory.
	if a.Type == Unknown && !extensionPattern.MatchString(path) {
		a.mark(DirectoryListing, 0.3, 2)
		a.Patterns = append(a.Patterns, "fallback: no_file_extension")
	}

	return a
}

// AnalyzeBatch classifies every URL in order. Cancellation does not
// shorten the result: remaining URLs get error entries so callers can
// still index results by position.
func (c *Classifier) AnalyzeBatch(ctx context.Context, urls []string, checkContent bool) []Analysis {
	results := make([]Analysis, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			results = append(results, errorAnalysis(u, err))
			continue
		}
		results = append(results, c.Analyze(ctx, u, checkContent))
	}
	return results
}

// lexicalPass runs the pattern groups over the path. A file extension
// decides immediately; otherwise directory, archive, and year groups each
// override the one before, and months set the type only when nothing else
// matched.
func lexicalPass(a *Analysis, path string) {
	for _, re := range filePatterns {
		if re.MatchString(path) {
			a.mark(DirectFile, 0.9, 0)
			a.Patterns = append(a.Patterns, "file_pattern: "+re.String())
			break
		}
	}
	if a.Type != Unknown {
		return
	}

	for _, re := range directoryPatterns {
		if re.MatchString(path) {
			a.mark(DirectoryListing, 0.7, 2)
			a.Patterns = append(a.Patterns, "directory_pattern: "+re.String())
			break
		}
	}

	for _, re := range archivePatterns {
		if re.MatchString(path) {
			a.mark(ArchiveRoot, 0.8, 4)
			a.Patterns = append(a.Patterns, "archive_pattern: "+re.String())
			break
		}
	}

	var years []string
	for _, re := range yearPatterns {
		years = append(years, re.FindAllString(path, -1)...)
	}
	if len(years) > 0 {
		a.mark(YearDirectory, 0.6, 2)
		a.Patterns = append(a.Patterns, fmt.Sprintf("year_pattern: %v", years))
		a.Metadata["years"] = years
	}

	var months []string
	for _, re := range monthPatterns {
		months = append(months, re.FindAllString(path, -1)...)
	}
	if len(months) > 0 {
		a.Patterns = append(a.Patterns, fmt.Sprintf("month_pattern: %v", months))
		a.Metadata["months"] = months
		if a.Type == Unknown {
			a.mark(MonthDirectory, 0.5, 1)
		}
	}
}

// SuggestLimits turns an analysis into crawl limits fitted to what the
// URL appears to be. Low-confidence results are clamped to a shallow,
// polite crawl.
func SuggestLimits(a Analysis) crawler.Limits {
	l := crawler.Limits{
		MaxDepth:       a.SuggestedDepth,
		MaxFilesPerDir: 1000,
		MaxTotalFiles:  10000,
		Delay:          1 * time.Second,
	}

	switch a.Type {
	case DirectFile:
		l.MaxDepth = 0
		l.MaxFilesPerDir = 1
		l.MaxTotalFiles = 1
	case ArchiveRoot:
		l.MaxDepth = 5
		l.MaxFilesPerDir = 2000
		l.MaxTotalFiles = 50000
		l.Delay = 500 * time.Millisecond
	case YearDirectory:
		l.MaxDepth = 3
		l.MaxFilesPerDir = 500
		l.MaxTotalFiles = 5000
	case MonthDirectory:
		l.MaxDepth = 2
		l.MaxFilesPerDir = 100
		l.MaxTotalFiles = 1000
	}

	if a.Confidence < 0.5 {
		l.MaxDepth = min(l.MaxDepth, 2)
		l.MaxTotalFiles = min(l.MaxTotalFiles, 1000)
		l.Delay = max(l.Delay, 1*time.Second)
	}

	return l
}
