package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/irpress/kavosh/internal/classify"
	"github.com/irpress/kavosh/internal/crawler"
	"github.com/irpress/kavosh/internal/database"
	"github.com/irpress/kavosh/internal/fetch"
	"github.com/irpress/kavosh/internal/model"
	"github.com/irpress/kavosh/internal/persian"
	"github.com/irpress/kavosh/internal/report"
)

// ClassifyStep analyzes every seed URL of the archive so later steps
// know which seeds are direct file links and which need crawling.
type ClassifyStep struct {
	classifier   *classify.Classifier
	checkContent bool
	logger       *slog.Logger
}

// ClassifyOption configures a ClassifyStep.
type ClassifyOption func(*ClassifyStep)

// WithClassifyContent enables content probing during classification. Off
// by default: lexical analysis alone is enough for well-named archives
// and costs no requests.
func WithClassifyContent(check bool) ClassifyOption {
	return func(s *ClassifyStep) {
		s.checkContent = check
	}
}

// WithClassifyLogger sets a custom logger for the step.
func WithClassifyLogger(logger *slog.Logger) ClassifyOption {
	return func(s *ClassifyStep) {
		s.logger = logger
	}
}

// NewClassifyStep creates a ClassifyStep. A nil classifier gets the
// default one.
func NewClassifyStep(classifier *classify.Classifier, opts ...ClassifyOption) *ClassifyStep {
	s := &ClassifyStep{
		classifier: classifier,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.classifier == nil {
		s.classifier = classify.NewClassifier()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do classifies all seed URLs and stores the analyses on the job.
func (s *ClassifyStep) Do(ctx context.Context, job *Job) error {
	var seeds []string
	for _, year := range job.Archive.SortedYears() {
		seeds = append(seeds, job.Archive.Years[year]...)
	}

	if len(seeds) == 0 {
		s.logger.Warn("archive has no seed URLs", "archive", job.Folder())
		return nil
	}

	for _, a := range s.classifier.AnalyzeBatch(ctx, seeds, s.checkContent) {
		job.Analyses[a.URL] = a

		s.logger.Debug("classified seed URL",
			"archive", job.Folder(),
			"url", a.URL,
			"type", a.Type.String(),
			"confidence", a.Confidence,
		)
	}

	return nil
}

// SessionRecorder persists crawl session summaries. *database.StateDB
// satisfies it.
type SessionRecorder interface {
	RecordSession(ctx context.Context, rec *database.SessionRecord) (string, error)
}

// CrawlStep expands the archive's seed URLs into concrete file URLs.
// Seeds classified as direct file links pass through untouched; the
// rest are crawled with the classifier's suggested limits merged under
// the configured caps.
type CrawlStep struct {
	limits   crawler.Limits
	sessions SessionRecorder
	logger   *slog.Logger
}

// CrawlOption configures a CrawlStep.
type CrawlOption func(*CrawlStep)

// WithCrawlSessions records one session row per crawled seed for later
// inspection with the status command.
func WithCrawlSessions(sessions SessionRecorder) CrawlOption {
	return func(s *CrawlStep) {
		s.sessions = sessions
	}
}

// WithCrawlLogger sets a custom logger for the step.
func WithCrawlLogger(logger *slog.Logger) CrawlOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a CrawlStep crawling with the given limits.
func NewCrawlStep(limits crawler.Limits, opts ...CrawlOption) *CrawlStep {
	s := &CrawlStep{
		limits: limits,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do fills job.Files with the downloadable URLs found under each seed,
// bucketed by the seed's publication year. Crawl errors accumulate on
// the result; they never abort the job.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	seen := make(map[string]bool)

	for _, year := range job.Archive.SortedYears() {
		foldedYear := persian.FoldDigits(year)

		for _, seed := range job.Archive.Years[year] {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			analysis, classified := job.Analyses[seed]

			// A direct file link is itself the discovery.
			if classified && analysis.Type == classify.DirectFile {
				if !seen[seed] {
					seen[seed] = true
					job.Files[foldedYear] = append(job.Files[foldedYear], seed)
					job.Result.RecordFound(foldedYear, 1)
				}
				continue
			}

			limits := s.limits
			if classified {
				limits = mergedLimits(s.limits, classify.SuggestLimits(analysis))
			}

			result := crawler.New(limits, s.logger).Crawl(ctx, seed)

			for _, e := range result.Errors {
				job.Result.AddError(fmt.Sprintf("crawl %s: %s", seed, e))
			}

			found := 0
			for _, f := range result.Files {
				if seen[f] {
					continue
				}
				seen[f] = true
				job.Files[foldedYear] = append(job.Files[foldedYear], f)
				found++
			}
			job.Result.RecordFound(foldedYear, found)

			s.logger.Info("crawl finished",
				"archive", job.Folder(),
				"url", seed,
				"year", foldedYear,
				"files", found,
				"directories", len(result.Directories),
				"errors", len(result.Errors),
				"duration", result.Duration,
			)

			if s.sessions == nil {
				continue
			}
			rec := &database.SessionRecord{
				BaseURL:    seed,
				Archive:    job.Folder(),
				FilesFound: len(result.Files),
				DirsFound:  len(result.Directories),
				ErrorCount: len(result.Errors),
				Depth:      result.Depth,
				Duration:   result.Duration,
			}
			if _, err := s.sessions.RecordSession(ctx, rec); err != nil {
				s.logger.Warn("failed to record crawl session",
					"archive", job.Folder(),
					"url", seed,
					"error", err,
				)
			}
		}
	}

	return nil
}

// mergedLimits tightens the configured limits with the classifier's
// suggestion, taking the smaller of each positive cap. Pacing and
// timeout always stay as configured.
func mergedLimits(configured, suggested crawler.Limits) crawler.Limits {
	merged := configured
	merged.MaxDepth = minPositive(configured.MaxDepth, suggested.MaxDepth)
	merged.MaxFilesPerDir = minPositive(configured.MaxFilesPerDir, suggested.MaxFilesPerDir)
	merged.MaxTotalFiles = minPositive(configured.MaxTotalFiles, suggested.MaxTotalFiles)
	return merged
}

func minPositive(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	case b < a:
		return b
	}
	return a
}

// DownloadState answers whether a URL was fetched before and persists
// the outcome of new attempts. *database.StateDB satisfies it.
type DownloadState interface {
	IsDownloaded(ctx context.Context, archive, rawURL string) (bool, error)
	RecordDownload(ctx context.Context, rec *database.DownloadRecord) (int64, error)
}

// saneBasename matches source file names worth preserving: ASCII,
// no escaping needed, clearly a PDF.
var saneBasename = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9._-]{0,98}\.pdf$`)

// DownloadStep fetches every discovered file into the
// category/folder/year tree, naming files by the archive's category
// rules and recording outcomes in the state database.
type DownloadStep struct {
	fetcher *fetch.Fetcher
	state   DownloadState
	logger  *slog.Logger

	// now stamps dated issue names. Overridden in tests.
	now func() time.Time
}

// DownloadOption configures a DownloadStep.
type DownloadOption func(*DownloadStep)

// WithDownloadState enables skip-if-downloaded checks and outcome
// persistence. Without it every run fetches from scratch, relying only
// on files already present on disk.
func WithDownloadState(state DownloadState) DownloadOption {
	return func(s *DownloadStep) {
		s.state = state
	}
}

// WithDownloadLogger sets a custom logger for the step.
func WithDownloadLogger(logger *slog.Logger) DownloadOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates a DownloadStep around the fetcher.
func NewDownloadStep(fetcher *fetch.Fetcher, opts ...DownloadOption) *DownloadStep {
	s := &DownloadStep{
		fetcher: fetcher,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do downloads all files in job.Files. Individual failures are recorded
// and the remaining files still download.
func (s *DownloadStep) Do(ctx context.Context, job *Job) error {
	category := model.Category(job.Archive.Category)
	folder := job.Folder()

	years := make([]string, 0, len(job.Files))
	for year := range job.Files {
		years = append(years, year)
	}
	sort.Strings(years)

	for _, year := range years {
		urls := job.Files[year]
		if len(urls) == 0 {
			continue
		}

		yearDir := filepath.Join(job.OutputDir, string(category), folder, year)
		next := nextIssueNumber(yearDir, folder)

		for _, rawURL := range urls {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if s.state != nil {
				done, err := s.state.IsDownloaded(ctx, folder, rawURL)
				if err != nil {
					s.logger.Warn("download state lookup failed",
						"archive", folder,
						"url", rawURL,
						"error", err,
					)
				} else if done {
					job.Result.RecordSkipped(year)
					s.logger.Debug("already downloaded", "archive", folder, "url", rawURL)
					continue
				}
			}

			name, numbered := s.fileName(category, folder, rawURL, next)
			dest := filepath.Join(yearDir, name)

			res, err := s.fetcher.Download(ctx, rawURL, dest)
			if err != nil {
				job.Result.RecordFailed(year, fmt.Sprintf("fetch %s: %v", rawURL, err))
				s.recordOutcome(ctx, &database.DownloadRecord{
					Archive: folder,
					Year:    year,
					URL:     rawURL,
					Path:    dest,
					Status:  database.StatusFailed,
					Error:   err.Error(),
				})
				s.logger.Warn("download failed",
					"archive", folder,
					"url", rawURL,
					"error", err,
				)
				continue
			}

			if res.AlreadyExists {
				job.Result.RecordSkipped(year)
				s.recordOutcome(ctx, &database.DownloadRecord{
					Archive:   folder,
					Year:      year,
					URL:       rawURL,
					Path:      res.Path,
					SizeBytes: res.Bytes,
					Status:    database.StatusSkipped,
				})
				s.logger.Debug("file already on disk", "archive", folder, "path", res.Path)
				continue
			}

			if numbered {
				next++
			}

			job.Result.RecordDownloaded(year, res.Bytes)

			rec := &database.DownloadRecord{
				Archive:   folder,
				Year:      year,
				URL:       rawURL,
				Path:      res.Path,
				SizeBytes: res.Bytes,
				Digest:    res.Digest,
				Status:    database.StatusDownloaded,
			}
			if res.Metadata != nil {
				rec.Title = res.Metadata.Title
			}
			s.recordOutcome(ctx, rec)

			s.logger.Info("downloaded",
				"archive", folder,
				"year", year,
				"path", res.Path,
				"bytes", res.Bytes,
				"attempts", res.Attempts,
			)
		}
	}

	return nil
}

// fileName picks the destination name for one file. The second return
// reports whether the name consumed the sequential issue number.
func (s *DownloadStep) fileName(category model.Category, folder, rawURL string, next int) (string, bool) {
	if category == model.CategoryNewspaper {
		if u, err := url.Parse(rawURL); err == nil {
			if base := path.Base(u.Path); saneBasename.MatchString(base) {
				return base, false
			}
		}
	}
	return category.FileName(folder, s.now(), next), true
}

// recordOutcome persists one download outcome, logging instead of
// failing when the database is unavailable.
func (s *DownloadStep) recordOutcome(ctx context.Context, rec *database.DownloadRecord) {
	if s.state == nil {
		return
	}
	if _, err := s.state.RecordDownload(ctx, rec); err != nil {
		s.logger.Warn("failed to record download outcome",
			"archive", rec.Archive,
			"url", rec.URL,
			"error", err,
		)
	}
}

// nextIssueNumber returns one past the highest issue number present in
// dir. Numbering starts at 1 for a missing or empty directory.
func nextIssueNumber(dir, folder string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}

	highest := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := model.IssueNumber(folder, e.Name()); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// IndexStep refreshes the archive's bilingual README index after the
// downloads land. Index problems are recorded but never fail the job.
type IndexStep struct {
	writer *report.IndexWriter
	logger *slog.Logger
}

// IndexOption configures an IndexStep.
type IndexOption func(*IndexStep)

// WithIndexLogger sets a custom logger for the step.
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(s *IndexStep) {
		s.logger = logger
	}
}

// NewIndexStep creates an IndexStep. A nil writer turns the step into a
// no-op.
func NewIndexStep(writer *report.IndexWriter, opts ...IndexOption) *IndexStep {
	s := &IndexStep{
		writer: writer,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the step name.
func (s *IndexStep) Name() string {
	return "index"
}

// Do rewrites the archive's README.md and README.en.md.
func (s *IndexStep) Do(ctx context.Context, job *Job) error {
	if s.writer == nil {
		return nil
	}

	if err := s.writer.WriteArchiveIndex(ctx, job.Archive); err != nil {
		job.Result.AddError(fmt.Sprintf("index %s: %v", job.Folder(), err))
		s.logger.Warn("failed to write archive index",
			"archive", job.Folder(),
			"error", err,
		)
	}

	return nil
}
