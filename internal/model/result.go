package model

import (
	"time"
)

// YearCount aggregates download activity for one year of one archive.
type YearCount struct {
	// Found is the number of candidate files discovered for this year.
	Found int `json:"found"`

	// Downloaded is the number of files fetched and verified.
	Downloaded int `json:"downloaded"`

	// Skipped is the number of files already present on disk or recorded
	// in the state database.
	Skipped int `json:"skipped"`

	// Failed is the number of files that could not be fetched.
	Failed int `json:"failed"`

	// Bytes is the total size of files downloaded for this year.
	Bytes int64 `json:"bytes"`
}

// ArchiveResult is the outcome of harvesting a single archive. It
// accumulates counts while the archive's pipeline runs and is immutable
// afterwards.
type ArchiveResult struct {
	// Archive is the sanitized folder name identifying the archive.
	Archive string `json:"archive"`

	// TitleFa is the archive's Persian display title.
	TitleFa string `json:"title_fa"`

	// Category is the archive's category.
	Category Category `json:"category"`

	// Years holds per-year counters, keyed by the configured year string.
	Years map[string]*YearCount `json:"years,omitempty"`

	// FilesFound is the total number of candidate files discovered.
	FilesFound int `json:"files_found"`

	// Downloaded, Skipped, and Failed total the per-year counters.
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`

	// Bytes is the total size downloaded for this archive.
	Bytes int64 `json:"bytes"`

	// Errors collects human-readable problem descriptions encountered
	// while processing this archive. A populated Errors slice does not
	// mean the archive failed; harvesting continues past recoverable
	// problems.
	Errors []string `json:"errors,omitempty"`

	// Duration is the wall-clock time spent on this archive.
	Duration time.Duration `json:"duration"`
}

// NewArchiveResult creates an empty result for the given archive.
func NewArchiveResult(archive, titleFa string, category Category) *ArchiveResult {
	return &ArchiveResult{
		Archive:  archive,
		TitleFa:  titleFa,
		Category: category,
		Years:    make(map[string]*YearCount),
	}
}

// Year returns the counter bucket for a year, creating it when first seen.
func (r *ArchiveResult) Year(year string) *YearCount {
	if r.Years == nil {
		r.Years = make(map[string]*YearCount)
	}
	yc, ok := r.Years[year]
	if !ok {
		yc = &YearCount{}
		r.Years[year] = yc
	}
	return yc
}

// RecordFound notes n newly discovered candidate files for a year.
func (r *ArchiveResult) RecordFound(year string, n int) {
	r.Year(year).Found += n
	r.FilesFound += n
}

// RecordDownloaded notes one verified download of the given size.
func (r *ArchiveResult) RecordDownloaded(year string, bytes int64) {
	yc := r.Year(year)
	yc.Downloaded++
	yc.Bytes += bytes
	r.Downloaded++
	r.Bytes += bytes
}

// RecordSkipped notes one file that was already present.
func (r *ArchiveResult) RecordSkipped(year string) {
	r.Year(year).Skipped++
	r.Skipped++
}

// RecordFailed notes one failed download and keeps its description.
func (r *ArchiveResult) RecordFailed(year, message string) {
	r.Year(year).Failed++
	r.Failed++
	r.AddError(message)
}

// AddError appends a problem description, dropping exact duplicates.
func (r *ArchiveResult) AddError(message string) {
	for _, e := range r.Errors {
		if e == message {
			return
		}
	}
	r.Errors = append(r.Errors, message)
}

// PerfStats summarizes runtime resource usage of a harvest run.
type PerfStats struct {
	// Duration is the monitored wall-clock time.
	Duration time.Duration `json:"duration"`

	// PeakAllocMB is the maximum heap allocation observed, in megabytes.
	PeakAllocMB float64 `json:"peak_alloc_mb"`

	// MaxGoroutines is the maximum number of goroutines observed.
	MaxGoroutines int `json:"max_goroutines"`

	// FilesPerSecond is downloaded files divided by duration.
	FilesPerSecond float64 `json:"files_per_second"`

	// MBPerSecond is downloaded megabytes divided by duration.
	MBPerSecond float64 `json:"mb_per_second"`
}

// Summary is the whole-run report across all archives.
type Summary struct {
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Results holds one entry per processed archive, in processing order.
	Results []*ArchiveResult `json:"results"`

	// Totals across all archives.
	TotalFound      int   `json:"total_found"`
	TotalDownloaded int   `json:"total_downloaded"`
	TotalSkipped    int   `json:"total_skipped"`
	TotalFailed     int   `json:"total_failed"`
	TotalBytes      int64 `json:"total_bytes"`

	// Performance is filled in by the performance monitor when enabled.
	Performance *PerfStats `json:"performance,omitempty"`
}

// NewSummary creates a summary stamped with the current time.
func NewSummary() *Summary {
	return &Summary{StartedAt: time.Now()}
}

// Add appends an archive result and folds it into the totals.
func (s *Summary) Add(r *ArchiveResult) {
	s.Results = append(s.Results, r)
	s.TotalFound += r.FilesFound
	s.TotalDownloaded += r.Downloaded
	s.TotalSkipped += r.Skipped
	s.TotalFailed += r.Failed
	s.TotalBytes += r.Bytes
}

// Finish stamps the summary's end time.
func (s *Summary) Finish() {
	s.FinishedAt = time.Now()
}

// Duration returns the elapsed time between start and finish, or since
// start when the summary is not finished yet.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// ErrorCount returns the total number of recorded problems.
func (s *Summary) ErrorCount() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Errors)
	}
	return n
}
