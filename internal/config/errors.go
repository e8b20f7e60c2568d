package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ArchiveFile.Validate()
// and provide specific information about what is wrong with the
// configuration. Callers can use errors.Is() for programmatic handling while
// still getting human-readable messages. Errors that need dynamic context
// (archive name, field name) are wrapped around these sentinels with
// fmt.Errorf and %w.
var (
	// ErrNoArchives is returned when the archive configuration file defines
	// no archives. An empty harvest run is almost always a mistake.
	ErrNoArchives = errors.New("no archives defined in configuration")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no archives are processed.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidCrawlDepth is returned when the crawl depth is negative.
	// A depth of 0 falls back to the default depth.
	ErrInvalidCrawlDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	// Zero retries means a single attempt with no retry.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidMaxFileSize is returned when the download size ceiling is
	// not positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be positive")

	// ErrMissingField is returned when an archive entry lacks one of the
	// required fields (title_fa, folder, category, description).
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidCategory is returned when an archive declares a category
	// outside the known set.
	ErrInvalidCategory = errors.New("invalid category: must be old-newspaper or newspaper")

	// ErrStringTooLong is returned when a configuration string exceeds its
	// per-field length limit.
	ErrStringTooLong = errors.New("string exceeds maximum length")

	// ErrDangerousContent is returned when a configuration string contains
	// script injection or URL-scheme attack patterns.
	ErrDangerousContent = errors.New("dangerous content in configuration value")

	// ErrTooManyArchives is returned when the configuration file defines
	// more archives than MaxArchives.
	ErrTooManyArchives = errors.New("too many archives")

	// ErrTooManyYears is returned when an archive defines more years than
	// MaxYearsPerArchive.
	ErrTooManyYears = errors.New("too many years in archive")

	// ErrTooManyURLs is returned when a year lists more seed URLs than
	// MaxURLsPerYear.
	ErrTooManyURLs = errors.New("too many URLs for year")

	// ErrInvalidYear is returned when a year key is not a four digit number.
	ErrInvalidYear = errors.New("invalid year: must be four digits")

	// ErrInvalidArchiveURL is returned when a seed URL does not parse or
	// uses a scheme other than http or https.
	ErrInvalidArchiveURL = errors.New("invalid archive URL")
)
