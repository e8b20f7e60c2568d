package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the behavior of well-behaved archive mirroring tools:
// conservative politeness delays, bounded recursion, and generous timeouts
// for large PDF scans hosted on slow servers.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "kavosh"

	// DefaultTimeout is the per-request timeout for crawling directory
	// listings. Listing pages are small, so 30 seconds is generous even for
	// slow archive servers.
	DefaultTimeout = 30 * time.Second

	// DefaultFetchTimeout is the per-request timeout for PDF downloads.
	// Scanned newspaper issues commonly run to tens of megabytes, so this
	// is much larger than the listing timeout.
	DefaultFetchTimeout = 300 * time.Second

	// DefaultCrawlDepth is the maximum recursion depth for directory
	// crawling. Archive trees are shallow (archive/year/month), so 5 levels
	// covers real layouts with margin.
	DefaultCrawlDepth = 5

	// DefaultCrawlDelay is the delay before each request during crawling.
	// This is a politeness setting to avoid overwhelming archive servers.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultMaxFilesPerDir caps how many files are collected from a single
	// directory listing. Protects against pathological listings.
	DefaultMaxFilesPerDir = 1000

	// DefaultMaxTotalFiles caps how many files a single crawl may collect
	// in total across all directories.
	DefaultMaxTotalFiles = 10000

	// DefaultMaxFileSize is the maximum size of a single downloaded file.
	// Newspaper issue scans above 100MB are almost always broken exports.
	DefaultMaxFileSize = 100 * 1024 * 1024

	// DefaultMaxRetries is how many times a failed download is retried.
	// Only network failures are retried; validation failures never are.
	DefaultMaxRetries = 3

	// DefaultMaxRedirects caps the redirect chain length for downloads.
	// Every hop is re-validated before being followed.
	DefaultMaxRedirects = 5

	// DefaultChunkSize is the copy buffer size for streaming downloads.
	DefaultChunkSize = 8192

	// DefaultBatchSize is the number of archives processed concurrently.
	// The default of 1 preserves strictly sequential, polite harvesting;
	// raise it only when archives live on different hosts.
	DefaultBatchSize = 1

	// DefaultMaxBodySize limits the response body size read for directory
	// listings and content classification. 5MB is sufficient for any real
	// listing page while preventing memory exhaustion from unexpected
	// responses. Downloads are limited separately by DefaultMaxFileSize.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies kavosh in HTTP requests. A descriptive
	// User-Agent lets archive operators identify harvester traffic in their
	// logs.
	DefaultUserAgent = "kavosh/1.0 (+https://github.com/irpress/kavosh)"

	// DefaultOutputDir is where category/folder/year trees are created.
	DefaultOutputDir = "."
)

// Config holds all runtime options for kavosh.
// This struct is populated from CLI flags and passed through the application
// via dependency injection rather than global state.
type Config struct {
	// ConfigFilePath is the path to the archive configuration file.
	// If empty, the tool searches for urls.yml in the current directory,
	// the XDG config directory, and the user's home directory, in order.
	ConfigFilePath string

	// Archives holds the archive definitions loaded from the configuration
	// file. Populated by LoadArchiveFile before harvesting begins.
	Archives *ArchiveFile

	// OutputDir is the root directory for downloaded archives. The
	// category/folder/year tree is created beneath it.
	OutputDir string

	// Timeout is the per-request timeout for crawling directory listings.
	Timeout time.Duration

	// FetchTimeout is the per-request timeout for file downloads.
	FetchTimeout time.Duration

	// CrawlDepth is the maximum recursion depth for directory crawling.
	// A value of 0 means use the default.
	CrawlDepth int

	// CrawlDelay is the politeness delay before each crawl request.
	CrawlDelay time.Duration

	// MaxFilesPerDir caps files collected from one directory listing.
	MaxFilesPerDir int

	// MaxTotalFiles caps files collected by one crawl in total.
	MaxTotalFiles int

	// MaxFileSize is the per-file download size ceiling in bytes.
	MaxFileSize int64

	// MaxRetries is how many times a failed download is retried.
	MaxRetries int

	// MaxRedirects caps the redirect chain length for downloads.
	MaxRedirects int

	// BatchSize is the number of archives processed concurrently.
	BatchSize int

	// CheckContent enables fetching candidate URLs during classification to
	// inspect their content type and body. Costs one request per URL.
	CheckContent bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite state database.
	// When empty, the XDG data directory is used. Download state is what
	// makes interrupted harvests resumable.
	DBDir string

	// SaveToDB indicates whether download results are recorded in the
	// state database. Disabled with --no-db.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum listing response body size in bytes to
	// read. Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		Timeout:        DefaultTimeout,
		FetchTimeout:   DefaultFetchTimeout,
		CrawlDepth:     DefaultCrawlDepth,
		CrawlDelay:     DefaultCrawlDelay,
		MaxFilesPerDir: DefaultMaxFilesPerDir,
		MaxTotalFiles:  DefaultMaxTotalFiles,
		MaxFileSize:    DefaultMaxFileSize,
		MaxRetries:     DefaultMaxRetries,
		MaxRedirects:   DefaultMaxRedirects,
		BatchSize:      DefaultBatchSize,
		SaveToDB:       true,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for kavosh.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/kavosh
// On macOS: ~/Library/Application Support/kavosh
// On Windows: %LOCALAPPDATA%\kavosh
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for kavosh.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/kavosh
// On macOS: ~/Library/Application Support/kavosh
// On Windows: %APPDATA%\kavosh
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for kavosh.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/kavosh
// On macOS: ~/Library/Caches/kavosh
// On Windows: %LOCALAPPDATA%\kavosh\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid. Validation happens
// once after CLI parsing, before any network activity, and stops at the
// first error found because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Timeout <= 0 || c.FetchTimeout < 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	return nil
}
