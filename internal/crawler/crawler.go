package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/irpress/kavosh/internal/persian"
)

// Default crawl limits, used by DefaultLimits and to fill unset fields.
const (
	DefaultMaxDepth       = 5
	DefaultMaxFilesPerDir = 1000
	DefaultMaxTotalFiles  = 10000
	DefaultTimeout        = 30 * time.Second
	DefaultDelay          = 1 * time.Second
	DefaultUserAgent      = "kavosh/1.0 (+https://github.com/irpress/kavosh)"
)

// maxListingBytes caps how much of a single listing page is read into
// memory. Directory indexes are small; anything larger is not a listing.
const maxListingBytes = 10 * 1024 * 1024

// Limits bounds a crawl.
type Limits struct {
	// MaxDepth is how many directory levels below the start URL are
	// followed. The start URL itself is level zero.
	MaxDepth int `json:"max_depth"`

	// MaxFilesPerDir stops scanning a single listing page once this many
	// new files have been taken from it.
	MaxFilesPerDir int `json:"max_files_per_dir"`

	// MaxTotalFiles caps the crawl as a whole. Enforced at append time,
	// so Result.Files never exceeds it.
	MaxTotalFiles int `json:"max_total_files"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout"`

	// Delay is the politeness pause before every request. Zero disables
	// the pause.
	Delay time.Duration `json:"delay"`

	// DisableRedirects stops the crawler from following HTTP redirects.
	DisableRedirects bool `json:"disable_redirects,omitempty"`

	// AllowedExts are the lowercased file extensions, dot included, that
	// count as downloadable files. Nil means the default set.
	AllowedExts []string `json:"allowed_exts,omitempty"`

	// BlockedPatterns are lowercased substrings that exclude a URL from
	// crawling entirely. Nil means the default set.
	BlockedPatterns []string `json:"blocked_patterns,omitempty"`

	// UserAgent is sent with every request.
	UserAgent string `json:"user_agent,omitempty"`
}

// DefaultLimits returns the stock crawl limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        DefaultMaxDepth,
		MaxFilesPerDir:  DefaultMaxFilesPerDir,
		MaxTotalFiles:   DefaultMaxTotalFiles,
		Timeout:         DefaultTimeout,
		Delay:           DefaultDelay,
		AllowedExts:     []string{".pdf", ".doc", ".docx", ".txt", ".html"},
		BlockedPatterns: []string{"admin", "login", "auth", "private", "secure"},
		UserAgent:       DefaultUserAgent,
	}
}

// withDefaults fills fields whose zero value would make the crawler
// useless. Delay is left alone: zero legitimately means no pause.
func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxFilesPerDir <= 0 {
		l.MaxFilesPerDir = DefaultMaxFilesPerDir
	}
	if l.MaxTotalFiles <= 0 {
		l.MaxTotalFiles = DefaultMaxTotalFiles
	}
	if l.Timeout <= 0 {
		l.Timeout = DefaultTimeout
	}
	if l.AllowedExts == nil {
		l.AllowedExts = DefaultLimits().AllowedExts
	}
	if l.BlockedPatterns == nil {
		l.BlockedPatterns = DefaultLimits().BlockedPatterns
	}
	if l.UserAgent == "" {
		l.UserAgent = DefaultUserAgent
	}
	return l
}

// Result is what a crawl discovered.
type Result struct {
	// BaseURL is the URL the crawl started from.
	BaseURL string `json:"base_url"`

	// Files are the discovered downloadable file URLs, in discovery
	// order and free of duplicates.
	Files []string `json:"files"`

	// Directories are the listing pages recorded during the crawl, in
	// discovery order.
	Directories []string `json:"directories"`

	// TotalFiles is len(Files).
	TotalFiles int `json:"total_files"`

	// Depth is the depth budget the crawl ran with.
	Depth int `json:"depth"`

	// Errors are the per-URL problems hit along the way. A crawl never
	// fails as a whole.
	Errors []string `json:"errors"`

	// Duration is the wall-clock crawl time.
	Duration time.Duration `json:"duration"`
}

// Crawler walks directory trees looking for downloadable files.
// A Crawler is reusable across crawls; all per-crawl state lives in a
// session value created by Crawl.
type Crawler struct {
	limits Limits
	client *http.Client
	logger *slog.Logger
}

// New returns a Crawler bound to the given limits. Zero limit fields are
// replaced with defaults; a nil logger falls back to slog.Default.
func New(limits Limits, logger *slog.Logger) *Crawler {
	limits = limits.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	client := &http.Client{Timeout: limits.Timeout}
	if limits.DisableRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Crawler{limits: limits, client: client, logger: logger}
}

// session holds the state of one crawl: the visited set, the ordered
// discoveries, and the accumulated errors.
type session struct {
	visited  map[string]bool
	files    []string
	seenFile map[string]bool
	dirs     []string
	seenDir  map[string]bool
	errors   []string
}

func newSession() *session {
	return &session{
		visited:  make(map[string]bool),
		files:    make([]string, 0),
		seenFile: make(map[string]bool),
		dirs:     make([]string, 0),
		seenDir:  make(map[string]bool),
		errors:   make([]string, 0),
	}
}

// addFile records a discovered file unless it is a duplicate or the total
// cap is reached. Reports whether the file was actually added.
func (s *session) addFile(u string, limit int) bool {
	if len(s.files) >= limit || s.seenFile[u] {
		return false
	}
	s.seenFile[u] = true
	s.files = append(s.files, u)
	return true
}

// addDir records a discovered directory unless it is a duplicate.
func (s *session) addDir(u string) bool {
	if s.seenDir[u] {
		return false
	}
	s.seenDir[u] = true
	s.dirs = append(s.dirs, u)
	return true
}

func (s *session) addError(format string, args ...any) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

// Crawl discovers downloadable files under baseURL using the configured
// depth budget.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) *Result {
	return c.CrawlToDepth(ctx, baseURL, 0)
}

// CrawlToDepth is Crawl with an explicit depth budget. A budget of zero or
// less falls back to the configured MaxDepth.
func (c *Crawler) CrawlToDepth(ctx context.Context, baseURL string, maxDepth int) *Result {
	start := time.Now()
	if maxDepth <= 0 {
		maxDepth = c.limits.MaxDepth
	}

	c.logger.Info("starting directory crawl",
		"url", baseURL,
		"max_depth", maxDepth,
		"max_files", c.limits.MaxTotalFiles)

	s := newSession()
	c.run(ctx, s, baseURL, maxDepth)

	result := &Result{
		BaseURL:     baseURL,
		Files:       s.files,
		Directories: s.dirs,
		TotalFiles:  len(s.files),
		Depth:       maxDepth,
		Errors:      s.errors,
		Duration:    time.Since(start),
	}

	c.logger.Info("crawl completed",
		"url", baseURL,
		"files", result.TotalFiles,
		"directories", len(result.Directories),
		"errors", len(result.Errors))

	return result
}

// run executes the recursive walk under a panic guard, so a bug in a
// parser or a pathological page degrades into one recorded error instead
// of taking the whole harvest down.
func (c *Crawler) run(ctx context.Context, s *session, baseURL string, maxDepth int) {
	defer func() {
		if r := recover(); r != nil {
			s.addError("Critical crawling error: %v", r)
		}
	}()
	c.visit(ctx, s, baseURL, 0, maxDepth)
}

// visit fetches one URL and dispatches on its content type. Limit checks
// happen before any network traffic; a visited or blocked URL is skipped
// silently.
func (c *Crawler) visit(ctx context.Context, s *session, rawURL string, depth, maxDepth int) {
	if ctx.Err() != nil {
		return
	}
	if depth >= maxDepth {
		return
	}
	if len(s.files) >= c.limits.MaxTotalFiles {
		c.logger.Warn("total file limit reached", "limit", c.limits.MaxTotalFiles)
		return
	}
	if s.visited[rawURL] {
		return
	}
	if c.blocked(rawURL) {
		c.logger.Debug("skipping blocked url", "url", rawURL)
		return
	}
	s.visited[rawURL] = true

	if c.limits.Delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.limits.Delay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		s.addError("Failed to crawl %s: %v", rawURL, err)
		return
	}
	req.Header.Set("User-Agent", c.limits.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		s.addError("Failed to crawl %s: %v", rawURL, err)
		return
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.addError("Failed to crawl %s: unexpected status %s", rawURL, resp.Status)
		return
	}
	if readErr != nil {
		s.addError("Failed to crawl %s: %v", rawURL, readErr)
		return
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "text/html"):
		c.parseHTMLDirectory(ctx, s, rawURL, body, contentType, depth, maxDepth)
	case strings.Contains(contentType, "application/json"):
		c.parseJSONDirectory(ctx, s, rawURL, body, depth, maxDepth)
	default:
		// Not a listing. The URL itself may be a direct file.
		if c.isDownloadableFile(rawURL) && s.addFile(rawURL, c.limits.MaxTotalFiles) {
			c.logger.Debug("found direct file", "url", rawURL)
		}
	}
}

// blocked reports whether the URL contains one of the blocked substrings.
func (c *Crawler) blocked(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range c.limits.BlockedPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Year tokens as they appear in archive URLs: Jalali years 1300-1450 and
// Gregorian years 1900-2100, range-checked after the match.
var (
	jalaliYearPattern    = regexp.MustCompile(`1[3-4]\d{2}`)
	gregorianYearPattern = regexp.MustCompile(`(?:19|20|21)\d{2}`)
)

// GroupByYear buckets the discovered files by the year token in their URL,
// in the shape of an archive config years map. Files without a
// recognizable year land in the newest bucket, or the current Gregorian
// year when no file carried one.
func (r *Result) GroupByYear() map[string][]string {
	grouped := make(map[string][]string)
	var ungrouped []string
	maxYear := 0

	for _, f := range r.Files {
		year, ok := extractYear(f)
		if !ok {
			ungrouped = append(ungrouped, f)
			continue
		}
		key := strconv.Itoa(year)
		grouped[key] = append(grouped[key], f)
		if year > maxYear {
			maxYear = year
		}
	}

	if len(ungrouped) > 0 {
		key := strconv.Itoa(time.Now().Year())
		if maxYear > 0 {
			key = strconv.Itoa(maxYear)
		}
		grouped[key] = append(grouped[key], ungrouped...)
	}

	return grouped
}

// extractYear finds the first plausible year token in a URL. Persian-digit
// runs are folded to ASCII first, so URLs like /نشاط/۱۳۷۸/۱.pdf group
// correctly.
func extractYear(rawURL string) (int, bool) {
	folded := persian.FoldDigits(rawURL)

	if m := jalaliYearPattern.FindString(folded); m != "" {
		if y, err := strconv.Atoi(m); err == nil && y >= 1300 && y <= 1450 {
			return y, true
		}
	}
	if m := gregorianYearPattern.FindString(folded); m != "" {
		if y, err := strconv.Atoi(m); err == nil && y >= 1900 && y <= 2100 {
			return y, true
		}
	}
	return 0, false
}
