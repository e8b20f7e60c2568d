package fetch

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/irpress/kavosh/internal/errkind"
	"github.com/irpress/kavosh/internal/pdfmeta"
)

const (
	// DefaultMaxFileSize is the download size ceiling.
	DefaultMaxFileSize = 100 * 1024 * 1024

	// DefaultMaxRetries is how many times a failed attempt is repeated.
	// The total attempt count is DefaultMaxRetries+1.
	DefaultMaxRetries = 3

	// DefaultTimeout is the whole-request timeout. Archive hosts serve
	// large scans over slow links, so this is generous.
	DefaultTimeout = 5 * time.Minute

	// DefaultMaxRedirects caps the redirect chain.
	DefaultMaxRedirects = 5

	// DefaultBaseDelay is the backoff before the first retry.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxDelay caps the backoff between retries.
	DefaultMaxDelay = 60 * time.Second

	// DefaultUserAgent identifies the harvester politely.
	DefaultUserAgent = "kavosh/1.0 (+https://github.com/irpress/kavosh)"

	// backoffFactor doubles the delay after every failed attempt.
	backoffFactor = 2

	// chunkSize is the streaming copy granularity. The running size
	// check runs once per chunk.
	chunkSize = 8192
)

// allowedContentTypes are the Content-Type values accepted for PDF
// payloads. "applications/vnd.pdf" (with the s) appears on some old IIS
// archive hosts.
var allowedContentTypes = map[string]bool{
	"application/pdf":      true,
	"application/x-pdf":    true,
	"application/acrobat":  true,
	"applications/vnd.pdf": true,
	"text/pdf":             true,
	"text/x-pdf":           true,
}

var pdfMagic = []byte("%PDF-")

// Gate clears URLs before any network contact and supplies the redirect
// policy for the HTTP client. *security.Gate implements it.
type Gate interface {
	Check(rawURL string) error
	RedirectPolicy(maxRedirects int) func(req *http.Request, via []*http.Request) error
}

// Result describes a completed download.
type Result struct {
	// Path is the local file the download landed in.
	Path string `json:"path"`

	// Bytes is the size written, or the existing size when the file was
	// already present.
	Bytes int64 `json:"bytes"`

	// Digest is the hex BLAKE2b-256 of the written bytes. Empty when the
	// file already existed.
	Digest string `json:"digest,omitempty"`

	// Metadata holds PDF Info-dictionary fields when any were found.
	Metadata *pdfmeta.Info `json:"metadata,omitempty"`

	// Attempts counts the HTTP attempts made, zero for an existing file.
	Attempts int `json:"attempts"`

	// AlreadyExists reports that the destination was already on disk and
	// no network I/O happened.
	AlreadyExists bool `json:"already_exists,omitempty"`
}

// Fetcher downloads PDF files through a security gate.
type Fetcher struct {
	gate         Gate
	client       *http.Client
	maxFileSize  int64
	maxRetries   int
	maxRedirects int
	baseDelay    time.Duration
	maxDelay     time.Duration
	timeout      time.Duration
	userAgent    string
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxFileSize sets the download size ceiling in bytes.
func WithMaxFileSize(n int64) Option {
	return func(f *Fetcher) {
		f.maxFileSize = n
	}
}

// WithMaxRetries sets how many times a failed attempt is repeated.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithTimeout sets the whole-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxRedirects caps the redirect chain length.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithRetryBackoff sets the base and maximum delay between retries.
func WithRetryBackoff(base, max time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = base
		f.maxDelay = max
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher that validates every URL, including
// redirect hops, through gate.
func NewFetcher(gate Gate, opts ...Option) *Fetcher {
	f := &Fetcher{
		gate:         gate,
		maxFileSize:  DefaultMaxFileSize,
		maxRetries:   DefaultMaxRetries,
		maxRedirects: DefaultMaxRedirects,
		baseDelay:    DefaultBaseDelay,
		maxDelay:     DefaultMaxDelay,
		timeout:      DefaultTimeout,
		userAgent:    DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.client = &http.Client{
		Timeout:       f.timeout,
		CheckRedirect: gate.RedirectPolicy(f.maxRedirects),
	}
	return f
}

// Download fetches rawURL into dest. The parent directory is created as
// needed. An existing regular file at dest short-circuits the download.
// Network failures retry up to MaxRetries times with exponential
// backoff; validation and filesystem failures surface immediately.
func (f *Fetcher) Download(ctx context.Context, rawURL, dest string) (*Result, error) {
	if err := f.gate.Check(rawURL); err != nil {
		return nil, err
	}

	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		f.logger.Debug("file already exists, skipping download", "path", dest)
		return &Result{Path: dest, Bytes: info.Size(), AlreadyExists: true}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return nil, errkind.New(errkind.Filesystem, "fetch", rawURL, err)
	}

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		res, err := f.attempt(ctx, rawURL, dest)
		if err == nil {
			res.Attempts = attempt + 1
			f.logger.Info("downloaded and validated PDF",
				"url", rawURL, "path", dest, "bytes", res.Bytes, "attempts", res.Attempts)
			return res, nil
		}

		lastErr = err
		if !errkind.Retryable(err) || attempt == f.maxRetries {
			break
		}

		delay := f.retryDelay(attempt)
		f.logger.Warn("download failed, will retry",
			"url", rawURL, "attempt", attempt+1, "delay", delay, "error", err)
		if serr := sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}
	return nil, lastErr
}

// attempt performs one gated GET and writes the validated body to dest.
func (f *Fetcher) attempt(ctx context.Context, rawURL, dest string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "fetch", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf,application/octet-stream;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		// A rejected redirect hop arrives wrapped in a url.Error; keep
		// its validation tag instead of reclassifying it as transient.
		var tagged *errkind.Error
		if errors.As(err, &tagged) {
			return nil, tagged
		}
		return nil, errkind.New(errkind.Network, "fetch", rawURL, err)
	}
	defer resp.Body.Close()

	// 4xx and 5xx consume the retry budget like transport failures.
	// Archive hosts routinely answer 503 under load, and a retried 404
	// costs one extra round trip at most.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errkind.New(errkind.Network, "fetch", rawURL,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	finalURL := resp.Request.URL.String()
	if finalURL != rawURL {
		if err := f.gate.Check(finalURL); err != nil {
			return nil, err
		}
		f.logger.Info("followed redirect", "from", rawURL, "to", finalURL)
	}

	if err := f.checkContentType(resp.Header.Get("Content-Type"), finalURL); err != nil {
		return nil, err
	}

	if resp.ContentLength > f.maxFileSize {
		return nil, errkind.New(errkind.Validation, "fetch", rawURL,
			fmt.Errorf("%w: declared %d bytes (limit %d)", ErrTooLarge, resp.ContentLength, f.maxFileSize))
	}

	n, digest, err := f.writeBody(rawURL, resp.Body, dest)
	if err != nil {
		return nil, err
	}

	if err := verifySignature(dest); err != nil {
		os.Remove(dest)
		return nil, err
	}

	res := &Result{Path: dest, Bytes: n, Digest: digest}
	if meta, err := pdfmeta.ExtractFile(dest); err == nil && !meta.Empty() {
		res.Metadata = meta
	}
	return res, nil
}

// checkContentType accepts the allowlisted PDF types. A missing or
// generic binary Content-Type passes only when the URL path ends in
// .pdf, with a logged warning either way.
func (f *Fetcher) checkContentType(header, finalURL string) error {
	fail := func(cause error) error {
		return errkind.New(errkind.Validation, "fetch", finalURL, cause)
	}

	isPDFPath := strings.HasSuffix(strings.ToLower(pathOf(finalURL)), ".pdf")

	if header == "" {
		if isPDFPath {
			f.logger.Warn("no content type header, trusting the .pdf extension", "url", finalURL)
			return nil
		}
		return fail(fmt.Errorf("%w: no content type and no .pdf extension", ErrContentType))
	}

	ct := strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	if allowedContentTypes[ct] {
		return nil
	}
	if ct == "application/octet-stream" || ct == "binary/octet-stream" {
		if isPDFPath {
			f.logger.Warn("generic binary content type, trusting the .pdf extension",
				"url", finalURL, "content_type", ct)
			return nil
		}
	}
	return fail(fmt.Errorf("%w: %q", ErrContentType, ct))
}

// writeBody streams body to dest in fixed chunks, hashing as it goes and
// aborting the moment the running total exceeds the size ceiling. The
// partial file is removed on every failure path.
func (f *Fetcher) writeBody(rawURL string, body io.Reader, dest string) (int64, string, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, "", errkind.New(errkind.Filesystem, "fetch", rawURL, err)
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		out.Close()
		os.Remove(dest)
		return 0, "", errkind.New(errkind.Unknown, "fetch", rawURL, err)
	}

	discard := func() {
		out.Close()
		os.Remove(dest)
	}

	var total int64
	buf := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > f.maxFileSize {
				discard()
				return 0, "", errkind.New(errkind.Validation, "fetch", rawURL,
					fmt.Errorf("%w: exceeded %d bytes mid-stream", ErrTooLarge, f.maxFileSize))
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				discard()
				return 0, "", errkind.New(errkind.Filesystem, "fetch", rawURL, werr)
			}
			hasher.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			discard()
			return 0, "", errkind.New(errkind.Network, "fetch", rawURL, readErr)
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return 0, "", errkind.New(errkind.Filesystem, "fetch", rawURL, err)
	}
	return total, hex.EncodeToString(hasher.Sum(nil)), nil
}

// verifySignature checks the %PDF- magic at the start of the file.
func verifySignature(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return errkind.New(errkind.Filesystem, "verify", "", err)
	}
	defer fh.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(fh, header); err != nil {
		return errkind.New(errkind.Validation, "verify", "",
			fmt.Errorf("%w: file shorter than the signature", ErrNotPDF))
	}
	if !bytes.Equal(header, pdfMagic) {
		return errkind.New(errkind.Validation, "verify", "",
			fmt.Errorf("%w: starts with %q", ErrNotPDF, header))
	}
	return nil
}

// retryDelay returns the backoff after the given number of failed
// attempts, doubling each time up to the cap.
func (f *Fetcher) retryDelay(failed int) time.Duration {
	d := f.baseDelay
	for i := 0; i < failed; i++ {
		d *= backoffFactor
		if d >= f.maxDelay {
			return f.maxDelay
		}
	}
	if d > f.maxDelay {
		d = f.maxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
