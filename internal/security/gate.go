package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/irpress/kavosh/internal/errkind"
)

// blockedHosts are hostnames that always refer to the local machine.
// They are rejected by exact match before any IP parsing.
var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

// suspiciousPatterns are substrings that indicate path traversal, script
// injection, dangerous scheme smuggling, or embedded credentials. They are
// matched against the lowercased URL as a whole, so a javascript: fragment
// buried in a query string is caught even when the outer scheme is http.
var suspiciousPatterns = []string{
	"../",
	"%2e%2e%2f",
	"javascript:",
	"data:",
	"vbscript:",
	"file:",
	"ftp:",
	"<script",
	"onclick",
	"onload",
	"onerror",
	"@",
	"<",
	">",
	`"`,
	"'",
}

// Gate validates URLs before they are fetched. The zero value is not
// usable; construct with NewGate.
type Gate struct {
	logger *slog.Logger
}

// NewGate creates a Gate. A nil logger falls back to slog.Default().
func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger}
}

// Check reports whether rawURL is safe to fetch. A nil return means safe.
// Failures are tagged validation errors wrapping one of this package's
// sentinel errors; validation failures are never retried.
//
// A target whose path does not end in .pdf is allowed through with a logged
// warning: directory listings and redirect endpoints legitimately lack the
// extension, but a harvest consisting mostly of non-PDF targets usually
// means a misconfigured seed URL.
func (g *Gate) Check(rawURL string) error {
	fail := func(cause error) error {
		return errkind.New(errkind.Validation, "validate", rawURL, cause)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrUnparsableURL, err))
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fail(fmt.Errorf("%w: %q", ErrSchemeNotAllowed, u.Scheme))
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fail(ErrMissingHost)
	}
	if blockedHosts[host] {
		return fail(fmt.Errorf("%w: %s", ErrBlockedHost, host))
	}

	if ip := net.ParseIP(host); ip != nil && isPrivateOrLocal(ip) {
		return fail(fmt.Errorf("%w: %s", ErrPrivateAddress, host))
	}

	lower := strings.ToLower(rawURL)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return fail(fmt.Errorf("%w: %q", ErrSuspiciousPattern, pattern))
		}
	}
	for _, r := range rawURL {
		if r < 0x20 || r == 0x7f {
			return fail(fmt.Errorf("%w: control character", ErrSuspiciousPattern))
		}
	}

	if !strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		g.logger.Warn("target does not look like a PDF file", "url", rawURL)
	}

	return nil
}

// isPrivateOrLocal reports whether ip must never be fetched from: loopback,
// RFC 1918 and ULA private ranges, link-local, multicast, and the
// unspecified address.
func isPrivateOrLocal(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

// RedirectPolicy returns an http.Client CheckRedirect function that caps the
// chain at maxRedirects hops and runs every intermediate target through the
// gate. A redirect into a blocked or private location aborts the request
// rather than silently following it.
func (g *Gate) RedirectPolicy(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errkind.New(errkind.Validation, "redirect", req.URL.String(),
				fmt.Errorf("%w: %d hops", ErrTooManyRedirects, len(via)))
		}
		if err := g.Check(req.URL.String()); err != nil {
			return err
		}
		g.logger.Debug("following redirect",
			"from", via[len(via)-1].URL.String(),
			"to", req.URL.String(),
			"hop", len(via))
		return nil
	}
}
