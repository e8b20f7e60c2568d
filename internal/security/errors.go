package security

import "errors"

// Validation failure causes. Gate.Check wraps these in a tagged validation
// error, so callers can branch with errors.Is while logs keep the URL and
// operation context.
var (
	// ErrUnparsableURL is returned when the URL does not parse at all.
	ErrUnparsableURL = errors.New("URL does not parse")

	// ErrSchemeNotAllowed is returned for any scheme other than http or
	// https, including javascript:, data:, file: and ftp:.
	ErrSchemeNotAllowed = errors.New("scheme not allowed: only http and https")

	// ErrMissingHost is returned when the URL has no hostname.
	ErrMissingHost = errors.New("missing hostname")

	// ErrBlockedHost is returned for hostnames on the block list
	// (localhost and its literal addresses).
	ErrBlockedHost = errors.New("blocked hostname")

	// ErrPrivateAddress is returned when the hostname is an IP literal in
	// private, loopback, link-local, multicast, or unspecified ranges.
	ErrPrivateAddress = errors.New("address is private or local")

	// ErrSuspiciousPattern is returned when the URL contains path
	// traversal, script injection, or embedded credential patterns.
	ErrSuspiciousPattern = errors.New("suspicious pattern in URL")

	// ErrTooManyRedirects is returned when a redirect chain exceeds the
	// configured hop limit.
	ErrTooManyRedirects = errors.New("too many redirects")
)
