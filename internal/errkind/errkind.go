package errkind

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
)

// Kind is the category of an operational error. The category decides how the
// caller reacts: network errors are transient and worth retrying, validation
// and config errors are permanent, filesystem errors usually point at the
// local machine rather than the remote archive.
type Kind int

const (
	// Unknown covers errors that fit no other category.
	Unknown Kind = iota

	// Network covers connection failures, DNS failures, timeouts, and HTTP
	// transport errors. Network errors are the only retryable kind.
	Network

	// Filesystem covers local I/O failures: permission errors, missing
	// directories, full disks.
	Filesystem

	// Validation covers content that was fetched or supplied successfully
	// but is not acceptable: unsafe URLs, wrong content types, files that
	// are not PDFs. Validation errors are never retried.
	Validation

	// Config covers invalid configuration files or option values.
	Config
)

// String returns the lowercase category name.
func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case Filesystem:
		return "filesystem"
	case Validation:
		return "validation"
	case Config:
		return "config"
	default:
		return "unknown"
	}
}

// Error is an operational error tagged with its category and the operation
// and URL it occurred in. It wraps the underlying cause so errors.Is and
// errors.As keep working through it.
type Error struct {
	// Kind is the error category.
	Kind Kind

	// Op names the failed operation, e.g. "fetch" or "crawl".
	Op string

	// URL is the remote URL involved, if any.
	URL string

	// Err is the underlying cause, if any.
	Err error
}

// New wraps err as a tagged Error. Op and url may be empty.
func New(kind Kind, op, url string, err error) *Error {
	return &Error{Kind: kind, Op: op, URL: url, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.URL != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.URL)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String())
		b.WriteString(" error")
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the category of err. Explicitly tagged errors win; untagged
// errors are classified by their dynamic type: net and url errors and
// exceeded deadlines are Network, fs path errors are Filesystem, everything
// else is Unknown. A canceled context is Unknown, not Network, so that
// cancellation is never mistaken for a transient failure.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	if errors.Is(err, context.Canceled) {
		return Unknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Network
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Network
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Network
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return Filesystem
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return Filesystem
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrExist) {
		return Filesystem
	}
	return Unknown
}

// Is reports whether err belongs to kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether err is worth retrying. Only network errors
// qualify, and a canceled context never does.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return KindOf(err) == Network
}
