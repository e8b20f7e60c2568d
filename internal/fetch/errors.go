package fetch

import "errors"

var (
	// ErrContentType is returned when the server's Content-Type is not an
	// accepted PDF type and the URL path gives no reason to trust the
	// payload anyway.
	ErrContentType = errors.New("content type is not an accepted PDF type")

	// ErrTooLarge is returned when a file exceeds the configured size
	// ceiling, either by declared Content-Length or mid-stream.
	ErrTooLarge = errors.New("file exceeds the size limit")

	// ErrNotPDF is returned when a downloaded file does not start with
	// the %PDF- signature. The file is removed before the error surfaces.
	ErrNotPDF = errors.New("downloaded file is not a PDF")
)
