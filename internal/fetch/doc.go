// Package fetch downloads PDF files with security validation, bounded
// retries, and content verification.
//
// Every download passes the security gate before any network contact,
// re-validates the final URL after redirects, enforces the size ceiling
// both on the declared Content-Length and while streaming, and keeps only
// files that carry the %PDF- signature. Transient network failures retry
// with exponential backoff; validation failures never do. A destination
// that already exists is reported as success without touching the
// network, so interrupted harvests resume cheaply.
package fetch
