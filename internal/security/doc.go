// Package security validates URLs before any network request is made on
// them. It enforces the scheme allowlist, blocks loopback and private
// network targets, rejects URLs carrying injection or traversal patterns,
// and re-validates every hop of a redirect chain.
package security
