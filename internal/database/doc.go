// Package database persists harvesting state in SQLite.
//
// Two tables carry the state. The downloads table records the outcome of
// every fetch attempt keyed by archive and URL, which lets repeated runs
// skip files that are already on disk and lets failed URLs be listed for a
// later retry. The sessions table keeps a compact audit trail of crawl
// runs. The modernc.org/sqlite driver is pure Go, so the binary stays
// CGO-free and cross-compiles cleanly.
package database
