// Package pipeline orchestrates the harvest of one archive as a sequence
// of steps: classify the seed URLs, crawl the directory trees, download
// and verify the discovered files, and refresh the archive's README
// index.
//
// Steps communicate through a Job, which carries the archive
// configuration in and accumulates discoveries and counters as the steps
// run. A BatchProcessor runs one pipeline per archive with a bounded
// level of concurrency; the default of one archive at a time keeps
// harvesting polite.
package pipeline
