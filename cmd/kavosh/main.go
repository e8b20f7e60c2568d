// Package main provides the entry point for the kavosh CLI.
//
// Kavosh harvests Iranian newspaper PDF archives: it classifies seed
// URLs, crawls directory listings, downloads the discovered issues into
// a category/folder/year tree, and keeps bilingual README indexes up to
// date.
//
// Usage:
//
//	kavosh harvest
//	kavosh crawl <url>
//
// See --help for all available options.
package main

// main is the entry point for kavosh.
func main() {
	Execute()
}
