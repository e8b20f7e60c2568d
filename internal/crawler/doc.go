// Package crawler discovers downloadable files behind directory-like URLs.
//
// Newspaper archives on the Iranian web are usually plain directory trees:
// a root listing with one folder per publication year, year folders holding
// numbered PDFs, and occasionally a JSON index instead of HTML. The Crawler
// walks such a tree depth-first, collecting file URLs and the listing pages
// it passed through, within the bounds described by Limits.
//
// A crawl never fails as a whole. Unreachable pages, unparsable listings,
// and over-limit conditions are recorded in Result.Errors while the rest of
// the tree is still explored.
//
// # Politeness
//
// Every request is preceded by a configurable delay, listing bodies are
// read through a size cap, and the per-directory and total file limits stop
// runaway crawls on large mirrors.
//
// # Usage
//
//	c := crawler.New(crawler.DefaultLimits(), logger)
//	result := c.Crawl(ctx, "https://example.com/neshat-1378/")
//	for _, f := range result.Files {
//		fmt.Println(f)
//	}
package crawler
