// Package classify decides what kind of archive resource a URL points at
// before any crawling starts.
//
// Classification is lexical first: ordered pattern tables over the URL
// path recognize direct files, listing pages, archive roots, and year and
// month directories. Persian-digit runs in the path are folded to ASCII,
// so Jalali years match whether they are written ۱۳۷۸ or 1378. When asked,
// the classifier follows up with a single GET and inspects the body:
// directory-listing markers, file link counts, and year-shaped hrefs
// refine the lexical guess.
//
// The outcome is an Analysis: a type, a confidence, a suggested crawl
// depth, and the pattern tags that fired. SuggestLimits turns an Analysis
// into crawler.Limits fitted to the target.
package classify
