package classify

import (
	"regexp"

	"github.com/irpress/kavosh/internal/persian"
)

// Pattern tables driving the lexical pass, applied to the lowercased,
// digit-folded URL path. Group order matters: a file match wins outright,
// and within the remaining groups a later match overrides an earlier one,
// so a URL that is both archive-shaped and year-shaped ends up
// YearDirectory.

// filePatterns end the analysis immediately: the URL is a document.
var filePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.pdf$`),
	regexp.MustCompile(`\.docx?$`),
	regexp.MustCompile(`\.txt$`),
	regexp.MustCompile(`\.html?$`),
	regexp.MustCompile(`\.rtf$`),
	regexp.MustCompile(`\.odt$`),
}

// directoryPatterns mark browsable listing pages.
var directoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/$`),
	regexp.MustCompile(`/index\.html?$`),
	regexp.MustCompile(`/default\.html?$`),
}

// archivePatterns mark the roots of archive trees: publication-year
// folders, bare year folders, and the conventional archive directories.
var archivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/neshat[-_]?\d{4}/?$`),
	regexp.MustCompile(`/[a-zA-Z]+[-_]?\d{4}/?$`),
	regexp.MustCompile(`/\d{4}/?$`),
	regexp.MustCompile(`/archive/?$`),
	regexp.MustCompile(`/files/?$`),
}

// yearPatterns find year tokens anywhere in the path: Jalali 1300s-1400s
// and Gregorian 1900s-2100s.
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`1[3-4]\d{2}`),
	regexp.MustCompile(`(?:19|20|21)\d{2}`),
}

// monthPatterns find month tokens: Persian month names, English month
// names and abbreviations, and bare month numerals.
var monthPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:` + persian.Alternation(persian.MonthsFa) + `)`),
	regexp.MustCompile(`(?i)(?:` + persian.Alternation(persian.MonthsEn) + `)`),
	regexp.MustCompile(`(?i)(?:` + persian.Alternation(persian.MonthAbbrsEn) + `)`),
	regexp.MustCompile(`(?:0?[1-9]|1[0-2])`),
}

// extensionPattern is the fallback test: a path without anything that
// looks like a file extension is probably a directory.
var extensionPattern = regexp.MustCompile(`\.[a-zA-Z0-9]{2,4}$`)

// listingIndicators are body fragments typical of directory index pages.
var listingIndicators = []string{
	"index of",
	"directory listing",
	"parent directory",
	"[dir]",
	"folder",
	`<a href="`,
}

// bodyFilePatterns count document references inside a page body. Unlike
// filePatterns these are unanchored: the body is one long string and the
// extensions appear mid-text.
var bodyFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.pdf`),
	regexp.MustCompile(`\.docx?`),
	regexp.MustCompile(`\.txt`),
	regexp.MustCompile(`\.html?`),
	regexp.MustCompile(`\.rtf`),
	regexp.MustCompile(`\.odt`),
}

// yearLinkPattern finds hrefs that carry a Jalali year, the signature of
// an archive root's year index.
var yearLinkPattern = regexp.MustCompile(`href="[^"]*1[3-4]\d{2}[^"]*"`)
