package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category classifies an archive by publication era and controls both the
// on-disk layout and the file naming scheme. Downloads are stored under
// category/folder/year/.
type Category string

const (
	// CategoryOldNewspaper is for historical newspapers distributed as
	// per-issue scans without reliable publication dates. Files are
	// numbered sequentially within each year: folder_001.pdf,
	// folder_002.pdf, continuing from the highest number already present.
	CategoryOldNewspaper Category = "old-newspaper"

	// CategoryNewspaper is for contemporary newspapers harvested on a
	// schedule. Files carry the harvest date before the sequence number:
	// folder_2024-03-21_001.pdf.
	CategoryNewspaper Category = "newspaper"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryOldNewspaper, CategoryNewspaper:
		return true
	}
	return false
}

// String returns the category name as used in configuration files and
// directory paths.
func (c Category) String() string { return string(c) }

// FileName returns the target file name for issue number n of an archive in
// this category. The date is only used by dated categories.
func (c Category) FileName(folder string, date time.Time, n int) string {
	if c == CategoryNewspaper {
		return DatedIssueFileName(folder, date, n)
	}
	return IssueFileName(folder, n)
}

// IssueFileName returns the sequential file name used by the old-newspaper
// category: folder_001.pdf.
func IssueFileName(folder string, n int) string {
	return fmt.Sprintf("%s_%03d.pdf", folder, n)
}

// DatedIssueFileName returns the dated file name used by the newspaper
// category: folder_2024-03-21_001.pdf.
func DatedIssueFileName(folder string, date time.Time, n int) string {
	return fmt.Sprintf("%s_%s_%03d.pdf", folder, date.Format("2006-01-02"), n)
}

// IssueNumber extracts the sequence number from a file name produced by
// IssueFileName or DatedIssueFileName for the given folder. The second
// return value is false when the name does not follow the naming scheme.
// Scanning a year directory with IssueNumber finds the highest number
// already assigned, so interrupted harvests resume without collisions.
func IssueNumber(folder, name string) (int, bool) {
	base, ok := strings.CutSuffix(name, ".pdf")
	if !ok {
		return 0, false
	}
	rest, ok := strings.CutPrefix(base, folder+"_")
	if !ok || rest == "" {
		return 0, false
	}
	// Dated names carry the number in the last underscore segment.
	if i := strings.LastIndexByte(rest, '_'); i >= 0 {
		rest = rest[i+1:]
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// englishTitleCaser capitalizes words for English display titles.
var englishTitleCaser = cases.Title(language.English)

// EnglishTitle derives a display title from an archive folder name for
// English-language output: hyphens become spaces and each word is
// capitalized, so "hamshahri-daily" becomes "Hamshahri Daily".
func EnglishTitle(folder string) string {
	return englishTitleCaser.String(strings.ReplaceAll(folder, "-", " "))
}
