package persian

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MonthsFa lists the Solar Hijri month names in Persian script, in calendar
// order (Farvardin through Esfand).
var MonthsFa = []string{
	"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
}

// MonthsEn lists the Gregorian month names in lowercase English.
var MonthsEn = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// MonthAbbrsEn lists the three-letter lowercase Gregorian month
// abbreviations.
var MonthAbbrsEn = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// Alternation joins names into a regular expression alternation,
// e.g. "jan|feb|mar".
func Alternation(names []string) string {
	return strings.Join(names, "|")
}

// foldDigits maps Extended Arabic-Indic (Persian, U+06F0..U+06F9) and
// Arabic-Indic (U+0660..U+0669) digits to their ASCII equivalents and leaves
// every other rune untouched.
var foldDigits = runes.Map(func(r rune) rune {
	switch {
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	}
	return r
})

// FoldDigits rewrites Persian and Arabic-Indic digits in s to ASCII digits.
// Year and month patterns match on the folded form, so "نشاط-۱۳۷۸" and
// "neshat-1378" classify the same way.
func FoldDigits(s string) string {
	out, _, err := transform.String(foldDigits, s)
	if err != nil {
		return s
	}
	return out
}

// asciiToPersian maps ASCII digits to Persian digits for Persian-language
// output.
var asciiToPersian = runes.Map(func(r rune) rune {
	if r >= '0' && r <= '9' {
		return '۰' + (r - '0')
	}
	return r
})

// Digits rewrites ASCII digits in s to Persian digits. Used when rendering
// counts and years in Persian-language documents.
func Digits(s string) string {
	out, _, err := transform.String(asciiToPersian, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize returns s in Unicode NFC form. Persian titles and descriptions
// from configuration files are normalized before validation and output so
// that visually identical strings compare equal.
func Normalize(s string) string {
	return norm.NFC.String(s)
}
