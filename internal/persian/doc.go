// Package persian provides text helpers for Iranian archive content:
// Solar Hijri month name tables, Persian and Arabic-Indic digit folding,
// and Unicode normalization for Persian strings.
package persian
