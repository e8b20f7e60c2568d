package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/irpress/kavosh/internal/model"
	"github.com/irpress/kavosh/internal/persian"
)

// Limits applied to the archive configuration file. They bound the work a
// single harvest run can be asked to do and keep a malformed or hostile
// urls.yml from producing unbounded output.
const (
	// MaxArchives caps the number of archive entries in one file.
	MaxArchives = 100

	// MaxYearsPerArchive caps the number of year keys per archive.
	MaxYearsPerArchive = 100

	// MaxURLsPerYear caps the seed URLs listed under one year.
	MaxURLsPerYear = 1000

	// MaxStringLength caps title and folder fields, counted in runes.
	MaxStringLength = 1000

	// MaxDescriptionLength caps the description field, counted in runes.
	MaxDescriptionLength = 5000

	// MaxFolderLength caps the sanitized folder name.
	MaxFolderLength = 100
)

// dangerousPatterns match script injection and URL-scheme attacks in
// configuration strings. Archive titles and descriptions end up in generated
// README files, so anything that could smuggle active content is rejected at
// load time.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)data\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)<\s*object`),
	regexp.MustCompile(`(?i)<\s*embed`),
}

// invalidFolderChars are characters that are unsafe in directory names on at
// least one supported platform, plus ASCII control characters.
var invalidFolderChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// yearKeyPattern matches a four digit year after Persian digits are folded.
var yearKeyPattern = regexp.MustCompile(`^\d{4}$`)

// Archive describes a single newspaper archive to harvest.
type Archive struct {
	// TitleFa is the archive's display title in Persian script.
	// Used as the section heading in the Persian README index.
	TitleFa string `yaml:"title_fa"`

	// Folder is the directory name for this archive's downloads beneath the
	// category directory. It is sanitized before use; see SafeFolder.
	Folder string `yaml:"folder"`

	// Category selects the directory layout and file naming scheme.
	// Must be "old-newspaper" or "newspaper".
	Category string `yaml:"category"`

	// Description is shown in the generated README indexes.
	Description string `yaml:"description"`

	// Years maps a publication year (Solar Hijri or Gregorian, four digits)
	// to the seed URLs where that year's issues are published.
	Years map[string][]string `yaml:"years"`
}

// ArchiveFile represents the urls.yml configuration file.
type ArchiveFile struct {
	// Archives lists the newspaper archives to harvest, in file order.
	Archives []Archive `yaml:"archives"`
}

// Validate checks the whole archive file against the schema and limits.
// It returns the first problem found, wrapped with enough context to locate
// the offending entry. All returned errors match a package sentinel via
// errors.Is.
func (f *ArchiveFile) Validate() error {
	if len(f.Archives) == 0 {
		return ErrNoArchives
	}
	if len(f.Archives) > MaxArchives {
		return fmt.Errorf("%w: %d entries (max %d)", ErrTooManyArchives, len(f.Archives), MaxArchives)
	}

	seen := make(map[string]int, len(f.Archives))
	for i := range f.Archives {
		a := &f.Archives[i]
		if err := a.validate(); err != nil {
			return fmt.Errorf("archive %d: %w", i, err)
		}
		folder := a.SafeFolder()
		if prev, ok := seen[folder]; ok {
			return fmt.Errorf("archive %d: folder %q already used by archive %d", i, folder, prev)
		}
		seen[folder] = i
	}
	return nil
}

// validate checks one archive entry.
func (a *Archive) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"title_fa", a.TitleFa},
		{"folder", a.Folder},
		{"category", a.Category},
		{"description", a.Description},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}
	if len(a.Years) == 0 {
		return fmt.Errorf("%w: years", ErrMissingField)
	}

	if !model.Category(a.Category).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, a.Category)
	}

	if err := checkText("title_fa", a.TitleFa, MaxStringLength); err != nil {
		return err
	}
	if err := checkText("folder", a.Folder, MaxStringLength); err != nil {
		return err
	}
	if err := checkText("description", a.Description, MaxDescriptionLength); err != nil {
		return err
	}

	if len(a.Years) > MaxYearsPerArchive {
		return fmt.Errorf("%w: %d years (max %d)", ErrTooManyYears, len(a.Years), MaxYearsPerArchive)
	}
	for year, urls := range a.Years {
		if !yearKeyPattern.MatchString(persian.FoldDigits(year)) {
			return fmt.Errorf("%w: %q", ErrInvalidYear, year)
		}
		if len(urls) > MaxURLsPerYear {
			return fmt.Errorf("%w: year %s has %d URLs (max %d)", ErrTooManyURLs, year, len(urls), MaxURLsPerYear)
		}
		for _, raw := range urls {
			if err := checkSeedURL(raw); err != nil {
				return fmt.Errorf("year %s: %w", year, err)
			}
		}
	}
	return nil
}

// checkText validates a free-form configuration string: NFC-normalized
// length within max runes and free of dangerous patterns.
func checkText(field, value string, max int) error {
	value = persian.Normalize(value)
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s", ErrStringTooLong, field)
	}
	for _, p := range dangerousPatterns {
		if p.MatchString(value) {
			return fmt.Errorf("%w: %s", ErrDangerousContent, field)
		}
	}
	return nil
}

// checkSeedURL validates that a seed URL parses and uses http or https.
func checkSeedURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidArchiveURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidArchiveURL, raw)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: %q: missing host", ErrInvalidArchiveURL, raw)
	}
	return nil
}

// SafeFolder returns the archive folder sanitized for filesystem use.
func (a *Archive) SafeFolder() string {
	return SanitizeFolder(a.Folder)
}

// SortedYears returns the archive's year keys in ascending order, so that
// processing and reporting are deterministic regardless of map iteration
// order. Keys sort on their digit-folded form.
func (a *Archive) SortedYears() []string {
	years := make([]string, 0, len(a.Years))
	for year := range a.Years {
		years = append(years, year)
	}
	sort.Slice(years, func(i, j int) bool {
		fi, fj := persian.FoldDigits(years[i]), persian.FoldDigits(years[j])
		if fi != fj {
			return fi < fj
		}
		return years[i] < years[j]
	})
	return years
}

// SanitizeFolder makes name safe for use as a directory name: characters
// that are invalid on common filesystems become underscores, leading and
// trailing spaces and dots are trimmed, the result is capped at
// MaxFolderLength runes, and an empty result falls back to
// "unnamed_folder".
func SanitizeFolder(name string) string {
	s := invalidFolderChars.ReplaceAllString(name, "_")
	s = strings.Trim(s, " .")
	if s == "" {
		return "unnamed_folder"
	}
	runes := []rune(s)
	if len(runes) > MaxFolderLength {
		s = string(runes[:MaxFolderLength])
		s = strings.Trim(s, " .")
		if s == "" {
			return "unnamed_folder"
		}
	}
	return s
}
