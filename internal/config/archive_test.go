package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// validArchive returns a minimal valid archive entry.
// Tests modify specific fields to exercise one validation rule each.
func validArchive() Archive {
	return Archive{
		TitleFa:     "روزنامه نشاط",
		Folder:      "neshat",
		Category:    "old-newspaper",
		Description: "آرشیو روزنامه نشاط",
		Years: map[string][]string{
			"1378": {"https://archive.example.com/neshat-1378/"},
		},
	}
}

// TestArchiveFileValidate tests whole-file validation rules.
func TestArchiveFileValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid file returns nil", func(t *testing.T) {
		t.Parallel()
		f := &ArchiveFile{Archives: []Archive{validArchive()}}
		if err := f.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty file returns ErrNoArchives", func(t *testing.T) {
		t.Parallel()
		f := &ArchiveFile{}
		if err := f.Validate(); !errors.Is(err, ErrNoArchives) {
			t.Errorf("expected ErrNoArchives, got %v", err)
		}
	})

	t.Run("too many archives returns ErrTooManyArchives", func(t *testing.T) {
		t.Parallel()
		f := &ArchiveFile{}
		for i := 0; i <= MaxArchives; i++ {
			a := validArchive()
			a.Folder = fmt.Sprintf("archive-%d", i)
			f.Archives = append(f.Archives, a)
		}
		if err := f.Validate(); !errors.Is(err, ErrTooManyArchives) {
			t.Errorf("expected ErrTooManyArchives, got %v", err)
		}
	})

	t.Run("duplicate sanitized folder is rejected", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		b := validArchive()
		b.TitleFa = "دیگری"
		// Different raw values that sanitize to the same directory name.
		a.Folder = "neshat."
		b.Folder = "neshat"
		f := &ArchiveFile{Archives: []Archive{a, b}}
		if err := f.Validate(); err == nil {
			t.Error("expected an error for colliding folders")
		}
	})
}

// TestArchiveValidate tests per-archive validation rules.
func TestArchiveValidate(t *testing.T) {
	t.Parallel()

	t.Run("missing title_fa returns ErrMissingField", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.TitleFa = "  "
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("missing folder returns ErrMissingField", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Folder = ""
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("missing years returns ErrMissingField", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = nil
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("unknown category returns ErrInvalidCategory", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Category = "magazine"
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("expected ErrInvalidCategory, got %v", err)
		}
	})

	t.Run("newspaper category is valid", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Category = "newspaper"
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("overlong title returns ErrStringTooLong", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.TitleFa = strings.Repeat("ن", MaxStringLength+1)
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrStringTooLong) {
			t.Errorf("expected ErrStringTooLong, got %v", err)
		}
	})

	t.Run("overlong description returns ErrStringTooLong", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Description = strings.Repeat("آ", MaxDescriptionLength+1)
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrStringTooLong) {
			t.Errorf("expected ErrStringTooLong, got %v", err)
		}
	})

	t.Run("description at the limit is valid", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Description = strings.Repeat("آ", MaxDescriptionLength)
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("script tag in description returns ErrDangerousContent", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Description = "some text <script>alert(1)</script>"
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrDangerousContent) {
			t.Errorf("expected ErrDangerousContent, got %v", err)
		}
	})

	t.Run("javascript scheme in title returns ErrDangerousContent", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.TitleFa = "javascript:alert(1)"
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrDangerousContent) {
			t.Errorf("expected ErrDangerousContent, got %v", err)
		}
	})

	t.Run("event handler in description returns ErrDangerousContent", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Description = `<img onerror = "x()">`
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrDangerousContent) {
			t.Errorf("expected ErrDangerousContent, got %v", err)
		}
	})

	t.Run("too many years returns ErrTooManyYears", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = make(map[string][]string)
		for y := 1300; y <= 1300+MaxYearsPerArchive; y++ {
			a.Years[fmt.Sprintf("%d", y)] = []string{"http://example.com/"}
		}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrTooManyYears) {
			t.Errorf("expected ErrTooManyYears, got %v", err)
		}
	})

	t.Run("too many URLs returns ErrTooManyURLs", func(t *testing.T) {
		t.Parallel()
		urls := make([]string, MaxURLsPerYear+1)
		for i := range urls {
			urls[i] = fmt.Sprintf("http://example.com/%d.pdf", i)
		}
		a := validArchive()
		a.Years = map[string][]string{"1378": urls}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrTooManyURLs) {
			t.Errorf("expected ErrTooManyURLs, got %v", err)
		}
	})

	t.Run("non-numeric year returns ErrInvalidYear", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = map[string][]string{"year-one": {"http://example.com/"}}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrInvalidYear) {
			t.Errorf("expected ErrInvalidYear, got %v", err)
		}
	})

	t.Run("two digit year returns ErrInvalidYear", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = map[string][]string{"78": {"http://example.com/"}}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrInvalidYear) {
			t.Errorf("expected ErrInvalidYear, got %v", err)
		}
	})

	t.Run("persian digit year is valid", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = map[string][]string{"۱۳۷۸": {"http://example.com/"}}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("ftp seed URL returns ErrInvalidArchiveURL", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = map[string][]string{"1378": {"ftp://example.com/files/"}}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrInvalidArchiveURL) {
			t.Errorf("expected ErrInvalidArchiveURL, got %v", err)
		}
	})

	t.Run("hostless seed URL returns ErrInvalidArchiveURL", func(t *testing.T) {
		t.Parallel()
		a := validArchive()
		a.Years = map[string][]string{"1378": {"http:///path-only"}}
		f := &ArchiveFile{Archives: []Archive{a}}
		if err := f.Validate(); !errors.Is(err, ErrInvalidArchiveURL) {
			t.Errorf("expected ErrInvalidArchiveURL, got %v", err)
		}
	})
}

// TestSanitizeFolder tests directory name sanitization.
func TestSanitizeFolder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name unchanged", "neshat", "neshat"},
		{"slashes replaced", "a/b\\c", "a_b_c"},
		{"windows reserved chars replaced", `a<b>c:d"e|f?g*h`, "a_b_c_d_e_f_g_h"},
		{"control chars replaced", "a\x00b\x1fc", "a_b_c"},
		{"trailing dots trimmed", "neshat..", "neshat"},
		{"surrounding spaces trimmed", "  neshat  ", "neshat"},
		{"empty becomes fallback", "", "unnamed_folder"},
		{"only dots becomes fallback", "...", "unnamed_folder"},
		{"persian name kept", "نشاط", "نشاط"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeFolder(tt.in); got != tt.want {
				t.Errorf("SanitizeFolder(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("long name truncated to limit", func(t *testing.T) {
		t.Parallel()
		got := SanitizeFolder(strings.Repeat("a", MaxFolderLength+50))
		if len([]rune(got)) != MaxFolderLength {
			t.Errorf("expected %d runes, got %d", MaxFolderLength, len([]rune(got)))
		}
	})
}

// TestSortedYears verifies deterministic year ordering, including Persian
// digit keys.
func TestSortedYears(t *testing.T) {
	t.Parallel()

	a := validArchive()
	a.Years = map[string][]string{
		"1380": {"http://example.com/"},
		"1378": {"http://example.com/"},
		"۱۳۷۹": {"http://example.com/"},
	}

	got := a.SortedYears()
	want := []string{"1378", "۱۳۷۹", "1380"}
	if len(got) != len(want) {
		t.Fatalf("expected %d years, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
