package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadArchiveFile tests YAML loading and the not-found sentinel.
func TestLoadArchiveFile(t *testing.T) {
	t.Parallel()

	t.Run("loads a valid file", func(t *testing.T) {
		t.Parallel()

		content := `archives:
  - title_fa: "روزنامه نشاط"
    folder: "neshat"
    category: "old-newspaper"
    description: "آرشیو روزنامه نشاط صبح تهران"
    years:
      "1378":
        - "https://archive.example.com/neshat-1378/"
        - "https://archive.example.com/neshat-extra/"
      "1379":
        - "https://archive.example.com/neshat-1379/"
`
		path := filepath.Join(t.TempDir(), "urls.yml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadArchiveFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.Archives) != 1 {
			t.Fatalf("expected 1 archive, got %d", len(f.Archives))
		}

		a := f.Archives[0]
		if a.Folder != "neshat" {
			t.Errorf("expected folder neshat, got %q", a.Folder)
		}
		if a.TitleFa != "روزنامه نشاط" {
			t.Errorf("unexpected title: %q", a.TitleFa)
		}
		if len(a.Years["1378"]) != 2 || len(a.Years["1379"]) != 1 {
			t.Errorf("unexpected year URL counts: %v", a.Years)
		}
		if err := f.Validate(); err != nil {
			t.Errorf("expected loaded file to validate, got %v", err)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadArchiveFile(filepath.Join(t.TempDir(), "nope.yml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed YAML returns a parse error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "urls.yml")
		if err := os.WriteFile(path, []byte("archives: [qu\noops"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadArchiveFile(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}

// TestFindConfigFile tests the search order for explicit paths.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte("archives: []"), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yml")); got != "" {
			t.Errorf("expected empty result, got %q", got)
		}
	})
}
