package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/irpress/kavosh/internal/database"
)

// seedStateDB creates a state database with one downloaded file, one
// failed download, and one crawl session, then closes it.
func seedStateDB(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open state database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	_, err = db.RecordDownload(ctx, &database.DownloadRecord{
		Archive:   "neshat",
		Year:      "1377",
		URL:       "https://archive.example.ir/neshat/1377/01.pdf",
		Path:      "old-newspaper/neshat/1377/neshat_1377_001.pdf",
		SizeBytes: 2048,
		Digest:    "abc123",
		Status:    database.StatusDownloaded,
	})
	if err != nil {
		t.Fatalf("failed to record download: %v", err)
	}

	_, err = db.RecordDownload(ctx, &database.DownloadRecord{
		Archive: "neshat",
		Year:    "1378",
		URL:     "https://archive.example.ir/neshat/1378/02.pdf",
		Status:  database.StatusFailed,
		Error:   "connection reset",
	})
	if err != nil {
		t.Fatalf("failed to record failure: %v", err)
	}

	_, err = db.RecordSession(ctx, &database.SessionRecord{
		BaseURL:    "https://archive.example.ir/neshat/",
		Archive:    "neshat",
		FilesFound: 2,
		DirsFound:  1,
		Depth:      5,
		Duration:   1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to record session: %v", err)
	}

	return dir
}

// TestNewStatusCmd tests the status command creation.
func TestNewStatusCmd(t *testing.T) {
	t.Parallel()

	cmd := NewStatusCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "status [archive]" {
			t.Errorf("expected use 'status [archive]', got %q", cmd.Use)
		}
	})

	t.Run("has failed flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("failed")
		if flag == nil {
			t.Fatal("expected failed flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default false, got %q", flag.DefValue)
		}
	})

	t.Run("has sessions flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("sessions") == nil {
			t.Error("expected sessions flag")
		}
	})

	t.Run("has db-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db-dir") == nil {
			t.Error("expected db-dir flag")
		}
	})
}

// TestRunStatus tests the status command execution.
func TestRunStatus(t *testing.T) {
	t.Parallel()

	t.Run("prints totals", func(t *testing.T) {
		t.Parallel()

		dir := seedStateDB(t)
		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"State database:",
			"Archives:   1",
			"Files:      1",
			"Total size: 2.0 KB",
			"Failed:     1",
			"neshat",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output, got %q", want, output)
			}
		}
	})

	t.Run("prints archive statistics by year", func(t *testing.T) {
		t.Parallel()

		dir := seedStateDB(t)
		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"neshat", "--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Archive neshat: 1 files, 2.0 KB") {
			t.Errorf("expected archive totals in output, got %q", output)
		}
		if !strings.Contains(output, "1377: 1 files") {
			t.Errorf("expected year breakdown in output, got %q", output)
		}
	})

	t.Run("reports an empty archive", func(t *testing.T) {
		t.Parallel()

		dir := seedStateDB(t)
		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"ettelaat", "--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "nothing recorded yet") {
			t.Errorf("expected empty-archive notice, got %q", buf.String())
		}
	})

	t.Run("lists failed downloads", func(t *testing.T) {
		t.Parallel()

		dir := seedStateDB(t)
		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--failed", "--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Failed downloads (1):") {
			t.Errorf("expected failed listing in output, got %q", output)
		}
		if !strings.Contains(output, "https://archive.example.ir/neshat/1378/02.pdf") {
			t.Errorf("expected failed URL in output, got %q", output)
		}
		if !strings.Contains(output, "connection reset") {
			t.Errorf("expected failure reason in output, got %q", output)
		}
	})

	t.Run("lists recent sessions", func(t *testing.T) {
		t.Parallel()

		dir := seedStateDB(t)
		var buf bytes.Buffer
		cmd := NewStatusCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--sessions", "--db-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Recent crawl sessions (1):") {
			t.Errorf("expected session listing in output, got %q", output)
		}
		if !strings.Contains(output, "https://archive.example.ir/neshat/") {
			t.Errorf("expected session base URL in output, got %q", output)
		}
		if !strings.Contains(output, "2 files, 1 directories, 0 errors, depth 5") {
			t.Errorf("expected session counters in output, got %q", output)
		}
	})

	t.Run("fails when no database exists", func(t *testing.T) {
		t.Parallel()

		cmd := NewStatusCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected an error when the database is missing")
		}
		if !strings.Contains(err.Error(), "no state database") {
			t.Errorf("expected a missing-database error, got %v", err)
		}
	})
}

// TestFormatBytes tests byte count formatting.
func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
