package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// dbFileName is the SQLite file created inside the state directory.
const dbFileName = "kavosh.db"

// Status is the recorded outcome of a download attempt.
type Status string

const (
	// StatusDownloaded marks a file fetched and verified during this or an
	// earlier run.
	StatusDownloaded Status = "downloaded"
	// StatusSkipped marks a file that was already present on disk.
	StatusSkipped Status = "skipped"
	// StatusFailed marks a download that exhausted its retries or failed
	// validation.
	StatusFailed Status = "failed"
)

// DownloadRecord is one row of the downloads table.
type DownloadRecord struct {
	ID        int64
	Archive   string
	Year      string
	URL       string
	Path      string
	SizeBytes int64
	Digest    string
	Title     string
	Status    Status
	Error     string
	Timestamp time.Time
}

// SessionRecord is one row of the sessions table. A session covers a single
// crawl of one base URL.
type SessionRecord struct {
	ID         string
	BaseURL    string
	Archive    string
	FilesFound int
	DirsFound  int
	ErrorCount int
	Depth      int
	Duration   time.Duration
	Timestamp  time.Time
}

// YearStat aggregates downloaded files for one publication year.
type YearStat struct {
	Year  string
	Files int
	Bytes int64
}

// ArchiveStat aggregates downloaded files for one archive, broken down by
// year. Years are sorted ascending.
type ArchiveStat struct {
	Archive string
	Files   int
	Bytes   int64
	Years   []YearStat
}

// Totals aggregates the downloads table across all archives.
type Totals struct {
	Archives int
	Files    int
	Bytes    int64
	Failed   int
}

// Options configures how the state database is opened.
type Options struct {
	// CreateIfNotExists creates the database file and its directory when
	// they do not exist yet.
	CreateIfNotExists bool

	// EnableWAL switches the database to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the harvesting pipeline.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// StateDB records downloads and crawl sessions. It is what makes harvesting
// idempotent across runs: files recorded as downloaded or skipped are not
// fetched again.
type StateDB struct {
	db     *sql.DB
	dbPath string
}

// Open opens the state database inside dbDir, creating it when the options
// allow. The connection pool is limited to a single connection because
// SQLite only supports one writer at a time.
func Open(dbDir string, opts Options) (*StateDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("state database does not exist: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &StateDB{db: db, dbPath: dbPath}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database handle.
func (s *StateDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *StateDB) Path() string {
	return s.dbPath
}

func (s *StateDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		archive TEXT NOT NULL,
		year TEXT NOT NULL,
		url TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(archive, url)
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_archive ON downloads(archive);
	CREATE INDEX IF NOT EXISTS idx_downloads_year ON downloads(archive, year);
	CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		archive TEXT NOT NULL DEFAULT '',
		files_found INTEGER NOT NULL DEFAULT 0,
		dirs_found INTEGER NOT NULL DEFAULT 0,
		error_count INTEGER NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_archive ON sessions(archive);
	CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// RecordDownload inserts or updates the row for rec's archive and URL and
// returns its row ID. Re-recording an existing URL overwrites the outcome,
// so a retry that succeeds replaces an earlier failure.
func (s *StateDB) RecordDownload(ctx context.Context, rec *DownloadRecord) (int64, error) {
	query := `
	INSERT INTO downloads (archive, year, url, path, size_bytes, digest, title, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(archive, url) DO UPDATE SET
		year = excluded.year,
		path = excluded.path,
		size_bytes = excluded.size_bytes,
		digest = excluded.digest,
		title = excluded.title,
		status = excluded.status,
		error = excluded.error,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Archive, rec.Year, rec.URL, rec.Path,
		rec.SizeBytes, rec.Digest, rec.Title, string(rec.Status), rec.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to record download: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM downloads WHERE archive = ? AND url = ?",
		rec.Archive, rec.URL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read download id: %w", err)
	}
	return id, nil
}

// IsDownloaded reports whether the URL has already been fetched for the
// archive. Skipped files count as downloaded because both mean the file is
// present on disk; failed attempts do not.
func (s *StateDB) IsDownloaded(ctx context.Context, archive, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM downloads WHERE archive = ? AND url = ? AND status IN (?, ?)",
		archive, url, string(StatusDownloaded), string(StatusSkipped)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check download state: %w", err)
	}
	return count > 0, nil
}

// GetDownload returns the recorded row for the URL, or nil when the URL has
// never been recorded for the archive.
func (s *StateDB) GetDownload(ctx context.Context, archive, url string) (*DownloadRecord, error) {
	var (
		rec       DownloadRecord
		status    string
		timestamp string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, archive, year, url, path, size_bytes, digest, title, status, error, timestamp
		FROM downloads WHERE archive = ? AND url = ?`,
		archive, url).Scan(
		&rec.ID, &rec.Archive, &rec.Year, &rec.URL, &rec.Path,
		&rec.SizeBytes, &rec.Digest, &rec.Title, &status, &rec.Error, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get download: %w", err)
	}

	rec.Status = Status(status)
	rec.Timestamp = parseTimestamp(timestamp)
	return &rec, nil
}

// FailedDownloads lists downloads whose last recorded outcome was a failure,
// newest first. An empty archive selects failures across all archives.
func (s *StateDB) FailedDownloads(ctx context.Context, archive string) ([]DownloadRecord, error) {
	query := `
		SELECT id, archive, year, url, path, size_bytes, digest, title, status, error, timestamp
		FROM downloads WHERE status = ?`
	args := []any{string(StatusFailed)}

	if archive != "" {
		query += " AND archive = ?"
		args = append(args, archive)
	}
	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed downloads: %w", err)
	}
	defer rows.Close()

	return scanDownloads(rows)
}

// ArchiveStats aggregates downloaded files and bytes for one archive,
// broken down by year. An archive with no downloads yields zero totals and
// no years.
func (s *StateDB) ArchiveStats(ctx context.Context, archive string) (*ArchiveStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, COUNT(*), COALESCE(SUM(size_bytes), 0)
		FROM downloads
		WHERE archive = ? AND status IN (?, ?)
		GROUP BY year ORDER BY year`,
		archive, string(StatusDownloaded), string(StatusSkipped))
	if err != nil {
		return nil, fmt.Errorf("failed to query archive stats: %w", err)
	}
	defer rows.Close()

	stat := &ArchiveStat{Archive: archive}
	for rows.Next() {
		var ys YearStat
		if err := rows.Scan(&ys.Year, &ys.Files, &ys.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan year stats: %w", err)
		}
		stat.Files += ys.Files
		stat.Bytes += ys.Bytes
		stat.Years = append(stat.Years, ys)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate year stats: %w", err)
	}
	return stat, nil
}

// Totals aggregates the downloads table across all archives. Failed rows
// are counted separately and excluded from the file and byte totals.
func (s *StateDB) Totals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(COUNT(DISTINCT CASE WHEN status != ? THEN archive END), 0),
			COALESCE(SUM(CASE WHEN status != ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status != ? THEN size_bytes ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM downloads`,
		string(StatusFailed), string(StatusFailed), string(StatusFailed), string(StatusFailed)).
		Scan(&t.Archives, &t.Files, &t.Bytes, &t.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	return &t, nil
}

// ListArchives returns the archives that have at least one recorded
// download, sorted by name.
func (s *StateDB) ListArchives(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT archive FROM downloads ORDER BY archive")
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	defer rows.Close()

	var archives []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan archive name: %w", err)
		}
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archives: %w", err)
	}
	return archives, nil
}

// RecordSession stores one crawl session and returns its ID. A fresh UUID
// is assigned when rec carries none.
func (s *StateDB) RecordSession(ctx context.Context, rec *SessionRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, base_url, archive, files_found, dirs_found, error_count, depth, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.BaseURL, rec.Archive, rec.FilesFound, rec.DirsFound,
		rec.ErrorCount, rec.Depth, rec.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}
	return id, nil
}

// RecentSessions returns the most recent crawl sessions, newest first.
// A non-positive limit defaults to 10.
func (s *StateDB) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, base_url, archive, files_found, dirs_found, error_count, depth, duration_ms, timestamp
		FROM sessions ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var (
			rec        SessionRecord
			durationMS int64
			timestamp  string
		)
		err := rows.Scan(&rec.ID, &rec.BaseURL, &rec.Archive,
			&rec.FilesFound, &rec.DirsFound, &rec.ErrorCount,
			&rec.Depth, &durationMS, &timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Timestamp = parseTimestamp(timestamp)
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanDownloads(rows *sql.Rows) ([]DownloadRecord, error) {
	var records []DownloadRecord
	for rows.Next() {
		var (
			rec       DownloadRecord
			status    string
			timestamp string
		)
		err := rows.Scan(&rec.ID, &rec.Archive, &rec.Year, &rec.URL, &rec.Path,
			&rec.SizeBytes, &rec.Digest, &rec.Title, &status, &rec.Error, &timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		rec.Status = Status(status)
		rec.Timestamp = parseTimestamp(timestamp)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate downloads: %w", err)
	}
	return records, nil
}

// timestampFormats lists the layouts SQLite may hand back for a DATETIME
// column, most common first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05.999",
	time.RFC3339,
	time.RFC3339Nano,
}

func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
