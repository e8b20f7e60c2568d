package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/database"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [archive]",
		Short: "Show download statistics from the state database",
		Long: `Status reports what earlier harvests recorded in the state database:
totals across all archives, the per-year breakdown of one archive,
failed downloads, and recent crawl sessions.`,
		Example: `  kavosh status
  kavosh status neshat
  kavosh status neshat --failed
  kavosh status --sessions`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStatus,
	}

	cmd.Flags().Bool("failed", false, "List failed downloads instead of statistics")
	cmd.Flags().Bool("sessions", false, "List recent crawl sessions")
	cmd.Flags().String("db-dir", "", "Directory holding the state database (default: XDG data dir)")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	var archive string
	if len(args) == 1 {
		archive = args[0]
	}

	showFailed, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return fmt.Errorf("failed to get failed flag: %w", err)
	}
	showSessions, err := cmd.Flags().GetBool("sessions")
	if err != nil {
		return fmt.Errorf("failed to get sessions flag: %w", err)
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return fmt.Errorf("failed to get db-dir flag: %w", err)
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Status never creates a database; an empty one would only report
	// zeroes and hide the real problem.
	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no state database in %s, run \"kavosh harvest\" first: %w", dbDir, err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case showFailed:
		return printFailedDownloads(ctx, out, db, archive)
	case showSessions:
		return printRecentSessions(ctx, out, db)
	case archive != "":
		return printArchiveStats(ctx, out, db, archive)
	default:
		return printTotals(ctx, out, db)
	}
}

func printTotals(ctx context.Context, out io.Writer, db *database.StateDB) error {
	totals, err := db.Totals(ctx)
	if err != nil {
		return fmt.Errorf("failed to read totals: %w", err)
	}

	fmt.Fprintf(out, "State database: %s\n\n", db.Path())
	fmt.Fprintf(out, "  Archives:   %d\n", totals.Archives)
	fmt.Fprintf(out, "  Files:      %d\n", totals.Files)
	fmt.Fprintf(out, "  Total size: %s\n", formatBytes(totals.Bytes))
	fmt.Fprintf(out, "  Failed:     %d\n", totals.Failed)

	archives, err := db.ListArchives(ctx)
	if err != nil {
		return fmt.Errorf("failed to list archives: %w", err)
	}
	if len(archives) > 0 {
		fmt.Fprintf(out, "\nArchives:\n")
		for _, a := range archives {
			fmt.Fprintf(out, "  %s\n", a)
		}
	}
	return nil
}

func printArchiveStats(ctx context.Context, out io.Writer, db *database.StateDB, archive string) error {
	stat, err := db.ArchiveStats(ctx, archive)
	if err != nil {
		return fmt.Errorf("failed to read stats for %s: %w", archive, err)
	}

	fmt.Fprintf(out, "Archive %s: %d files, %s\n", stat.Archive, stat.Files, formatBytes(stat.Bytes))
	if len(stat.Years) == 0 {
		fmt.Fprintf(out, "  nothing recorded yet\n")
		return nil
	}
	for _, y := range stat.Years {
		fmt.Fprintf(out, "  %s: %d files, %s\n", y.Year, y.Files, formatBytes(y.Bytes))
	}
	return nil
}

func printFailedDownloads(ctx context.Context, out io.Writer, db *database.StateDB, archive string) error {
	failed, err := db.FailedDownloads(ctx, archive)
	if err != nil {
		return fmt.Errorf("failed to list failed downloads: %w", err)
	}

	if len(failed) == 0 {
		fmt.Fprintf(out, "No failed downloads.\n")
		return nil
	}
	fmt.Fprintf(out, "Failed downloads (%d):\n", len(failed))
	for _, r := range failed {
		fmt.Fprintf(out, "  [%s] %s\n", r.Timestamp.Format(time.DateTime), r.URL)
		if r.Error != "" {
			fmt.Fprintf(out, "      %s\n", r.Error)
		}
	}
	return nil
}

func printRecentSessions(ctx context.Context, out io.Writer, db *database.StateDB) error {
	sessions, err := db.RecentSessions(ctx, 10)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintf(out, "No crawl sessions recorded.\n")
		return nil
	}
	fmt.Fprintf(out, "Recent crawl sessions (%d):\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(out, "  [%s] %s %s\n", s.Timestamp.Format(time.DateTime), s.Archive, s.BaseURL)
		fmt.Fprintf(out, "      %d files, %d directories, %d errors, depth %d, %s\n",
			s.FilesFound, s.DirsFound, s.ErrorCount, s.Depth, s.Duration.Round(time.Millisecond))
	}
	return nil
}

// formatBytes formats a byte count for display: 512 B, 14.2 KB, 1.3 GB.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
