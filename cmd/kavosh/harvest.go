package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/irpress/kavosh/internal/classify"
	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/crawler"
	"github.com/irpress/kavosh/internal/database"
	"github.com/irpress/kavosh/internal/fetch"
	"github.com/irpress/kavosh/internal/log"
	"github.com/irpress/kavosh/internal/model"
	"github.com/irpress/kavosh/internal/perf"
	"github.com/irpress/kavosh/internal/pipeline"
	"github.com/irpress/kavosh/internal/report"
	"github.com/irpress/kavosh/internal/security"
)

// NewHarvestCmd creates the harvest command.
func NewHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Download every archive defined in the configuration file",
		Long: `Harvest runs the full workflow for each archive in urls.yml:
classify the seed URLs, crawl directory listings for PDF issues,
download new issues into <output>/<category>/<folder>/<year>/, record
the outcome in the state database, and regenerate the README indexes.

A failure in one archive never stops the others. Per-archive errors are
collected on the summary report and the command still exits cleanly.`,
		Example: `  kavosh harvest
  kavosh harvest -c urls.yml -o ./archives
  kavosh harvest --batch 2 --json --output-report report.json`,
		RunE: runHarvest,
	}

	cmd.Flags().StringP("config", "c", "", "Path to the archive configuration file (default: urls.yml)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Directory the archive tree is written into")
	cmd.Flags().Int("batch", config.DefaultBatchSize, "Number of archives harvested concurrently")
	cmd.Flags().Int("depth", config.DefaultCrawlDepth, "Maximum crawl depth below each seed URL")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay, "Pause between directory listing requests")
	cmd.Flags().Int("max-files", config.DefaultMaxFilesPerDir, "Maximum number of files collected per directory")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "HTTP timeout for crawl and classification requests")
	cmd.Flags().Bool("content", false, "Probe seed URLs over HTTP during classification")
	cmd.Flags().BoolP("json", "j", false, "Write the summary report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Write the summary report as Markdown")
	cmd.Flags().String("output-report", "", "Write the summary report to a file instead of stdout")
	cmd.Flags().Bool("no-db", false, "Do not record downloads in the state database")

	return cmd
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := buildHarvestConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	var db *database.StateDB
	if cfg.SaveToDB {
		dbDir := cfg.DBDir
		if dbDir == "" {
			dbDir = config.XDGDataDir()
		}
		db, err = database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer db.Close()
	}

	gate := security.NewGate(logger)
	fetcher := fetch.NewFetcher(gate,
		fetch.WithMaxFileSize(cfg.MaxFileSize),
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxRedirects(cfg.MaxRedirects),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(logger),
	)
	classifier := classify.NewClassifier(
		classify.WithUserAgent(cfg.UserAgent),
		classify.WithMaxBodySize(cfg.MaxBodySize),
		classify.WithLogger(logger),
	)
	limits := crawler.Limits{
		MaxDepth:       cfg.CrawlDepth,
		MaxFilesPerDir: cfg.MaxFilesPerDir,
		MaxTotalFiles:  cfg.MaxTotalFiles,
		Timeout:        cfg.Timeout,
		Delay:          cfg.CrawlDelay,
		UserAgent:      cfg.UserAgent,
	}

	// A nil *StateDB must not end up inside the interfaces below, or the
	// nil checks in the consumers stop working.
	var stats report.StatsSource
	if db != nil {
		stats = db
	}
	indexWriter := report.NewIndexWriter(cfg.OutputDir, stats, report.WithIndexLogger(logger))

	crawlOpts := []pipeline.CrawlOption{pipeline.WithCrawlLogger(logger)}
	downloadOpts := []pipeline.DownloadOption{pipeline.WithDownloadLogger(logger)}
	if db != nil {
		crawlOpts = append(crawlOpts, pipeline.WithCrawlSessions(db))
		downloadOpts = append(downloadOpts, pipeline.WithDownloadState(db))
	}

	factory := func(*config.Archive) *pipeline.Pipeline {
		p := pipeline.New(
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		)
		p.AddSteps(
			pipeline.NewClassifyStep(classifier,
				pipeline.WithClassifyContent(cfg.CheckContent),
				pipeline.WithClassifyLogger(logger)),
			pipeline.NewCrawlStep(limits, crawlOpts...),
			pipeline.NewDownloadStep(fetcher, downloadOpts...),
			pipeline.NewIndexStep(indexWriter, pipeline.WithIndexLogger(logger)),
		)
		return p
	}

	monitor := perf.Start(perf.WithLogger(logger))

	processor := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	summary, runErr := processor.ProcessArchives(ctx, cfg.Archives.Archives, cfg.OutputDir)
	summary.Performance = monitor.Stop(summary.TotalDownloaded, summary.TotalBytes)

	if err := indexWriter.WriteRootIndex(cfg.Archives.Archives); err != nil {
		logger.Warn("failed to write root index", "error", err)
	}

	// Partial results are still worth reporting after an interrupt: the
	// state database knows what was downloaded, so the next run resumes.
	if err := writeSummaryReport(cfg, summary); err != nil {
		return err
	}

	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("harvest interrupted: %w", runErr)
	}
	return nil
}

// buildHarvestConfig assembles the harvest configuration from flags.
func buildHarvestConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath != "" {
		// An explicitly named file that does not exist is an error, not
		// a reason to fall back to the search path.
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
	} else {
		configPath = config.FindConfigFile("")
		if configPath == "" {
			return nil, fmt.Errorf("%w: create one with \"kavosh init\"", config.ErrConfigNotFound)
		}
	}
	cfg.ConfigFilePath = configPath

	archives, err := config.LoadArchiveFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := archives.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}
	cfg.Archives = archives

	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, fmt.Errorf("failed to get output flag: %w", err)
	}
	cfg.OutputDir = outputDir

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, fmt.Errorf("failed to get batch flag: %w", err)
	}
	cfg.BatchSize = batch

	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, fmt.Errorf("failed to get depth flag: %w", err)
	}
	cfg.CrawlDepth = depth

	delay, err := cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, fmt.Errorf("failed to get delay flag: %w", err)
	}
	cfg.CrawlDelay = delay

	maxFiles, err := cmd.Flags().GetInt("max-files")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-files flag: %w", err)
	}
	cfg.MaxFilesPerDir = maxFiles

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, fmt.Errorf("failed to get timeout flag: %w", err)
	}
	cfg.Timeout = timeout

	checkContent, err := cmd.Flags().GetBool("content")
	if err != nil {
		return nil, fmt.Errorf("failed to get content flag: %w", err)
	}
	cfg.CheckContent = checkContent

	jsonReport, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, fmt.Errorf("failed to get json flag: %w", err)
	}
	cfg.JSONReport = jsonReport

	markdownReport, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, fmt.Errorf("failed to get markdown flag: %w", err)
	}
	cfg.MarkdownReport = markdownReport

	reportFile, err := cmd.Flags().GetString("output-report")
	if err != nil {
		return nil, fmt.Errorf("failed to get output-report flag: %w", err)
	}
	cfg.ReportFile = reportFile

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-db flag: %w", err)
	}
	cfg.SaveToDB = !noDB

	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getVerboseFlag reads the persistent verbose flag, falling back to the
// root command when the flag was registered there.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// signalContext derives a context that is cancelled on SIGINT or
// SIGTERM. In-flight downloads stop at the next cancellation point and
// partial results are kept.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received signal, stopping", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// writeSummaryReport writes the run summary in the configured format to
// the configured destination.
func writeSummaryReport(cfg *config.Config, summary *model.Summary) error {
	var out io.Writer = os.Stdout
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
