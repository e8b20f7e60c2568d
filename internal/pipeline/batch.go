package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/model"
)

// BatchProcessor runs the harvest pipeline for many archives with a
// bounded number running at once.
type BatchProcessor struct {
	// pipelineFactory builds a fresh pipeline for each archive, so step
	// state never leaks between archives and steps can be tuned per
	// archive.
	pipelineFactory func(a *config.Archive) *Pipeline

	// concurrency is the maximum number of archives harvested at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results collects per-archive outcomes, one slot per archive.
	results []*model.ArchiveResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many archives are harvested at once. The
// default is 1: the sources are mostly small newspaper servers, and
// hammering several at once from one address is how harvesters get
// banned.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor around the pipeline
// factory.
func NewBatchProcessor(pipelineFactory func(a *config.Archive) *Pipeline, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// ProcessArchives harvests all archives into outputDir and returns the
// run summary. Every archive gets a result even when it failed; the
// error return reports cancellation, not per-archive problems.
func (b *BatchProcessor) ProcessArchives(ctx context.Context, archives []config.Archive, outputDir string) (*model.Summary, error) {
	b.logger.Info("starting harvest batch",
		"archives", len(archives),
		"concurrency", b.concurrency,
	)

	summary := model.NewSummary()

	b.results = make([]*model.ArchiveResult, len(archives))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range archives {
		archive := &archives[i]

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Info("harvesting archive",
				"archive", archive.SafeFolder(),
				"index", i+1,
				"total", len(archives),
			)

			job := NewJob(archive, outputDir)
			started := time.Now()

			err := b.pipelineFactory(archive).Execute(ctx, job)

			job.Result.Duration = time.Since(started)

			b.mu.Lock()
			b.results[i] = job.Result
			b.mu.Unlock()

			if err != nil {
				// The failure is already on the result; other archives
				// should still run.
				b.logger.Warn("archive harvest failed",
					"archive", archive.SafeFolder(),
					"error", err,
				)
				return nil
			}

			b.logger.Info("archive harvest completed",
				"archive", archive.SafeFolder(),
				"downloaded", job.Result.Downloaded,
				"skipped", job.Result.Skipped,
				"failed", job.Result.Failed,
			)

			return nil
		})
	}

	err := g.Wait()

	for _, r := range b.results {
		if r != nil {
			summary.Add(r)
		}
	}
	summary.Finish()

	b.logger.Info("harvest batch complete",
		"archives", len(archives),
		"downloaded", summary.TotalDownloaded,
		"failed", summary.TotalFailed,
		"elapsed", summary.Duration(),
	)

	return summary, err
}
