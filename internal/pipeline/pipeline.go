package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/irpress/kavosh/internal/classify"
	"github.com/irpress/kavosh/internal/config"
	"github.com/irpress/kavosh/internal/model"
)

// Job carries one archive through the pipeline. Steps read what earlier
// steps produced and append their own discoveries; the embedded result
// accumulates counters for the final report.
type Job struct {
	// Archive is the configuration entry being harvested.
	Archive *config.Archive

	// OutputDir is the collection root. The category/folder/year tree is
	// created beneath it.
	OutputDir string

	// Analyses holds the classification of each seed URL, keyed by URL.
	// Filled by the classify step.
	Analyses map[string]classify.Analysis

	// Files holds the downloadable URLs discovered for each year. Year
	// keys are digit-folded to ASCII. Filled by the crawl step.
	Files map[string][]string

	// Result accumulates per-year counters and errors across all steps.
	Result *model.ArchiveResult
}

// NewJob creates a Job for the archive with empty accumulators.
func NewJob(a *config.Archive, outputDir string) *Job {
	return &Job{
		Archive:   a,
		OutputDir: outputDir,
		Analyses:  make(map[string]classify.Analysis),
		Files:     make(map[string][]string),
		Result:    model.NewArchiveResult(a.SafeFolder(), a.TitleFa, model.Category(a.Category)),
	}
}

// Folder returns the archive's sanitized folder name.
func (j *Job) Folder() string {
	return j.Archive.SafeFolder()
}

// Step is one stage of the harvest pipeline. Steps are executed in
// sequence, each receiving the job the previous steps worked on.
//
// A step returns an error only for failures that should stop the
// archive; recoverable problems are recorded on the job's result and
// return nil so the remaining steps still run.
type Step interface {
	// Do executes the step against the job.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes an ordered list of steps against one job.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps later steps running after one fails. When
	// false, the pipeline stops at the first error.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run every step even
// when one fails. Failed steps are logged and recorded on the result,
// and the remaining steps still execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline with the given options. Steps are added
// with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline. Steps run in the order added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against the job. Cancellation is
// checked between steps; steps handle their own timeouts internally.
//
// Returns the first step error when continueOnError is false. Step
// errors are also recorded on the job's result, so a nil return does not
// mean the archive was problem-free.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"archive", job.Folder(),
				"reason", ctx.Err(),
			)
			job.Result.AddError(fmt.Sprintf("Processing cancelled before %s: %v", step.Name(), ctx.Err()))
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"archive", job.Folder(),
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"archive", job.Folder(),
				"error", err,
			)

			job.Result.AddError(fmt.Sprintf("%s step failed: %v", step.Name(), err))

			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"archive", job.Folder(),
			)
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
