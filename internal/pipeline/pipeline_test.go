package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/irpress/kavosh/internal/config"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *Job) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *Job) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func testArchive() *config.Archive {
	return &config.Archive{
		TitleFa:  "نشاط",
		Folder:   "neshat",
		Category: "old-newspaper",
		Years: map[string][]string{
			"1377": {"https://archive.example.ir/neshat/1377/"},
		},
	}
}

func TestNewJob(t *testing.T) {
	t.Parallel()

	t.Run("initializes accumulators and result", func(t *testing.T) {
		t.Parallel()

		job := NewJob(testArchive(), "/tmp/out")

		if job.Analyses == nil {
			t.Error("expected non-nil Analyses map")
		}
		if job.Files == nil {
			t.Error("expected non-nil Files map")
		}
		if job.Result == nil {
			t.Fatal("expected non-nil Result")
		}
		if job.Result.Archive != "neshat" {
			t.Errorf("expected result archive %q, got %q", "neshat", job.Result.Archive)
		}
		if job.Result.TitleFa != "نشاط" {
			t.Errorf("expected result title %q, got %q", "نشاط", job.Result.TitleFa)
		}
		if job.OutputDir != "/tmp/out" {
			t.Errorf("expected output dir %q, got %q", "/tmp/out", job.OutputDir)
		}
	})

	t.Run("folder comes from the sanitized archive folder", func(t *testing.T) {
		t.Parallel()

		a := testArchive()
		a.Folder = "Neshat Daily"
		job := NewJob(a, ".")

		if got := job.Folder(); got != a.SafeFolder() {
			t.Errorf("expected folder %q, got %q", a.SafeFolder(), got)
		}
	})
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "classify"})

		if p.StepCount() != 1 {
			t.Errorf("expected 1 step, got %d", p.StepCount())
		}
	})

	t.Run("adds multiple steps in order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "classify"},
			&mockStep{name: "crawl"},
			&mockStep{name: "download"},
		)

		names := p.StepNames()
		expected := []string{"classify", "crawl", "download"}

		if len(names) != len(expected) {
			t.Fatalf("expected %d steps, got %d", len(expected), len(names))
		}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)

		p := New()
		p.AddStep(&mockStep{
			name: "first",
			doFunc: func(_ context.Context, _ *Job) error {
				order = append(order, "first")
				return nil
			},
		})
		p.AddStep(&mockStep{
			name: "second",
			doFunc: func(_ context.Context, _ *Job) error {
				order = append(order, "second")
				return nil
			},
		})

		job := NewJob(testArchive(), t.TempDir())
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("wrong execution order: %v", order)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("listing unreachable")
		secondCalled := false

		p := New()
		p.AddStep(&mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *Job) error {
				return stepErr
			},
		})
		p.AddStep(&mockStep{
			name: "never-runs",
			doFunc: func(_ context.Context, _ *Job) error {
				secondCalled = true
				return nil
			},
		})

		job := NewJob(testArchive(), t.TempDir())
		err := p.Execute(context.Background(), job)

		if !errors.Is(err, stepErr) {
			t.Errorf("expected error %v, got %v", stepErr, err)
		}
		if secondCalled {
			t.Error("second step should not have been called")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		secondCalled := false

		p := New(WithContinueOnError(true))
		p.AddStep(&mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *Job) error {
				return errors.New("listing unreachable")
			},
		})
		p.AddStep(&mockStep{
			name: "still-runs",
			doFunc: func(_ context.Context, _ *Job) error {
				secondCalled = true
				return nil
			},
		})

		job := NewJob(testArchive(), t.TempDir())
		if err := p.Execute(context.Background(), job); err != nil {
			t.Errorf("expected nil error with continueOnError, got %v", err)
		}
		if !secondCalled {
			t.Error("second step should have been called")
		}
	})

	t.Run("records step failures on the result", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{
			name: "crawl",
			doFunc: func(_ context.Context, _ *Job) error {
				return errors.New("listing unreachable")
			},
		})

		job := NewJob(testArchive(), t.TempDir())
		_ = p.Execute(context.Background(), job)

		if len(job.Result.Errors) != 1 {
			t.Fatalf("expected 1 recorded error, got %d", len(job.Result.Errors))
		}
		if !strings.Contains(job.Result.Errors[0], "crawl step failed") {
			t.Errorf("unexpected error message: %q", job.Result.Errors[0])
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		p := New()
		p.AddStep(&mockStep{
			name: "never-runs",
			doFunc: func(_ context.Context, _ *Job) error {
				called = true
				return nil
			},
		})

		job := NewJob(testArchive(), t.TempDir())
		err := p.Execute(ctx, job)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if called {
			t.Error("step should not have been called")
		}
		if len(job.Result.Errors) == 0 {
			t.Error("expected cancellation to be recorded on the result")
		}
	})
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		if names := New().StepNames(); len(names) != 0 {
			t.Errorf("expected empty slice, got %v", names)
		}
	})
}
