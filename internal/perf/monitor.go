// Package perf samples runtime resource usage during a harvest so the
// final report can show peak memory, goroutine high-water marks, and
// throughput.
package perf

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/irpress/kavosh/internal/model"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 500 * time.Millisecond

// Monitor watches heap allocation and goroutine counts on a ticker
// until stopped.
type Monitor struct {
	interval time.Duration
	logger   *slog.Logger

	mu            sync.Mutex
	started       time.Time
	peakAlloc     uint64
	maxGoroutines int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sampling period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Start begins sampling in the background. Call Stop to collect the
// results.
func Start(opts ...Option) *Monitor {
	m := &Monitor{
		interval: DefaultInterval,
		started:  time.Now(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.sample()
	go m.loop()

	return m
}

func (m *Monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	goroutines := runtime.NumGoroutine()

	m.mu.Lock()
	if ms.Alloc > m.peakAlloc {
		m.peakAlloc = ms.Alloc
	}
	if goroutines > m.maxGoroutines {
		m.maxGoroutines = goroutines
	}
	m.mu.Unlock()
}

// Stop ends sampling and returns the collected stats. The files and
// bytes counts scale the throughput figures. Subsequent calls return
// the same peaks with an updated duration.
func (m *Monitor) Stop(files int, bytes int64) *model.PerfStats {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
		m.sample()
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &model.PerfStats{
		Duration:      time.Since(m.started),
		PeakAllocMB:   float64(m.peakAlloc) / (1 << 20),
		MaxGoroutines: m.maxGoroutines,
	}

	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.FilesPerSecond = float64(files) / secs
		stats.MBPerSecond = float64(bytes) / (1 << 20) / secs
	}

	m.logger.Debug("performance monitoring stopped",
		"duration", stats.Duration,
		"peak_alloc_mb", stats.PeakAllocMB,
		"max_goroutines", stats.MaxGoroutines,
	)

	return stats
}
