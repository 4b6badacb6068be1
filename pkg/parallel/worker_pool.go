// Package parallel runs independent tasks on a bounded set of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// Timeout is the maximum time for the entire operation.
	// Default: 0 (no timeout)
	Timeout time.Duration

	// StopOnError skips tasks that have not started once any task fails.
	StopOnError bool
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a new config with the specified timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// WithStopOnError returns a new config that stops scheduling after a failure.
func (c PoolConfig) WithStopOnError() PoolConfig {
	c.StopOnError = true
	return c
}

// PoolMetrics holds statistics of the last execution.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	SkippedTasks   int64
	TotalDuration  time.Duration
	MaxTaskTime    time.Duration
}

// TaskResult holds the result of a task execution.
type TaskResult[T any, R any] struct {
	Input    T
	Result   R
	Error    error
	Duration time.Duration
	// Skipped is set when the task never ran because the context ended
	// or an earlier task failed with StopOnError.
	Skipped bool
}

// WorkerPool executes a function over a slice of inputs concurrently.
type WorkerPool[T any, R any] struct {
	config PoolConfig

	mu      sync.Mutex
	metrics PoolMetrics
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	return &WorkerPool[T, R]{config: config}
}

// ExecuteFunc runs fn for every input and returns one result per input, in
// input order. Errors are reported per task and never abort the call.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	results := make([]TaskResult[T, R], len(inputs))
	if len(inputs) == 0 {
		p.setMetrics(PoolMetrics{})
		return results
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	start := time.Now()
	g := new(errgroup.Group)
	g.SetLimit(p.config.MaxWorkers)

	for i, input := range inputs {
		results[i].Input = input
		if runCtx.Err() != nil {
			results[i].Error = context.Cause(runCtx)
			results[i].Skipped = true
			continue
		}

		g.Go(func() error {
			if err := runCtx.Err(); err != nil {
				results[i].Error = err
				results[i].Skipped = true
				return nil
			}
			taskStart := time.Now()
			result, err := fn(runCtx, input)
			results[i].Result = result
			results[i].Error = err
			results[i].Duration = time.Since(taskStart)
			if err != nil && p.config.StopOnError {
				stop()
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics := PoolMetrics{TotalTasks: int64(len(inputs)), TotalDuration: time.Since(start)}
	for _, r := range results {
		switch {
		case r.Skipped:
			metrics.SkippedTasks++
		case r.Error != nil:
			metrics.FailedTasks++
		default:
			metrics.CompletedTasks++
		}
		if r.Duration > metrics.MaxTaskTime {
			metrics.MaxTaskTime = r.Duration
		}
	}
	p.setMetrics(metrics)

	return results
}

// Metrics returns the statistics of the last ExecuteFunc call.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func (p *WorkerPool[T, R]) setMetrics(m PoolMetrics) {
	p.mu.Lock()
	p.metrics = m
	p.mu.Unlock()
}

// Errors returns the non-nil errors of results in input order.
func Errors[T any, R any](results []TaskResult[T, R]) []error {
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, r.Error)
		}
	}
	return errs
}
