package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Execute(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())

	inputs := []int{1, 2, 3, 4, 5}
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})

	if len(results) != len(inputs) {
		t.Fatalf("Expected %d results, got %d", len(inputs), len(results))
	}

	for i, r := range results {
		if r.Error != nil {
			t.Errorf("Unexpected error for input %d: %v", inputs[i], r.Error)
		}
		if r.Input != inputs[i] {
			t.Errorf("Expected input %d at position %d, got %d", inputs[i], i, r.Input)
		}
		if r.Result != inputs[i]*2 {
			t.Errorf("Expected %d, got %d", inputs[i]*2, r.Result)
		}
	}
}

func TestWorkerPool_Empty(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())

	results := pool.ExecuteFunc(context.Background(), nil, func(ctx context.Context, input int) (int, error) {
		t.Error("fn must not be called")
		return 0, nil
	})

	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
	if pool.Metrics().TotalTasks != 0 {
		t.Errorf("Expected 0 total tasks, got %d", pool.Metrics().TotalTasks)
	}
}

func TestWorkerPool_Timeout(t *testing.T) {
	config := DefaultPoolConfig().WithWorkers(2).WithTimeout(50 * time.Millisecond)
	pool := NewWorkerPool[int, int](config)

	inputs := make([]int, 10)
	for i := range inputs {
		inputs[i] = i
	}

	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return input, nil
		}
	})

	for i, r := range results {
		if !errors.Is(r.Error, context.DeadlineExceeded) {
			t.Errorf("Expected deadline exceeded for input %d, got %v", i, r.Error)
		}
	}
}

func TestWorkerPool_StopOnError(t *testing.T) {
	config := DefaultPoolConfig().WithWorkers(1).WithStopOnError()
	pool := NewWorkerPool[int, int](config)

	boom := errors.New("boom")
	var calls int32
	results := pool.ExecuteFunc(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, input int) (int, error) {
		atomic.AddInt32(&calls, 1)
		if input == 2 {
			return 0, boom
		}
		return input, nil
	})

	if results[0].Error != nil || results[0].Result != 1 {
		t.Errorf("Expected first task to succeed, got %+v", results[0])
	}
	if !errors.Is(results[1].Error, boom) {
		t.Errorf("Expected boom, got %v", results[1].Error)
	}
	for _, r := range results[2:] {
		if !r.Skipped {
			t.Errorf("Expected input %d to be skipped", r.Input)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 calls, got %d", got)
	}

	metrics := pool.Metrics()
	if metrics.CompletedTasks != 1 || metrics.FailedTasks != 1 || metrics.SkippedTasks != 2 {
		t.Errorf("Unexpected metrics: %+v", metrics)
	}
}

func TestWorkerPool_ErrorsDoNotAbort(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(3))

	results := pool.ExecuteFunc(context.Background(), []int{1, 2, 3, 4, 5, 6}, func(ctx context.Context, input int) (int, error) {
		if input%2 == 0 {
			return 0, errors.New("even")
		}
		return input, nil
	})

	errs := Errors(results)
	if len(errs) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(errs))
	}

	metrics := pool.Metrics()
	if metrics.TotalTasks != 6 {
		t.Errorf("Expected 6 total tasks, got %d", metrics.TotalTasks)
	}
	if metrics.CompletedTasks != 3 {
		t.Errorf("Expected 3 completed tasks, got %d", metrics.CompletedTasks)
	}
	if metrics.FailedTasks != 3 {
		t.Errorf("Expected 3 failed tasks, got %d", metrics.FailedTasks)
	}
}

func TestWorkerPool_Concurrency(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(2))

	var running, peak int32
	inputs := make([]int, 8)
	pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return input, nil
	})

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("Expected at most 2 concurrent workers, got %d", got)
	}
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.ExecuteFunc(ctx, []int{1, 2, 3}, func(ctx context.Context, input int) (int, error) {
		t.Error("fn must not be called")
		return input, nil
	})

	for _, r := range results {
		if !r.Skipped || !errors.Is(r.Error, context.Canceled) {
			t.Errorf("Expected skipped cancelled task, got %+v", r)
		}
	}
}

func BenchmarkWorkerPool(b *testing.B) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())
	inputs := make([]int, 1000)
	for i := range inputs {
		inputs[i] = i
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
			return input * 2, nil
		})
	}
}
