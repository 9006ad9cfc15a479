package dynamo

import (
	"context"
	"sync"
)

// Ensemble runs independent simulations concurrently. Each run owns its own
// state; nothing is shared between goroutines except the result slots.
type Ensemble[T any] struct {
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble[T any](numRuns int, seedStart int64, workers int) *Ensemble[T] {
	if workers < 1 {
		workers = 4
	}
	return &Ensemble[T]{numRuns: numRuns, seedStart: seedStart, workers: workers}
}

// Run calls run once per seed in [seedStart, seedStart+numRuns) and returns
// the results in seed order. The first error aborts the ensemble.
func (e *Ensemble[T]) Run(ctx context.Context, run func(ctx context.Context, seed int64) (T, error)) ([]T, error) {
	results := make([]T, e.numRuns)
	errs := make([]error, e.numRuns)

	ParallelFor(e.numRuns, 1, e.workers, func(start, end int) {
		for idx := start; idx < end; idx++ {
			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}
			results[idx], errs[idx] = run(ctx, e.seedStart+int64(idx))
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// ParallelFor executes a function in parallel over a range [0, n)
func ParallelFor(n, minChunk, numWorkers int, fn func(start, end int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
