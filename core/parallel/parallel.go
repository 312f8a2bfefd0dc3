// Package parallel holds the small worker helpers used to evaluate
// populations and predict over views.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Workers resolves a requested worker count. Values below 1 mean one worker
// per CPU core; the result never exceeds items.
func Workers(requested, items int) int {
	n := requested
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize splits [0, items) into one contiguous range per CPU core and
// calls fn for each range concurrently. A panic inside fn is re-raised in the
// calling goroutine once every range has returned, so callers can recover it.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(0, items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var (
		wg        sync.WaitGroup
		panicOnce sync.Once
		panicked  interface{}
	)
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicked = r })
				}
			}()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
	if panicked != nil {
		panic(panicked)
	}
}

// ParallelizeWithThreshold runs fn sequentially over the whole range when
// items does not exceed threshold, and through Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach calls fn(i) for every i in [0, items) using at most workers
// goroutines (see Workers). It returns the first error; a panic inside fn is
// recovered and reported as a *errors.PanicError for that index.
//
// fn must only write to state owned by index i.
func ForEach(items, workers int, fn func(i int) error) error {
	if items <= 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(Workers(workers, items))
	for i := 0; i < items; i++ {
		idx := i
		g.Go(func() error {
			return errors.SafeExecute("parallel.ForEach", func() error {
				return fn(idx)
			})
		})
	}
	return g.Wait()
}
