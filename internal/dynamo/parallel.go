package dynamo

import (
	"runtime"
	"sync"
)

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// ParallelFor executes fn over contiguous chunks of [0, n). Each call
// receives its worker index so callers can write into per-worker buffers
// without locking. Work runs inline when the range is small or only one
// worker is requested.
func ParallelFor(n, minChunk, workers int, fn func(worker, start, end int)) {
	if n <= minChunk || workers <= 1 {
		fn(0, 0, n)
		return
	}

	if minChunk < 1 {
		minChunk = 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			fn(w, s, e)
		}(w, start, end)
	}

	wg.Wait()
}

// Chunks returns how many workers ParallelFor will use for the same arguments.
func Chunks(n, minChunk, workers int) int {
	if n <= minChunk || workers <= 1 {
		return 1
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
