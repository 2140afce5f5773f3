package fn

import "sync"

// ParMapResult applies f to each item with a fixed pool of workers pulling
// indexes off a shared feed, preserving input order in the output. workers <= 0
// means one goroutine per item.
func ParMapResult[T, U any](items []T, workers int, f func(T) Result[U]) []Result[U] {
	out := make([]Result[U], len(items))
	if len(items) == 0 {
		return out
	}
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				out[i] = f(items[i])
			}
		}()
	}
	for i := range items {
		idx <- i
	}
	close(idx)
	wg.Wait()
	return out
}

// ParMap is ParMapResult for infallible functions.
func ParMap[T, U any](items []T, workers int, f func(T) U) []U {
	results := ParMapResult(items, workers, func(v T) Result[U] {
		return Ok(f(v))
	})
	out := make([]U, len(results))
	for i, r := range results {
		out[i] = r.val
	}
	return out
}
