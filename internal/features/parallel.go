package features

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest number of items handed to one goroutine. Below
// it the scheduling overhead outweighs the work.
const minChunk = 16

// chunkPlan splits n items into contiguous chunks of equal size (the last
// may be shorter). It returns the number of chunks and the chunk size.
func chunkPlan(n int) (chunks, size int) {
	if n <= 0 {
		return 0, 0
	}
	chunks = runtime.GOMAXPROCS(0) * 4
	if max := (n + minChunk - 1) / minChunk; chunks > max {
		chunks = max
	}
	if chunks < 1 {
		chunks = 1
	}
	size = (n + chunks - 1) / chunks
	return (n + size - 1) / size, size
}

// parallelRanges calls fn for each chunk of [0, n) given by chunkPlan, with
// at most GOMAXPROCS chunks in flight. fn receives the chunk index and its
// half-open range; callers write results into chunk- or index-addressed
// slots so the combined output does not depend on scheduling. The first
// error returned by fn is returned.
func parallelRanges(n int, fn func(chunk, start, end int) error) error {
	chunks, size := chunkPlan(n)
	if chunks == 0 {
		return nil
	}
	if chunks == 1 {
		return fn(0, 0, n)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := 0; c < chunks; c++ {
		c := c
		start := c * size
		end := start + size
		if end > n {
			end = n
		}
		g.Go(func() error {
			return fn(c, start, end)
		})
	}
	return g.Wait()
}
