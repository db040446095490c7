package variant

import "github.com/Carmen-Shannon/automation/tools/worker"

// CacheOption defines a functional option for the NewCache builder. The second
// argument carries the worker count for the default pool so options can tune
// it before the pool is created.
type CacheOption func(*variantCache, *int)

// WithWorkers sets the number of workers in the cache's default generation
// pool. Ignored when WithPool supplies a pool.
//
// Parameters:
//   - workers: the worker count (values below 1 are clamped to 1)
//
// Returns:
//   - CacheOption: the functional option
func WithWorkers(workers int) CacheOption {
	return func(_ *variantCache, w *int) {
		if workers < 1 {
			workers = 1
		}
		*w = workers
	}
}

// WithPool supplies an externally managed worker pool for variant generation,
// allowing the pool to be shared with other background work.
//
// Parameters:
//   - pool: the worker pool (must not be nil)
//
// Returns:
//   - CacheOption: the functional option
func WithPool(pool worker.DynamicWorkerPool) CacheOption {
	return func(c *variantCache, _ *int) {
		if pool == nil {
			panic("variant: WithPool requires a non-nil pool")
		}
		c.pool = pool
	}
}
