package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "REFRESH_WORKERS"

// DefaultRefreshWorkers is the refresh pool size: one worker for the category
// pass and one for a category listing.
const DefaultRefreshWorkers = 2

// override returns the REFRESH_WORKERS value when it is a positive integer.
func override() (int, bool) {
	value := os.Getenv(EnvOverride)
	if value == "" {
		return 0, false
	}
	count, err := strconv.Atoi(value)
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}

// Count returns the number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the REFRESH_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if count, ok := override(); ok {
		if limit > 0 && count > limit {
			return limit
		}
		return count
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// The limit parameter caps the maximum number of workers.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForRefresh returns the size of the refresh pool. An explicit
// REFRESH_WORKERS value is used as given; otherwise the pool holds
// DefaultRefreshWorkers workers.
func ForRefresh() int {
	if count, ok := override(); ok {
		return count
	}
	return ForIO(DefaultRefreshWorkers)
}
