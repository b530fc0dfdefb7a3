/*
Package workers sizes the background pool that runs index refreshes.

The refresh pool is small on purpose: per index there are only two kinds of
concurrently active work, the top-level category pass and one per-category
listing, so [ForRefresh] returns 2 unless told otherwise.

	pool := workers.ForRefresh()

[Count] and [ForIO] size pools from GOMAXPROCS, which Go 1.19+ sets from the
container CPU limit, instead of runtime.NumCPU().

# Environment Variable Override

All functions respect REFRESH_WORKERS:

	REFRESH_WORKERS=4 adhoc-index watch

[ForRefresh] uses the value as given. [Count] and [ForIO] still cap it at
their limit argument. Non-numeric, zero or negative values are ignored.
*/
package workers
