// Package metrics provides Prometheus instrumentation for adhoc-index.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "adhoc_index_". The package does not serve them; a host
// process that embeds the index can expose the default gatherer however it
// likes.
//
// # Metric Categories
//
// ## Type Index
//
//   - IndexerRunsTotal, IndexerAbortedTotal: refresh passes and abandoned passes
//   - IndexerLastRunTimestamp, IndexerLastRunDuration: last refresh timing
//   - IndexerFilesVisited: data files handed to a visitor
//   - IndexerCategories: size of the last published category snapshot
//   - IndexerListingsTotal: per-category listings by outcome (complete/aborted/pruned)
//
// ## Refresh Scheduler
//
//   - SchedulerScheduledTotal, SchedulerCoalescedTotal: schedule calls and
//     the subset that replaced a pending run
//   - SchedulerExecutedTotal: task bodies run, by status (success/panic)
//   - SchedulerCancelledTotal, SchedulerPending
//
// ## Favorites
//
//   - FavoritesOperationsTotal: increment/tombstone/snapshot/clear by status
//   - FavoritesCompactedTotal: tombstones physically removed on load
//   - FavoritesMalformedTotal: persisted records skipped on load
//
// ## Preference Database
//
//   - DBQueryTotal, DBQueryDuration, DBConnectionsOpen
//
// ## Filesystem
//
// Retry and operation timings reported by the filesystem package through the
// observer returned by [NewFilesystemObserver], plus content type lookups by
// source and fsnotify watcher activity.
//
// # Collector
//
// [Collector] periodically pulls [Stats] from a [StatsProvider] and updates
// the snapshot gauges:
//
//	collector := metrics.NewCollector(project, 30*time.Second)
//	collector.Start()
//	defer collector.Stop()
package metrics
