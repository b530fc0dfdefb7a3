package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Preference database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_db_queries_total",
			Help: "Total number of preference database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adhoc_index_db_query_duration_seconds",
			Help:    "Preference database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adhoc_index_db_transaction_duration_seconds",
			Help:    "Preference database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_db_connections_open",
			Help: "Number of open preference database connections",
		},
	)
)

// Type index metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_indexer_runs_total",
			Help: "Total number of category refresh passes",
		},
	)

	IndexerThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_indexer_throttled_total",
			Help: "Total number of refresh passes that waited for memory pressure to clear",
		},
	)

	IndexerAbortedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_indexer_aborted_total",
			Help: "Total number of refresh passes abandoned because the index was detached",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_indexer_last_run_timestamp",
			Help: "Timestamp of the last category refresh",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_indexer_last_run_duration_seconds",
			Help: "Duration of the last category refresh in seconds",
		},
	)

	IndexerFilesVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_indexer_files_visited_total",
			Help: "Total number of data files visited by tree walks",
		},
	)

	IndexerCategories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_indexer_categories",
			Help: "Number of categories in the most recently published snapshot",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_indexer_running",
			Help: "Number of category refreshes currently running",
		},
	)

	IndexerListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_indexer_listings_total",
			Help: "Total number of per-category file listings by outcome",
		},
		[]string{"outcome"}, // "complete", "aborted", "pruned"
	)

	IndexerListingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adhoc_index_indexer_listing_duration_seconds",
			Help:    "Duration of per-category file listings in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Refresh scheduler metrics
var (
	SchedulerScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_scheduler_scheduled_total",
			Help: "Total number of schedule requests",
		},
	)

	SchedulerCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_scheduler_coalesced_total",
			Help: "Total number of schedule requests that replaced a pending execution",
		},
	)

	SchedulerExecutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_scheduler_executed_total",
			Help: "Total number of task executions by status",
		},
		[]string{"status"}, // "success", "panic"
	)

	SchedulerCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_scheduler_cancelled_total",
			Help: "Total number of pending executions cancelled before running",
		},
	)

	SchedulerPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_scheduler_pending",
			Help: "Number of task keys with a pending execution",
		},
	)
)

// Favorites metrics
var (
	FavoritesOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_favorites_operations_total",
			Help: "Total number of favorites operations by type and status",
		},
		[]string{"operation", "status"},
	)

	FavoritesCompactedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_favorites_compacted_total",
			Help: "Total number of tombstoned favorites physically removed on load",
		},
	)

	FavoritesMalformedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_favorites_malformed_total",
			Help: "Total number of persisted favorites skipped because they could not be parsed",
		},
	)

	FavoritesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_favorites",
			Help: "Number of active favorites in the last collected snapshot",
		},
	)

	CategoriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_categories",
			Help: "Number of categories in the last collected snapshot",
		},
	)
)

// Content type detection metrics
var (
	ContentTypeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_content_type_lookups_total",
			Help: "Total number of content type lookups by source",
		},
		[]string{"source"}, // "cache", "extension", "sniff", "unknown"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adhoc_index_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after stale file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after a retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adhoc_index_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors encountered",
		},
		[]string{"operation", "volume"},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adhoc_index_watcher_events_total",
			Help: "Total number of filesystem watcher events by operation",
		},
		[]string{"operation"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_watched_directories",
			Help: "Number of directories currently being watched",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_memory_usage_ratio",
			Help: "Heap allocation as a share of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adhoc_index_memory_paused",
			Help: "Whether index refreshes are paused for memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adhoc_index_memory_pauses_total",
			Help: "Total number of times memory pressure paused index refreshes",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adhoc_index_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
