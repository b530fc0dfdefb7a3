package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is present from the first gather.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	volumes := []string{"root", "database", "unknown"}
	fsOps := []string{"stat", "open", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, outcome := range []string{"complete", "aborted", "pruned"} {
		IndexerListingsTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"success", "panic"} {
		SchedulerExecutedTotal.WithLabelValues(status)
	}

	for _, op := range []string{"increment", "tombstone", "import", "snapshot", "clear"} {
		FavoritesOperationsTotal.WithLabelValues(op, "success")
		FavoritesOperationsTotal.WithLabelValues(op, "error")
	}

	for _, source := range []string{"cache", "extension", "sniff", "unknown"} {
		ContentTypeLookups.WithLabelValues(source)
	}

	for _, op := range []string{"create", "write", "remove", "rename"} {
		WatcherEventsTotal.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "get", "put", "remove", "keys",
		"children", "node_exists", "remove_node", "flush"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
