package filesystem

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// volume is the label configured on the tree (e.g., "root", "database").
	// operation is the fs operation type: "stat", "open", "readdir".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// ObserveRetry records retry-specific metrics for NFS resilience.
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)

	// ObserveContentType records where a content type answer came from:
	// "cache", "extension", "sniff" or "unknown".
	ObserveContentType(source string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

// noopObserver is returned when no observer has been installed.
type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, float64, error) {}
func (noopObserver) ObserveRetryAttempt(string, string)                 {}
func (noopObserver) ObserveRetrySuccess(string, string)                 {}
func (noopObserver) ObserveRetryFailure(string, string)                 {}
func (noopObserver) ObserveRetryDuration(string, string, float64)       {}
func (noopObserver) ObserveStaleError(string, string)                   {}
func (noopObserver) ObserveContentType(string)                          {}

// observe is a nil-safe accessor for the package-level observer.
func observe() Observer {
	if defaultObserver == nil {
		return noopObserver{}
	}
	return defaultObserver
}
