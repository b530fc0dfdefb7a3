package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"adhoc-index/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Volume labels metrics for operations performed with this config.
	// Empty means "unknown".
	Volume string
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) volume() string {
	if c.Volume == "" {
		return "unknown"
	}
	return c.Volume
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	// ESTALE is errno 116 on Linux
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn until it succeeds, fails with something other than a
// stale handle, or the configured attempts are used up.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.volume()
	obs := observe()
	var zero T
	var lastErr error
	backoff := config.InitialBackoff

	defer func() {
		elapsed := time.Since(start).Seconds()
		obs.ObserveRetryDuration(op, volume, elapsed)
		obs.ObserveOperation(volume, op, elapsed, lastErr)
	}()

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				obs.ObserveRetrySuccess(op, volume)
			}
			lastErr = nil
			return result, nil
		}

		lastErr = err

		if !isNFSStaleError(err) {
			return zero, err
		}

		obs.ObserveStaleError(op, volume)

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			obs.ObserveRetryAttempt(op, volume)
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	obs.ObserveRetryFailure(op, volume)
	return zero, lastErr
}

// StatWithRetry performs fs.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(fs afero.Fs, path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return fs.Stat(path)
	})
}

// OpenWithRetry performs fs.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(fs afero.Fs, path string, config RetryConfig) (afero.File, error) {
	return withRetry("open", path, config, func() (afero.File, error) {
		return fs.Open(path)
	})
}

// ReadDirWithRetry lists a directory, sorted by name, with retry logic for
// NFS stale file handle errors.
func ReadDirWithRetry(fs afero.Fs, path string, config RetryConfig) ([]os.FileInfo, error) {
	return withRetry("readdir", path, config, func() ([]os.FileInfo, error) {
		return afero.ReadDir(fs, path)
	})
}
