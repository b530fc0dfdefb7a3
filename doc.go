// Package main provides the entry point for adhoc-index.
//
// adhoc-index treats any registered directory as an ad-hoc project. It groups
// the project's files by content type for a browsing UI or a script, and keeps
// a ranked list of the files used most often.
//
// # Application Lifecycle
//
// Every command follows the same sequence:
//
//  1. Environment: loads .env without overriding variables already set
//  2. Configuration: resolves flags, ADHOC_* variables and adhoc-index.yaml
//  3. Database: opens the SQLite preference database
//  4. Project: builds the file tree, the type index and the favorites store
//     for --root and records the root in the project registry
//  5. Command: runs, prints its result and closes everything
//
// The watch command additionally:
//
//   - Sets GOMEMLIMIT from MEMORY_LIMIT and starts the memory monitor
//   - Starts the fsnotify watcher on every folder within the depth limit
//   - Collects Prometheus gauges every 30 seconds
//   - Handles SIGINT/SIGTERM and stops each component in order
//
// # Configuration
//
//	ADHOC_ROOT            project directory (default ".")
//	ADHOC_DATABASE_DIR    preference database directory
//	ADHOC_MAX_DEPTH       depth limit for tree walks (default 12)
//	ADHOC_REFRESH_DELAY   debounce delay for refreshes (default 120ms)
//	ADHOC_WORKERS         refresh worker pool size
//	ADHOC_SKIP_HIDDEN     ignore dot files (default true)
//	ADHOC_SNIFF           sniff content when the extension is unknown (default true)
//	ADHOC_WATCH           run watch when no command is given
//	LOG_LEVEL             debug, info, warn or error
//
// # Build Information
//
// Version information is injected at build time:
//
//	go build -ldflags "-X adhoc-index/internal/startup.Version=1.0.0"
package main
