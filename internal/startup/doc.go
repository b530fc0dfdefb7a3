// Package startup loads configuration and logs the application lifecycle.
//
// # Configuration
//
// Settings are resolved by [LoadConfig] from, in increasing priority:
// built-in defaults, an optional adhoc-index.yaml (current directory, then
// the user config directory), ADHOC_ environment variables and command-line
// flags bound by the caller. A .env file is loaded into the environment first
// by [LoadEnvFile]; it never overrides variables that are already set.
//
//   - root: project directory to index (default: .)
//   - database_dir: directory of the preferences database (default: user config dir)
//   - max_depth: walk depth below the root (default: 12)
//   - refresh_delay: debounce for refreshes as Go duration (default: 120ms)
//   - workers: refresh pool size, 0 for automatic (default: 0)
//   - skip_hidden: ignore dot files and folders (default: true)
//   - sniff: detect types of unknown extensions from file headers (default: true)
//   - watch: follow filesystem changes (default: false)
//
// LOG_LEVEL and DEBUG are read by the logging package directly.
//
// # Startup Logging
//
// [LogConfig] prints the banner, system information and the resolved
// configuration. The Log* helpers print the remaining lifecycle sections in
// the same format.
package startup
