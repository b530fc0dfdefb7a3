// Package logging provides a simple leveled logging interface for the
// adhoc-index library and command line tool.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (skipped subtrees, coalesced refreshes)
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read once from the DEBUG or LOG_LEVEL environment variables.
// Messages are written through a zerolog console writer on stderr so that
// command output on stdout stays clean.
package logging
