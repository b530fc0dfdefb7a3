// Package database provides the SQLite implementation of the preference
// store.
//
// Preference nodes live in prefs_nodes (one row per node, linked to its
// parent) and their key/value pairs in prefs. Every write goes through a
// single mutex so the favorites load-modify-store cycle never interleaves
// within one process; separate processes sharing the file still race, and
// the last full rewrite wins.
//
// The database uses WAL mode; Flush checkpoints the log.
package database
