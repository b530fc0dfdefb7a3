// Package prefs defines the hierarchical key/value capability that favorites
// and per-project settings are persisted through.
//
// A [Store] holds nodes addressed by slash-separated paths, each carrying
// string keys and values. [Node] wraps a store and a path with typed helpers:
//
//	settings := prefs.Root(store).Child(";;home_me_project")
//	limit, err := settings.Int("maxFavorites", 20)
//
// Node names are taken as given, so names that may contain a slash go
// through [Escape] first. [MemoryStore] keeps everything in process; the
// database package provides the SQLite-backed implementation.
package prefs
