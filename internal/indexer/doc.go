// Package indexer groups the files below a project root by content type.
//
// An Index keeps the set of categories seen during its last walks and
// publishes it as an immutable snapshot:
//   - Refresh walks the tree to the configured depth and merges every
//     category it meets into the set
//   - ListFiles and Listing walk again for one category; a completed walk
//     that finds nothing drops the category
//   - Invalidate schedules a debounced refresh of the set and of every open
//     listing on the shared scheduler.Coordinator
//
// Walks are cooperative: closing an Index or a Listing makes any walk in
// progress stop at its next file. Watcher feeds fsnotify events into
// Invalidate and follows folders created under the root.
package indexer
