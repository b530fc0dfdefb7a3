// Package walker implements the bounded-depth tree walk shared by the type
// index and its per-category listings.
//
// The walker never checks for cancellation itself. Callers pass a visitor
// that returns false once its owner is detached, which stops the walk at the
// next visited data node:
//
//	completed := walker.Walk(tree.Root(), 12, func(n *filesystem.Node) bool {
//	    seen = append(seen, n)
//	    return attached.Load()
//	})
//
// Depth bounds: the root is depth 0, nodes at depth maxDepth or deeper are
// never visited, and a folder's children are only listed while the folder's
// depth is below maxDepth-1. maxDepth is the only guard against symlink
// cycles.
package walker
