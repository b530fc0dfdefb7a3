package walker

import "adhoc-index/internal/filesystem"

// Visitor receives each readable data node. Returning false aborts the walk.
type Visitor func(node *filesystem.Node) bool

// Walk performs a depth-first, pre-order traversal starting at root (depth 0).
//
// Invalid or unreadable nodes and nodes at depth >= maxDepth end their branch
// only. Folders are expanded while depth < maxDepth-1. The result is false if
// and only if visit returned false, in which case no further node is visited.
// A negative maxDepth is treated as 0.
func Walk(root *filesystem.Node, maxDepth int, visit Visitor) bool {
	if maxDepth < 0 {
		maxDepth = 0
	}
	if root == nil || visit == nil {
		return true
	}
	return walk(root, 0, maxDepth, visit)
}

func walk(node *filesystem.Node, depth, maxDepth int, visit Visitor) bool {
	if depth >= maxDepth || !node.IsValid() || !node.IsReadable() {
		return true
	}

	if node.IsData() {
		return visit(node)
	}

	if !node.IsFolder() || depth >= maxDepth-1 {
		return true
	}

	for _, child := range node.Children() {
		if !walk(child, depth+1, maxDepth, visit) {
			return false
		}
	}
	return true
}

// Collect returns every node accepted by match, stopping early once live
// reports false. The second result is false when the walk was aborted.
func Collect(root *filesystem.Node, maxDepth int, live func() bool, match func(*filesystem.Node) bool) ([]*filesystem.Node, bool) {
	var found []*filesystem.Node
	completed := Walk(root, maxDepth, func(node *filesystem.Node) bool {
		if live != nil && !live() {
			return false
		}
		if match == nil || match(node) {
			found = append(found, node)
		}
		return true
	})
	return found, completed
}
