package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned for node paths with empty segments.
var ErrInvalidPath = errors.New("prefs: invalid node path")

// Store is a hierarchical key/value store. Node paths are slash separated;
// "" is the root node. Writing a key creates its node and all ancestors.
type Store interface {
	// Get returns the value of key in node and whether it was set.
	Get(node, key string) (string, bool, error)
	Put(node, key, value string) error
	Remove(node, key string) error

	// Keys returns the keys set directly on node, sorted.
	Keys(node string) ([]string, error)
	// Children returns the names of node's direct children, sorted.
	Children(node string) ([]string, error)
	NodeExists(node string) (bool, error)
	// RemoveNode deletes node, its keys and its whole subtree.
	RemoveNode(node string) error

	// Apply runs fn against a view of the store whose writes become visible
	// together, or not at all when fn returns an error.
	Apply(fn func(Store) error) error
	// Flush forces pending writes to durable storage.
	Flush() error
}

// ValidatePath checks that every segment of a node path is non-empty.
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

// Join appends child segments to a node path.
func Join(parent string, children ...string) string {
	parts := make([]string, 0, len(children)+1)
	if parent != "" {
		parts = append(parts, parent)
	}
	parts = append(parts, children...)
	return strings.Join(parts, "/")
}

// Escape makes s usable as a single node name. The mapping is injective:
// '%' becomes "%25", '/' becomes "%2F" and '\' becomes "%5C".
func Escape(s string) string {
	if !strings.ContainsAny(s, `%/\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '%':
			b.WriteString("%25")
		case '/':
			b.WriteString("%2F")
		case '\\':
			b.WriteString("%5C")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unescape reverses Escape. Unknown escapes are kept verbatim.
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			switch s[i+1 : i+3] {
			case "25":
				b.WriteByte('%')
				i += 2
				continue
			case "2F", "2f":
				b.WriteByte('/')
				i += 2
				continue
			case "5C", "5c":
				b.WriteByte('\\')
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Node is a handle on one node of a Store.
type Node struct {
	store Store
	path  string
}

// Root returns the root node of s.
func Root(s Store) Node {
	return Node{store: s}
}

// At returns the node at path in s.
func At(s Store, path string) Node {
	return Node{store: s, path: path}
}

// Store returns the backing store.
func (n Node) Store() Store { return n.store }

// Path returns the slash-separated node path.
func (n Node) Path() string { return n.path }

// Name returns the last path segment.
func (n Node) Name() string {
	if i := strings.LastIndexByte(n.path, '/'); i >= 0 {
		return n.path[i+1:]
	}
	return n.path
}

// Child returns the child node called name. name is used as given; callers
// escape untrusted names with Escape.
func (n Node) Child(name string) Node {
	return Node{store: n.store, path: Join(n.path, name)}
}

// WithStore returns the same path on another store, typically the view
// passed to an Apply callback.
func (n Node) WithStore(s Store) Node {
	return Node{store: s, path: n.path}
}

// Get returns the value of key or def when it is not set.
func (n Node) Get(key, def string) (string, error) {
	v, ok, err := n.store.Get(n.path, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Lookup returns the value of key and whether it was set.
func (n Node) Lookup(key string) (string, bool, error) {
	return n.store.Get(n.path, key)
}

// Int returns key parsed as an integer, or def when it is missing or not a number.
func (n Node) Int(key string, def int) (int, error) {
	v, ok, err := n.store.Get(n.path, key)
	if err != nil || !ok {
		return def, err
	}
	i, perr := strconv.Atoi(strings.TrimSpace(v))
	if perr != nil {
		return def, nil
	}
	return i, nil
}

// Put stores value under key.
func (n Node) Put(key, value string) error {
	return n.store.Put(n.path, key, value)
}

// PutInt stores an integer under key.
func (n Node) PutInt(key string, value int) error {
	return n.store.Put(n.path, key, strconv.Itoa(value))
}

// Remove deletes key.
func (n Node) Remove(key string) error {
	return n.store.Remove(n.path, key)
}

// Keys returns the keys set on the node.
func (n Node) Keys() ([]string, error) {
	return n.store.Keys(n.path)
}

// Children returns the node's direct children.
func (n Node) Children() ([]Node, error) {
	names, err := n.store.Children(n.path)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, n.Child(name))
	}
	return nodes, nil
}

// Exists reports whether the node exists.
func (n Node) Exists() (bool, error) {
	return n.store.NodeExists(n.path)
}

// RemoveNode deletes the node and its subtree.
func (n Node) RemoveNode() error {
	return n.store.RemoveNode(n.path)
}

// Flush forces pending writes of the backing store to disk.
func (n Node) Flush() error {
	return n.store.Flush()
}

// CopyTree copies every key of src and its descendants below dst. Existing
// keys in dst are overwritten; keys only in dst are kept.
func CopyTree(src, dst Node) error {
	keys, err := src.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys of %q: %w", src.path, err)
	}
	for _, key := range keys {
		v, ok, err := src.Lookup(key)
		if err != nil {
			return fmt.Errorf("failed to read %q/%s: %w", src.path, key, err)
		}
		if !ok {
			continue
		}
		if err := dst.Put(key, v); err != nil {
			return fmt.Errorf("failed to write %q/%s: %w", dst.path, key, err)
		}
	}

	children, err := src.Children()
	if err != nil {
		return fmt.Errorf("failed to list children of %q: %w", src.path, err)
	}
	for _, child := range children {
		if err := CopyTree(child, dst.Child(child.Name())); err != nil {
			return err
		}
	}
	return nil
}
