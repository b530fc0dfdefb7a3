package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"adhoc-index/internal/logging"
)

const defaultTypeCacheSize = 4096

// Tree is a read-only view of a directory hierarchy on an afero filesystem.
// Nodes handed out by a Tree are snapshots: their metadata is read once and
// not refreshed, so a node deleted after listing still reports its old state
// until a fresh listing is taken.
type Tree struct {
	fs         afero.Fs
	root       string
	retry      RetryConfig
	skipHidden bool
	sniff      bool
	cacheSize  int
	types      *lru.Cache[uint64, string]
}

// Option configures a Tree.
type Option func(*Tree)

// WithRetryConfig overrides the NFS retry behavior.
func WithRetryConfig(c RetryConfig) Option {
	return func(t *Tree) { t.retry = c }
}

// WithSkipHidden controls whether dot-files and dot-directories are listed.
func WithSkipHidden(skip bool) Option {
	return func(t *Tree) { t.skipHidden = skip }
}

// WithSniffing enables magic-byte detection for files whose extension is unknown.
func WithSniffing(enabled bool) Option {
	return func(t *Tree) { t.sniff = enabled }
}

// WithTypeCacheSize sets the number of memoized content types.
func WithTypeCacheSize(n int) Option {
	return func(t *Tree) { t.cacheSize = n }
}

// NewTree creates a Tree rooted at root. The root does not need to exist;
// a missing root simply has no children.
func NewTree(fs afero.Fs, root string, opts ...Option) (*Tree, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem is nil")
	}

	cleaned := filepath.Clean(root)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}

	t := &Tree{
		fs:         fs,
		root:       cleaned,
		retry:      DefaultRetryConfig(),
		skipHidden: true,
		sniff:      true,
		cacheSize:  defaultTypeCacheSize,
	}
	t.retry.Volume = "root"

	for _, opt := range opts {
		opt(t)
	}

	if t.cacheSize < 1 {
		t.cacheSize = 1
	}

	cache, err := lru.New[uint64, string](t.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create content type cache: %w", err)
	}
	t.types = cache

	return t, nil
}

// Fs returns the underlying filesystem.
func (t *Tree) Fs() afero.Fs {
	return t.fs
}

// RootPath returns the absolute path of the root directory.
func (t *Tree) RootPath() string {
	return t.root
}

// Root returns the node for the root directory.
func (t *Tree) Root() *Node {
	return t.node(t.root)
}

// Lookup returns the node for a slash-separated path relative to the root.
// Absolute paths are used as given. The node may be invalid.
func (t *Tree) Lookup(path string) *Node {
	p := filepath.FromSlash(path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(t.root, p)
	}
	return t.node(filepath.Clean(p))
}

func (t *Tree) node(path string) *Node {
	return &Node{tree: t, path: path}
}

func (t *Tree) hidden(name string) bool {
	return t.skipHidden && strings.HasPrefix(name, ".")
}

// Node is a handle to a file or directory in a Tree.
type Node struct {
	tree *Tree
	path string

	once sync.Once
	info os.FileInfo
	err  error
}

func (n *Node) stat() (os.FileInfo, error) {
	n.once.Do(func() {
		n.info, n.err = StatWithRetry(n.tree.fs, n.path, n.tree.retry)
	})
	return n.info, n.err
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree {
	return n.tree
}

// Name returns the base name of the node.
func (n *Node) Name() string {
	return filepath.Base(n.path)
}

// Path returns the absolute path of the node.
func (n *Node) Path() string {
	return n.path
}

// Info returns the file metadata, or nil if the node is invalid.
func (n *Node) Info() os.FileInfo {
	info, err := n.stat()
	if err != nil {
		return nil
	}
	return info
}

// IsValid reports whether the node existed when it was first inspected.
func (n *Node) IsValid() bool {
	_, err := n.stat()
	return err == nil
}

// IsFolder reports whether the node is a directory.
func (n *Node) IsFolder() bool {
	info, err := n.stat()
	return err == nil && info.IsDir()
}

// IsData reports whether the node is a regular file.
func (n *Node) IsData() bool {
	info, err := n.stat()
	return err == nil && info.Mode().IsRegular()
}

// IsReadable reports whether any read permission bit is set.
func (n *Node) IsReadable() bool {
	info, err := n.stat()
	return err == nil && info.Mode().Perm()&0o444 != 0
}

// Children lists the node's entries sorted by name. Errors are logged at
// debug level and yield no children.
func (n *Node) Children() []*Node {
	if !n.IsFolder() {
		return nil
	}

	infos, err := ReadDirWithRetry(n.tree.fs, n.path, n.tree.retry)
	if err != nil {
		logging.Debug("Skipping unreadable folder %s: %v", n.path, err)
		return nil
	}

	children := make([]*Node, 0, len(infos))
	for _, info := range infos {
		if n.tree.hidden(info.Name()) {
			continue
		}
		child := n.tree.node(filepath.Join(n.path, info.Name()))
		fi := info
		child.once.Do(func() { child.info = fi })
		children = append(children, child)
	}
	return children
}

// Parent returns the containing directory, or nil at the filesystem root.
func (n *Node) Parent() *Node {
	dir := filepath.Dir(n.path)
	if dir == n.path {
		return nil
	}
	return n.tree.node(dir)
}

// RelativePathFrom returns the slash-separated path of n relative to root.
// The second result is false when n is not inside root.
func (n *Node) RelativePathFrom(root *Node) (string, bool) {
	if root == nil {
		return "", false
	}
	rel, err := filepath.Rel(root.path, n.path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// ContentType returns the raw content type of a data node, or
// contenttype.UnknownType when it cannot be determined.
func (n *Node) ContentType() string {
	return n.tree.detect(n)
}

func (n *Node) String() string {
	return n.path
}
