package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"adhoc-index/internal/favorites"
	"adhoc-index/internal/filesystem"
	"adhoc-index/internal/indexer"
	"adhoc-index/internal/logging"
	"adhoc-index/internal/metrics"
	"adhoc-index/internal/prefs"
	"adhoc-index/internal/scheduler"
)

var (
	// ErrInvalidName is returned for empty names or names containing
	// path or separator characters.
	ErrInvalidName = errors.New("invalid project name")

	// ErrTargetExists is returned when a rename target already exists.
	ErrTargetExists = errors.New("target already exists")

	// ErrOutsideRoot is returned for paths that are not below the project root.
	ErrOutsideRoot = errors.New("path is outside the project")

	// ErrNotFolder is returned when a project directory is missing or a file.
	ErrNotFolder = errors.New("not a folder")
)

// Config carries the tunables for opening a project.
type Config struct {
	MaxDepth     int
	RefreshDelay time.Duration
	SkipHidden   bool
	Sniff        bool
	Retry        filesystem.RetryConfig

	// Throttle, when set, gates every index refresh.
	Throttle indexer.Throttle
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxDepth:     indexer.DefaultMaxDepth,
		RefreshDelay: indexer.DefaultRefreshDelay,
		SkipHidden:   true,
		Sniff:        true,
		Retry:        filesystem.DefaultRetryConfig(),
	}
}

func (c Config) treeOptions() []filesystem.Option {
	return []filesystem.Option{
		filesystem.WithRetryConfig(c.Retry),
		filesystem.WithSkipHidden(c.SkipHidden),
		filesystem.WithSniffing(c.Sniff),
	}
}

// Project ties a directory to its type index, favorites and settings.
type Project struct {
	fs       afero.Fs
	store    prefs.Store
	registry *Registry
	cfg      Config

	mu    sync.RWMutex
	dir   string
	tr    *filesystem.Tree
	prefs prefs.Node
	favs  *favorites.Store
	unsub func()

	index *indexer.Index

	obsMu     sync.Mutex
	nextObs   int
	observers map[int]func([]favorites.Entry)
}

// Open builds the project rooted at dir. Settings and favorites live in
// store; index refreshes run on coord. The directory is registered.
func Open(fs afero.Fs, dir string, store prefs.Store, coord *scheduler.Coordinator, cfg Config) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if ok, err := afero.DirExists(fs, abs); err != nil || !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFolder, abs)
	}

	tree, err := filesystem.NewTree(fs, abs, cfg.treeOptions()...)
	if err != nil {
		return nil, err
	}

	p := &Project{
		fs:        fs,
		store:     store,
		registry:  NewRegistry(fs, store),
		cfg:       cfg,
		observers: make(map[int]func([]favorites.Entry)),
	}
	opts := []indexer.Option{
		indexer.WithMaxDepth(cfg.MaxDepth),
		indexer.WithRefreshDelay(cfg.RefreshDelay),
	}
	if cfg.Throttle != nil {
		opts = append(opts, indexer.WithThrottle(cfg.Throttle))
	}
	p.index = indexer.New(tree.Root(), coord, opts...)
	p.bind(abs, tree)

	if err := p.registry.Mark(abs); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to register %s: %w", abs, err)
	}

	logging.Info("Opened project %s (max depth %d)", abs, cfg.MaxDepth)
	return p, nil
}

// bind points the project at dir. Callers must not hold p.mu.
func (p *Project) bind(dir string, tree *filesystem.Tree) {
	node := prefs.Root(p.store).Child(PrefsNodeName(dir))
	favs := favorites.New(node.Child(favoritesNode))

	p.mu.Lock()
	old := p.unsub
	p.dir = dir
	p.tr = tree
	p.prefs = node
	p.favs = favs
	p.unsub = favs.Subscribe(p.publishFavorites)
	p.mu.Unlock()

	if old != nil {
		old()
	}
	p.index.SetRoot(tree.Root())
}

// PrefsNodeName returns the settings node name for a project directory.
func PrefsNodeName(dir string) string {
	return ";;" + strings.NewReplacer("/", "_", `\`, "_").Replace(filepath.Clean(dir))
}

// Dir returns the project directory.
func (p *Project) Dir() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dir
}

// Tree returns the file tree of the project directory.
func (p *Project) Tree() *filesystem.Tree {
	return p.tree()
}

func (p *Project) tree() *filesystem.Tree {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tr
}

// Prefs returns the project's settings node.
func (p *Project) Prefs() prefs.Node {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs
}

// Index returns the project's type index.
func (p *Project) Index() *indexer.Index {
	return p.index
}

// Registry returns the registry the project is recorded in.
func (p *Project) Registry() *Registry {
	return p.registry
}

// FavoritesStore returns the underlying favorites store.
func (p *Project) FavoritesStore() *favorites.Store {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.favs
}

// Close stops the index and drops subscriptions.
func (p *Project) Close() {
	p.index.Close()
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Relative converts path to the slash-separated form used as a favorite key.
// Absolute paths must lie inside the project directory.
func (p *Project) Relative(path string) (string, error) {
	tree := p.tree()
	if filepath.IsAbs(path) {
		rel, ok := tree.Lookup(path).RelativePathFrom(tree.Root())
		if !ok || rel == "." {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
		}
		return rel, nil
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(path)))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return clean, nil
}

// RecordUse counts one use of path toward its favorite ranking.
func (p *Project) RecordUse(path string) error {
	rel, err := p.Relative(path)
	if err != nil {
		return err
	}
	return p.FavoritesStore().Increment(rel)
}

// RemoveFavorite tombstones path. It reports whether path was a favorite.
func (p *Project) RemoveFavorite(path string) (bool, error) {
	rel, err := p.Relative(path)
	if err != nil {
		return false, err
	}
	return p.FavoritesStore().Tombstone(rel)
}

// ClearFavorites forgets every favorite.
func (p *Project) ClearFavorites() error {
	return p.FavoritesStore().Clear()
}

// ImportFavorites merges entries into the stored favorites.
func (p *Project) ImportFavorites(entries []favorites.Entry) error {
	return p.FavoritesStore().Import(entries)
}

// Favorites returns the ranked favorites under the project's policy. Backend
// failures are logged and yield an empty list.
func (p *Project) Favorites() []favorites.Entry {
	entries, err := p.FavoritesStore().Snapshot(p.MaxFavorites(), p.FavoriteUsageCount())
	if err != nil {
		logging.Warn("Failed to load favorites for %s: %v", p.Dir(), err)
		return []favorites.Entry{}
	}
	return entries
}

// FavoriteFiles resolves Favorites against the tree, skipping entries whose
// file no longer exists.
func (p *Project) FavoriteFiles() []*filesystem.Node {
	tree := p.tree()
	entries := p.Favorites()
	files := make([]*filesystem.Node, 0, len(entries))
	for _, e := range entries {
		node := tree.Lookup(e.Path)
		if !node.IsValid() {
			logging.Debug("Favorite %s no longer exists", e.Path)
			continue
		}
		files = append(files, node)
	}
	return files
}

// SubscribeFavorites registers fn to receive the ranked favorites after
// every change to them or to the favorites policy.
func (p *Project) SubscribeFavorites(fn func([]favorites.Entry)) func() {
	p.obsMu.Lock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	p.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.obsMu.Lock()
			delete(p.observers, id)
			p.obsMu.Unlock()
		})
	}
}

func (p *Project) publishFavorites() {
	p.obsMu.Lock()
	fns := make([]func([]favorites.Entry), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.obsMu.Unlock()

	if len(fns) == 0 {
		return
	}
	entries := p.Favorites()
	for _, fn := range fns {
		fn(entries)
	}
}

// GetStats implements metrics.StatsProvider.
func (p *Project) GetStats() metrics.Stats {
	active, _, err := p.FavoritesStore().Stats()
	if err != nil {
		logging.Debug("Failed to count favorites: %v", err)
	}
	return metrics.Stats{
		Categories: len(p.index.Categories()),
		Favorites:  active,
	}
}

// ValidateName checks a new directory name for a rename.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `\:/;`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Rename moves the project directory to newName within the same parent,
// carries its settings and favorites over and re-registers it.
func (p *Project) Rename(newName string) error {
	newName = strings.TrimSpace(newName)
	if err := ValidateName(newName); err != nil {
		return err
	}

	oldDir := p.Dir()
	if newName == filepath.Base(oldDir) {
		return fmt.Errorf("%w: name unchanged", ErrInvalidName)
	}
	target := filepath.Join(filepath.Dir(oldDir), newName)
	if _, err := p.fs.Stat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, target)
	}

	if err := p.fs.Rename(oldDir, target); err != nil {
		return fmt.Errorf("failed to rename %s: %w", oldDir, err)
	}

	tree, err := filesystem.NewTree(p.fs, target, p.cfg.treeOptions()...)
	if err != nil {
		if undoErr := p.fs.Rename(target, oldDir); undoErr != nil {
			logging.Error("Failed to move %s back to %s: %v", target, oldDir, undoErr)
		}
		return err
	}

	// From here on the project follows the directory, even if the settings
	// below cannot be carried over.
	oldPrefs := p.Prefs()
	p.bind(target, tree)
	p.index.Invalidate()

	if err := prefs.CopyTree(oldPrefs, p.Prefs()); err != nil {
		return fmt.Errorf("failed to copy settings to %s: %w", target, err)
	}
	if err := p.registry.Mark(target); err != nil {
		return fmt.Errorf("failed to register %s: %w", target, err)
	}

	err = errors.Join(p.registry.Unmark(oldDir), oldPrefs.RemoveNode())
	if err != nil {
		logging.Warn("Renamed %s but could not clean up old settings: %v", oldDir, err)
	}

	p.publishFavorites()
	logging.Info("Renamed project %s to %s", oldDir, target)
	return nil
}

// CopySettingsFrom copies other's settings and favorites into this project.
func (p *Project) CopySettingsFrom(other *Project) error {
	if other == nil || other == p {
		return nil
	}
	if err := prefs.CopyTree(other.Prefs(), p.Prefs()); err != nil {
		return fmt.Errorf("failed to copy settings from %s: %w", other.Dir(), err)
	}
	p.publishFavorites()
	return nil
}

// Delete forgets the project: its settings, favorites and registration.
// Files on disk are left alone. The project is closed.
func (p *Project) Delete() error {
	dir := p.Dir()
	p.Close()
	err := errors.Join(p.Prefs().RemoveNode(), p.registry.Unmark(dir))
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", dir, err)
	}
	logging.Info("Deleted project %s", dir)
	return nil
}
