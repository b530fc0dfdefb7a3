package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"adhoc-index/internal/filesystem"
	"adhoc-index/internal/logging"
	"adhoc-index/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates an Index whenever the tree below its root changes.
// It watches the root and every folder the walk would expand, and picks up
// folders created later. Paths are handed to the OS, so the index's tree must
// sit on the real filesystem.
type Watcher struct {
	idx     *Index
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	watched map[string]int
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher for idx. Call Start to begin watching.
func NewWatcher(idx *Index) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		idx:     idx,
		fsw:     fsw,
		watched: make(map[string]int),
	}, nil
}

// Watch creates a watcher for idx and starts it. A watcher that fails to
// start is closed before the error is returned.
func Watch(ctx context.Context, idx *Index) (*Watcher, error) {
	w, err := NewWatcher(idx)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			logging.Warn("Watcher shutdown error: %v", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Start registers the current root's folders and processes events until ctx
// is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	root := w.idx.Root()
	if root == nil || !root.IsFolder() {
		return fmt.Errorf("watch root %v is not a folder", root)
	}
	if err := w.addTree(root, 0); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	count := len(w.watched)
	w.mu.Unlock()

	logging.Info("Watching %d folder(s) under %s", count, root.Path())

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops the event loop and releases the OS watches.
func (w *Watcher) Close() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	metrics.WatchedDirectories.Sub(float64(len(w.watched)))
	w.watched = make(map[string]int)
	w.mu.Unlock()
	return err
}

// Watched returns the number of folders currently watched.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// expands reports whether the walk lists the children of a folder at depth.
func (w *Watcher) expands(depth int) bool {
	return depth < w.idx.MaxDepth()-1
}

func (w *Watcher) addTree(node *filesystem.Node, depth int) error {
	if !w.expands(depth) || !node.IsFolder() || !node.IsReadable() {
		return nil
	}
	if err := w.add(node.Path(), depth); err != nil {
		return err
	}
	for _, child := range node.Children() {
		if child.IsFolder() {
			if err := w.addTree(child, depth+1); err != nil {
				logging.Debug("Not watching %s: %v", child.Path(), err)
			}
		}
	}
	return nil
}

func (w *Watcher) add(path string, depth int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[path]; ok {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.watched[path] = depth
	metrics.WatchedDirectories.Inc()
	return nil
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := path + string(filepath.Separator)
	for p := range w.watched {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(w.watched, p)
			metrics.WatchedDirectories.Dec()
		}
	}
}

func (w *Watcher) depthOf(path string) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.watched[path]
	return d, ok
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logging.Warn("Watcher event queue overflowed, forcing refresh")
				w.idx.Invalidate()
			} else {
				logging.Warn("Watcher error: %v", err)
			}
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	op := operation(event.Op)
	if op == "" {
		return
	}
	metrics.WatcherEventsTotal.WithLabelValues(op).Inc()
	logging.Debug("Watcher: %s %s", op, event.Name)

	switch {
	case event.Has(fsnotify.Create):
		parentDepth, ok := w.depthOf(filepath.Dir(event.Name))
		root := w.idx.Root()
		if ok && root != nil {
			if created := root.Tree().Lookup(event.Name); created.IsFolder() {
				if err := w.addTree(created, parentDepth+1); err != nil {
					logging.Debug("Not watching %s: %v", event.Name, err)
				}
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
	}

	w.idx.Invalidate()
}

func operation(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Write):
		return "write"
	default:
		return ""
	}
}
