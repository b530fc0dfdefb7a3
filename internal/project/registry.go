package project

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"adhoc-index/internal/logging"
	"adhoc-index/internal/prefs"
)

const (
	// RegistryNode holds one child per registered project directory.
	RegistryNode = "__projects"

	// RegistryTTL is how long the set of known projects is cached.
	RegistryTTL = 60 * time.Second

	keyAlive = "alive"
	keyPath  = "path"
)

// Registry entry names escape the characters that separate nodes or drives.
// Every '%' is escaped too, so distinct directories never share a name.
var (
	registryNames    = strings.NewReplacer("%", "%25", "/", "%2F", `\`, "%5C", ":", "%3A")
	registryDirNames = strings.NewReplacer("%25", "%", "%2F", "/", "%5C", `\`, "%3A", ":")
)

// Registry records which directories are projects.
type Registry struct {
	fs   afero.Fs
	node prefs.Node
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	known   map[string]string
	fetched time.Time
}

// NewRegistry returns a registry stored under RegistryNode of store.
func NewRegistry(fs afero.Fs, store prefs.Store) *Registry {
	return &Registry{
		fs:    fs,
		node:  prefs.Root(store).Child(RegistryNode),
		ttl:   RegistryTTL,
		now:   time.Now,
		known: make(map[string]string),
	}
}

func registryName(dir string) string {
	return registryNames.Replace(filepath.Clean(dir))
}

// Mark registers dir as a project.
func (r *Registry) Mark(dir string) error {
	dir = filepath.Clean(dir)
	n := r.node.Child(registryName(dir))
	err := n.Store().Apply(func(s prefs.Store) error {
		tx := n.WithStore(s)
		if err := tx.Put(keyAlive, "true"); err != nil {
			return err
		}
		return tx.Put(keyPath, dir)
	})
	if err != nil {
		return err
	}
	if err := n.Flush(); err != nil {
		logging.Warn("Failed to flush project registry: %v", err)
	}

	r.mu.Lock()
	r.known[registryName(dir)] = dir
	r.mu.Unlock()
	logging.Debug("Registered project %s", dir)
	return nil
}

// Unmark forgets dir.
func (r *Registry) Unmark(dir string) error {
	name := registryName(dir)
	if err := r.node.Child(name).RemoveNode(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.known, name)
	r.mu.Unlock()
	return nil
}

// IsProject reports whether dir is registered and is a folder.
func (r *Registry) IsProject(dir string) bool {
	if _, ok := r.snapshot()[registryName(dir)]; !ok {
		return false
	}
	ok, err := afero.DirExists(r.fs, filepath.Clean(dir))
	return err == nil && ok
}

// Known returns the registered directories, sorted.
func (r *Registry) Known() []string {
	known := r.snapshot()
	dirs := make([]string, 0, len(known))
	for _, dir := range known {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Owner returns the nearest registered directory containing path, path
// itself included.
func (r *Registry) Owner(path string) (string, bool) {
	dir := filepath.Clean(path)
	for {
		if r.IsProject(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Invalidate drops the cached project set.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.fetched = time.Time{}
	r.mu.Unlock()
}

// snapshot returns a copy of the cached registry, reloading it once the TTL
// expires. A failed reload keeps the previous set.
func (r *Registry) snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fetched.IsZero() || r.now().Sub(r.fetched) >= r.ttl {
		r.reload()
	}

	out := make(map[string]string, len(r.known))
	for name, dir := range r.known {
		out[name] = dir
	}
	return out
}

func (r *Registry) reload() {
	r.fetched = r.now()

	children, err := r.node.Children()
	if err != nil {
		logging.Warn("Failed to read project registry: %v", err)
		return
	}

	known := make(map[string]string, len(children))
	for _, child := range children {
		alive, err := child.Get(keyAlive, "false")
		if err != nil || alive != "true" {
			continue
		}
		dir, err := child.Get(keyPath, "")
		if err != nil || dir == "" {
			dir = registryDirNames.Replace(child.Name())
		}
		known[child.Name()] = dir
	}
	r.known = known
}
