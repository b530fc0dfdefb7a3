package prefs

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It is safe for concurrent use and is
// what tests and one-shot commands use when nothing needs to survive the
// process.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]map[string]string
}

// NewMemoryStore returns an empty store containing only the root node.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: map[string]map[string]string{"": {}}}
}

func (m *MemoryStore) Get(node, key string) (string, bool, error) {
	if err := ValidatePath(node); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.nodes[node][key]
	return v, ok, nil
}

func (m *MemoryStore) Put(node, key, value string) error {
	if err := ValidatePath(node); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensure(node)[key] = value
	return nil
}

// ensure creates node and its ancestors. m.mu must be held.
func (m *MemoryStore) ensure(node string) map[string]string {
	if kv, ok := m.nodes[node]; ok {
		return kv
	}
	if i := strings.LastIndexByte(node, '/'); i >= 0 {
		m.ensure(node[:i])
	} else if node != "" {
		m.ensure("")
	}
	kv := make(map[string]string)
	m.nodes[node] = kv
	return kv
}

func (m *MemoryStore) Remove(node, key string) error {
	if err := ValidatePath(node); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.nodes[node], key)
	return nil
}

func (m *MemoryStore) Keys(node string) ([]string, error) {
	if err := ValidatePath(node); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.nodes[node]))
	for k := range m.nodes[node] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Children(node string) ([]string, error) {
	if err := ValidatePath(node); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := childPrefix(node)
	var names []string
	for path := range m.nodes {
		if path == "" || !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if rest != "" && !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) NodeExists(node string) (bool, error) {
	if err := ValidatePath(node); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.nodes[node]
	return ok, nil
}

func (m *MemoryStore) RemoveNode(node string) error {
	if err := ValidatePath(node); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if node == "" {
		m.nodes = map[string]map[string]string{"": {}}
		return nil
	}

	prefix := childPrefix(node)
	for path := range m.nodes {
		if path == node || strings.HasPrefix(path, prefix) {
			delete(m.nodes, path)
		}
	}
	return nil
}

// Apply runs fn against a copy and swaps it in when fn succeeds.
func (m *MemoryStore) Apply(fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &MemoryStore{nodes: make(map[string]map[string]string, len(m.nodes))}
	for path, kv := range m.nodes {
		cp := make(map[string]string, len(kv))
		for k, v := range kv {
			cp[k] = v
		}
		view.nodes[path] = cp
	}

	if err := fn(view); err != nil {
		return err
	}
	m.nodes = view.nodes
	return nil
}

func (m *MemoryStore) Flush() error {
	return nil
}

func childPrefix(node string) string {
	if node == "" {
		return ""
	}
	return node + "/"
}
