package favorites

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"adhoc-index/internal/logging"
	"adhoc-index/internal/metrics"
	"adhoc-index/internal/prefs"
)

// Persisted keys of a favorite node.
const (
	keyName  = "name"
	keyValue = "value"
	keyState = "state"
	keySeq   = "seq"

	stateRemoved = "removed"
)

// Store is a usage-ranked list of favorite paths persisted below one
// preference node, one child per favorite.
//
// Every mutation loads the full set, changes it in memory and rewrites it in
// one transaction. Mutations are serialized within the process; two
// processes writing the same node race and the last rewrite wins.
type Store struct {
	ns prefs.Node

	mu sync.Mutex

	obsMu     sync.Mutex
	nextObs   int
	observers map[int]func()
}

// New returns a Store persisting below ns.
func New(ns prefs.Node) *Store {
	return &Store{
		ns:        ns,
		observers: make(map[int]func()),
	}
}

// Node returns the namespace node the favorites live under.
func (s *Store) Node() prefs.Node {
	return s.ns
}

// Subscribe registers fn to run after every successful mutation. The
// returned function removes the registration.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.obsMu.Lock()
	fns := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Increment adds one use of path, creating the favorite with count 1.
func (s *Store) Increment(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	err := s.mutate("increment", func(entries []Entry) []Entry {
		if i := indexOf(entries, path); i >= 0 {
			entries[i].Count++
			entries[i].State = Active
			return entries
		}
		return append(entries, Entry{Path: path, Count: 1, State: Active, seq: nextSeq(entries)})
	})
	if err != nil {
		return fmt.Errorf("failed to record use of %s: %w", path, err)
	}
	return nil
}

// Tombstone marks path as removed. found is false when path is not a
// favorite, in which case nothing is written.
func (s *Store) Tombstone(path string) (found bool, err error) {
	if strings.TrimSpace(path) == "" {
		return false, ErrEmptyPath
	}

	err = s.mutate("tombstone", func(entries []Entry) []Entry {
		if i := indexOf(entries, path); i >= 0 {
			entries[i].State = Removed
			found = true
			return entries
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite %s: %w", path, err)
	}
	return found, nil
}

// Import sets the count of each given entry, adding unknown paths. Entries
// that are not active become tombstones.
func (s *Store) Import(items []Entry) error {
	for _, item := range items {
		if strings.TrimSpace(item.Path) == "" {
			return ErrEmptyPath
		}
	}

	err := s.mutate("import", func(entries []Entry) []Entry {
		for _, item := range items {
			state := item.State
			if item.Count <= 0 {
				state = Removed
			}
			if i := indexOf(entries, item.Path); i >= 0 {
				entries[i].Count = item.Count
				entries[i].State = state
				continue
			}
			entries = append(entries, Entry{Path: item.Path, Count: item.Count, State: state, seq: nextSeq(entries)})
		}
		return entries
	})
	if err != nil {
		return fmt.Errorf("failed to import favorites: %w", err)
	}
	return nil
}

// Clear removes every favorite.
func (s *Store) Clear() error {
	s.mu.Lock()
	err := s.ns.RemoveNode()
	s.mu.Unlock()

	record("clear", err)
	if err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	s.notify()
	return nil
}

// Snapshot returns up to maxCount active favorites used at least minUsage
// times, most used first. Entries with equal counts keep the order in which
// they were first used. maxCount and minUsage below 1 are treated as 1.
func (s *Store) Snapshot(maxCount, minUsage int) ([]Entry, error) {
	if maxCount < 1 {
		maxCount = 1
	}
	if minUsage < 1 {
		minUsage = 1
	}

	entries, err := s.loadCompacted()
	record("snapshot", err)
	if err != nil {
		return nil, err
	}

	return rank(entries, maxCount, minUsage), nil
}

// All returns every active favorite, most used first.
func (s *Store) All() ([]Entry, error) {
	entries, err := s.loadCompacted()
	if err != nil {
		return nil, err
	}
	return rank(entries, len(entries), 1), nil
}

// Stats returns the number of active favorites and of tombstones waiting
// for compaction, without compacting.
func (s *Store) Stats() (active, tombstones int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := load(s.ns)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		if e.live() {
			active++
		} else {
			tombstones++
		}
	}
	return active, tombstones, nil
}

func rank(entries []Entry, maxCount, minUsage int) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.live() || e.Count < minUsage {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

// mutate loads, compacts, applies change and rewrites the whole set. A nil
// result from change means nothing to write.
func (s *Store) mutate(op string, change func([]Entry) []Entry) error {
	s.mu.Lock()
	var changed bool
	err := s.ns.Store().Apply(func(tx prefs.Store) error {
		ns := s.ns.WithStore(tx)

		entries, err := compact(ns)
		if err != nil {
			return err
		}

		updated := change(entries)
		if updated == nil {
			return nil
		}
		changed = true
		return write(ns, updated)
	})
	s.mu.Unlock()

	record(op, err)
	if err != nil {
		return err
	}
	if changed {
		s.notify()
	}
	return nil
}

// loadCompacted loads the live entries, removing tombstones from storage.
func (s *Store) loadCompacted() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []Entry
	err := s.ns.Store().Apply(func(tx prefs.Store) error {
		var err error
		entries, err = compact(s.ns.WithStore(tx))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return entries, nil
}

// compact loads ns, deletes tombstoned children and returns the live ones.
func compact(ns prefs.Node) ([]Entry, error) {
	entries, tombstones, err := load(ns)
	if err != nil {
		return nil, err
	}

	live := entries[:0]
	for _, e := range entries {
		if e.live() {
			live = append(live, e)
		}
	}

	for _, child := range tombstones {
		if err := child.RemoveNode(); err != nil {
			return nil, fmt.Errorf("failed to compact %s: %w", child.Name(), err)
		}
	}
	if len(tombstones) > 0 {
		metrics.FavoritesCompactedTotal.Add(float64(len(tombstones)))
		logging.Debug("Compacted %d removed favorites under %s", len(tombstones), ns.Path())
	}

	return live, nil
}

// load reads every child of ns in first-use order. Malformed children are
// skipped; tombstoned children are returned both as entries and as nodes.
func load(ns prefs.Node) ([]Entry, []prefs.Node, error) {
	children, err := ns.Children()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	entries := make([]Entry, 0, len(children))
	var tombstones []prefs.Node

	for i, child := range children {
		name, ok, err := child.Lookup(keyName)
		if err != nil {
			return nil, nil, err
		}
		value, hasValue, err := child.Lookup(keyValue)
		if err != nil {
			return nil, nil, err
		}
		if !ok || name == "" || !hasValue {
			metrics.FavoritesMalformedTotal.Inc()
			logging.Debug("Skipping malformed favorite %s", child.Name())
			continue
		}
		count, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr != nil {
			metrics.FavoritesMalformedTotal.Inc()
			logging.Debug("Skipping favorite %s with bad count %q", name, value)
			continue
		}

		state, _, err := child.Lookup(keyState)
		if err != nil {
			return nil, nil, err
		}

		seq, err := child.Int(keySeq, -1)
		if err != nil {
			return nil, nil, err
		}
		if seq < 0 {
			// Records without a sequence keep storage order after sequenced ones.
			seq = 1<<30 + i
		}

		e := Entry{Path: name, Count: count, State: Active, seq: seq}
		if state == stateRemoved || count <= 0 {
			e.State = Removed
			tombstones = append(tombstones, child)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	return entries, tombstones, nil
}

// write replaces the contents of ns with entries.
func write(ns prefs.Node, entries []Entry) error {
	if err := ns.RemoveNode(); err != nil {
		return fmt.Errorf("failed to reset favorites: %w", err)
	}

	for i, e := range entries {
		child := ns.Child(prefs.Escape(e.Path))
		if err := child.Put(keyName, e.Path); err != nil {
			return err
		}
		if err := child.PutInt(keyValue, e.Count); err != nil {
			return err
		}
		if err := child.PutInt(keySeq, i); err != nil {
			return err
		}
		if e.State == Removed {
			if err := child.Put(keyState, stateRemoved); err != nil {
				return err
			}
		}
	}
	return nil
}

func indexOf(entries []Entry, path string) int {
	for i, e := range entries {
		if e.Path == path {
			return i
		}
	}
	return -1
}

func nextSeq(entries []Entry) int {
	next := 0
	for _, e := range entries {
		if e.seq >= next {
			next = e.seq + 1
		}
	}
	return next
}

func record(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.FavoritesOperationsTotal.WithLabelValues(op, status).Inc()
}
