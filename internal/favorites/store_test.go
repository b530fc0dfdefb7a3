package favorites

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"adhoc-index/internal/prefs"
)

func newTestStore(t *testing.T) (*Store, *prefs.MemoryStore) {
	t.Helper()
	mem := prefs.NewMemoryStore()
	return New(prefs.Root(mem).Child(";;proj").Child("favorites")), mem
}

func paths(entries []Entry) string {
	out := ""
	for i, e := range entries {
		if i > 0 {
			out += " "
		}
		out += e.String()
	}
	return out
}

func incrementN(t *testing.T, s *Store, path string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Increment(path); err != nil {
			t.Fatalf("Increment(%s) failed: %v", path, err)
		}
	}
}

func TestSnapshotCapacityAndOrder(t *testing.T) {
	s, _ := newTestStore(t)

	incrementN(t, s, "a", 3)
	incrementN(t, s, "b", 1)
	incrementN(t, s, "c", 2)

	got, err := s.Snapshot(2, 1)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if paths(got) != "3:a 2:c" {
		t.Errorf("Snapshot(2, 1) = %q, want %q", paths(got), "3:a 2:c")
	}
}

func TestIncrementCountsUses(t *testing.T) {
	s, _ := newTestStore(t)

	for _, n := range []int{1, 4, 7} {
		path := fmt.Sprintf("file%d.txt", n)
		incrementN(t, s, path, n)
	}

	got, _ := s.Snapshot(10, 1)
	if paths(got) != "7:file7.txt 4:file4.txt 1:file1.txt" {
		t.Errorf("Snapshot() = %q", paths(got))
	}
}

func TestSnapshotMinUsage(t *testing.T) {
	s, _ := newTestStore(t)
	incrementN(t, s, "often", 5)
	incrementN(t, s, "rare", 1)

	got, _ := s.Snapshot(10, 2)
	if paths(got) != "5:often" {
		t.Errorf("Snapshot(10, 2) = %q, want %q", paths(got), "5:often")
	}

	// Excluded entries stay in storage.
	all, _ := s.All()
	if len(all) != 2 {
		t.Errorf("Expected 2 stored favorites, got %d", len(all))
	}
}

func TestSnapshotTiesKeepFirstUseOrder(t *testing.T) {
	s, _ := newTestStore(t)
	for _, p := range []string{"zeta", "alpha", "mid"} {
		incrementN(t, s, p, 2)
	}

	got, _ := s.Snapshot(10, 1)
	if paths(got) != "2:zeta 2:alpha 2:mid" {
		t.Errorf("Snapshot() = %q, want first-use order", paths(got))
	}
}

func TestSnapshotClampsPolicy(t *testing.T) {
	s, _ := newTestStore(t)
	incrementN(t, s, "a", 2)
	incrementN(t, s, "b", 1)

	got, err := s.Snapshot(0, -3)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if paths(got) != "2:a" {
		t.Errorf("Snapshot(0, -3) = %q, want %q", paths(got), "2:a")
	}
}

func TestSnapshotEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	got, err := s.Snapshot(20, 1)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty snapshot, got %q", paths(got))
	}
}

func TestTombstoneExcludesAndCompacts(t *testing.T) {
	s, mem := newTestStore(t)
	incrementN(t, s, "src/A.java", 4)
	incrementN(t, s, "keep.txt", 1)

	found, err := s.Tombstone("src/A.java")
	if err != nil || !found {
		t.Fatalf("Tombstone() = %v, %v; want true, nil", found, err)
	}

	node := prefs.Root(mem).Child(";;proj").Child("favorites").Child(prefs.Escape("src/A.java"))
	if state, _ := node.Get(keyState, ""); state != stateRemoved {
		t.Errorf("Expected persisted tombstone, state = %q", state)
	}

	active, tombstones, err := s.Stats()
	if err != nil || active != 1 || tombstones != 1 {
		t.Errorf("Stats() = %d, %d, %v; want 1, 1, nil", active, tombstones, err)
	}

	got, _ := s.Snapshot(10, 1)
	if paths(got) != "1:keep.txt" {
		t.Errorf("Snapshot() = %q, want only keep.txt", paths(got))
	}

	if ok, _ := node.Exists(); ok {
		t.Error("Expected tombstone to be compacted by the load")
	}
}

func TestTombstoneUnknownPath(t *testing.T) {
	s, _ := newTestStore(t)

	notified := 0
	s.Subscribe(func() { notified++ })

	found, err := s.Tombstone("nope")
	if err != nil || found {
		t.Errorf("Tombstone(unknown) = %v, %v; want false, nil", found, err)
	}
	if notified != 0 {
		t.Errorf("Expected no notification, got %d", notified)
	}
}

func TestIncrementAfterTombstoneStartsOver(t *testing.T) {
	s, _ := newTestStore(t)
	incrementN(t, s, "a", 5)
	if _, err := s.Tombstone("a"); err != nil {
		t.Fatalf("Tombstone failed: %v", err)
	}
	incrementN(t, s, "a", 1)

	got, _ := s.Snapshot(10, 1)
	if paths(got) != "1:a" {
		t.Errorf("Snapshot() = %q, want %q", paths(got), "1:a")
	}
}

func TestLegacyNonPositiveCountIsTombstone(t *testing.T) {
	s, mem := newTestStore(t)
	ns := prefs.Root(mem).Child(";;proj").Child("favorites")

	legacy := ns.Child(prefs.Escape("old/file.txt"))
	_ = legacy.Put(keyName, "old/file.txt")
	_ = legacy.PutInt(keyValue, -4)
	incrementN(t, s, "new.txt", 1)

	got, _ := s.Snapshot(10, 1)
	if paths(got) != "1:new.txt" {
		t.Errorf("Snapshot() = %q, want only new.txt", paths(got))
	}
	if ok, _ := legacy.Exists(); ok {
		t.Error("Expected legacy tombstone to be compacted")
	}
}

func TestMalformedRecordsSkipped(t *testing.T) {
	s, mem := newTestStore(t)
	ns := prefs.Root(mem).Child(";;proj").Child("favorites")

	_ = ns.Child("noname").PutInt(keyValue, 3)
	_ = ns.Child("badcount").Put(keyName, "badcount")
	_ = ns.Child("badcount").Put(keyValue, "lots")
	_ = ns.Child("novalue").Put(keyName, "novalue")
	good := ns.Child("good")
	_ = good.Put(keyName, "good")
	_ = good.PutInt(keyValue, 2)

	got, err := s.Snapshot(10, 1)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if paths(got) != "2:good" {
		t.Errorf("Snapshot() = %q, want %q", paths(got), "2:good")
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	incrementN(t, s, "a", 2)
	incrementN(t, s, "b", 1)

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	got, _ := s.Snapshot(10, 1)
	if len(got) != 0 {
		t.Errorf("Expected empty snapshot after Clear, got %q", paths(got))
	}
}

func TestEmptyPathRejected(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Increment("  "); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Increment(blank) = %v, want ErrEmptyPath", err)
	}
	if _, err := s.Tombstone(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Tombstone(empty) = %v, want ErrEmptyPath", err)
	}
	if err := s.Import([]Entry{{Path: "", Count: 1}}); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Import(empty path) = %v, want ErrEmptyPath", err)
	}
}

func TestImport(t *testing.T) {
	s, _ := newTestStore(t)
	incrementN(t, s, "a", 1)

	err := s.Import([]Entry{
		{Path: "a", Count: 9},
		{Path: "b", Count: 4},
		{Path: "gone", Count: -4},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	got, _ := s.Snapshot(10, 1)
	if paths(got) != "9:a 4:b" {
		t.Errorf("Snapshot() = %q, want %q", paths(got), "9:a 4:b")
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s, _ := newTestStore(t)

	var calls atomic.Int32
	unsubscribe := s.Subscribe(func() { calls.Add(1) })

	incrementN(t, s, "a", 2)
	if calls.Load() != 2 {
		t.Errorf("Expected 2 notifications, got %d", calls.Load())
	}

	unsubscribe()
	unsubscribe()
	incrementN(t, s, "a", 1)
	if calls.Load() != 2 {
		t.Errorf("Expected no notifications after unsubscribe, got %d", calls.Load())
	}
}

// failingStore fails every Apply, simulating a broken backend.
type failingStore struct {
	*prefs.MemoryStore
}

var errBackend = errors.New("disk on fire")

func (f failingStore) Apply(func(prefs.Store) error) error { return errBackend }
func (f failingStore) RemoveNode(string) error            { return errBackend }

func TestBackendFailureSurfaces(t *testing.T) {
	s := New(prefs.Root(failingStore{prefs.NewMemoryStore()}).Child("favorites"))

	if err := s.Increment("a"); !errors.Is(err, errBackend) {
		t.Errorf("Increment() = %v, want backend error", err)
	}
	if _, err := s.Snapshot(5, 1); !errors.Is(err, errBackend) {
		t.Errorf("Snapshot() = %v, want backend error", err)
	}
	if err := s.Clear(); !errors.Is(err, errBackend) {
		t.Errorf("Clear() = %v, want backend error", err)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if err := s.Increment("shared"); err != nil {
					t.Errorf("Increment failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	got, _ := s.Snapshot(1, 1)
	if paths(got) != "50:shared" {
		t.Errorf("Snapshot() = %q, want %q", paths(got), "50:shared")
	}
}
