package walker

import (
	"path"
	"sort"
	"testing"

	"github.com/spf13/afero"

	"adhoc-index/internal/filesystem"
)

func buildTree(t *testing.T, files ...string) *filesystem.Tree {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/root", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, f := range files {
		full := path.Join("/root", f)
		if err := fs.MkdirAll(path.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := afero.WriteFile(fs, full, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	tree, err := filesystem.NewTree(fs, "/root")
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	return tree
}

func visited(t *testing.T, tree *filesystem.Tree, maxDepth int) []string {
	t.Helper()
	var got []string
	Walk(tree.Root(), maxDepth, func(n *filesystem.Node) bool {
		rel, _ := n.RelativePathFrom(tree.Root())
		got = append(got, rel)
		return true
	})
	return got
}

func TestWalkDepthBounds(t *testing.T) {
	tree := buildTree(t, "a.txt", "d1/b.txt", "d1/d2/c.txt", "d1/d2/d3/d.txt")

	tests := []struct {
		maxDepth int
		want     []string
	}{
		{maxDepth: -1, want: nil},
		{maxDepth: 0, want: nil},
		{maxDepth: 1, want: nil},
		{maxDepth: 2, want: []string{"a.txt"}},
		{maxDepth: 3, want: []string{"a.txt", "d1/b.txt"}},
		{maxDepth: 4, want: []string{"a.txt", "d1/b.txt", "d1/d2/c.txt"}},
		{maxDepth: 12, want: []string{"a.txt", "d1/b.txt", "d1/d2/c.txt", "d1/d2/d3/d.txt"}},
	}

	for _, tt := range tests {
		got := visited(t, tree, tt.maxDepth)
		if len(got) != len(tt.want) {
			t.Errorf("maxDepth=%d: visited %v, want %v", tt.maxDepth, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("maxDepth=%d: visited[%d] = %q, want %q", tt.maxDepth, i, got[i], tt.want[i])
			}
		}
	}
}

func TestWalkRootFileVisited(t *testing.T) {
	tree := buildTree(t, "only.txt")
	file := tree.Lookup("only.txt")

	count := 0
	Walk(file, 1, func(*filesystem.Node) bool { count++; return true })
	if count != 1 {
		t.Errorf("Expected data root to be visited once, got %d", count)
	}
}

func TestWalkPreOrder(t *testing.T) {
	tree := buildTree(t, "b/2.txt", "a/1.txt", "c.txt")

	got := visited(t, tree, 12)
	want := []string{"a/1.txt", "b/2.txt", "c.txt"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
}

func TestWalkAbortPropagates(t *testing.T) {
	tree := buildTree(t, "a/1.txt", "a/2.txt", "b/3.txt")

	count := 0
	result := Walk(tree.Root(), 12, func(*filesystem.Node) bool {
		count++
		return count < 2
	})

	if result {
		t.Error("Expected Walk to return false after abort")
	}
	if count != 2 {
		t.Errorf("Expected walk to stop after 2 visits, got %d", count)
	}
}

func TestWalkSkipsInvalidAndUnreadable(t *testing.T) {
	tree := buildTree(t, "ok.txt", "locked/inner.txt", "secret.txt")
	if err := tree.Fs().Chmod("/root/locked", 0); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := tree.Fs().Chmod("/root/secret.txt", 0); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	got := visited(t, tree, 12)
	if len(got) != 1 || got[0] != "ok.txt" {
		t.Errorf("visited %v, want [ok.txt]", got)
	}

	if !Walk(tree.Lookup("does/not/exist"), 12, func(*filesystem.Node) bool { return false }) {
		t.Error("Expected walk over an invalid root to complete")
	}
}

func TestWalkNilArguments(t *testing.T) {
	tree := buildTree(t, "a.txt")
	if !Walk(nil, 5, func(*filesystem.Node) bool { return false }) {
		t.Error("Expected nil root to complete")
	}
	if !Walk(tree.Root(), 5, nil) {
		t.Error("Expected nil visitor to complete")
	}
}

func TestCollect(t *testing.T) {
	tree := buildTree(t, "a.java", "b.html", "sub/c.java")

	found, ok := Collect(tree.Root(), 12, nil, func(n *filesystem.Node) bool {
		return path.Ext(n.Name()) == ".java"
	})
	if !ok {
		t.Fatal("Expected Collect to complete")
	}

	var got []string
	for _, n := range found {
		got = append(got, n.Name())
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a.java" || got[1] != "c.java" {
		t.Errorf("Collect() = %v, want [a.java c.java]", got)
	}
}

func TestCollectStopsWhenNotLive(t *testing.T) {
	tree := buildTree(t, "a.txt", "b.txt", "c.txt")

	calls := 0
	found, ok := Collect(tree.Root(), 12, func() bool {
		calls++
		return calls <= 1
	}, nil)

	if ok {
		t.Error("Expected Collect to report abort")
	}
	if len(found) != 1 {
		t.Errorf("Expected 1 node before abort, got %d", len(found))
	}
}
