package prefs

import (
	"errors"
	"testing"
)

func TestEscapeRoundTrip(t *testing.T) {
	tests := []struct {
		in      string
		escaped string
	}{
		{"plain.txt", "plain.txt"},
		{"src/Main.java", "src%2FMain.java"},
		{`win\path`, "win%5Cpath"},
		{"100%", "100%25"},
		{"a%2Fb", "a%252Fb"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Escape(tt.in)
			if got != tt.escaped {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.escaped)
			}
			if back := Unescape(got); back != tt.in {
				t.Errorf("Unescape(%q) = %q, want %q", got, back, tt.in)
			}
		})
	}
}

func TestEscapeIsInjective(t *testing.T) {
	// Distinct inputs must not collide once escaped.
	a, b := Escape("a/b"), Escape("a%2Fb")
	if a == b {
		t.Errorf("Escape collision: %q and %q both map to %q", "a/b", "a%2Fb", a)
	}
}

func TestUnescapeKeepsUnknownSequences(t *testing.T) {
	if got := Unescape("%zz%2"); got != "%zz%2" {
		t.Errorf("Unescape() = %q, want input unchanged", got)
	}
}

func TestValidatePath(t *testing.T) {
	valid := []string{"", "a", "a/b", ";;root/favorites"}
	for _, p := range valid {
		if err := ValidatePath(p); err != nil {
			t.Errorf("ValidatePath(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{"/a", "a/", "a//b", "/"}
	for _, p := range invalid {
		if err := ValidatePath(p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ValidatePath(%q) = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("", "a", "b"); got != "a/b" {
		t.Errorf("Join() = %q, want a/b", got)
	}
	if got := Join("root", "child"); got != "root/child" {
		t.Errorf("Join() = %q, want root/child", got)
	}
}

func TestMemoryStorePutCreatesAncestors(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Put("a/b/c", "k", "v"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for _, node := range []string{"", "a", "a/b", "a/b/c"} {
		ok, err := s.NodeExists(node)
		if err != nil || !ok {
			t.Errorf("NodeExists(%q) = %v, %v; want true", node, ok, err)
		}
	}

	children, _ := s.Children("a")
	if len(children) != 1 || children[0] != "b" {
		t.Errorf("Children(a) = %v, want [b]", children)
	}
	rootChildren, _ := s.Children("")
	if len(rootChildren) != 1 || rootChildren[0] != "a" {
		t.Errorf("Children(\"\") = %v, want [a]", rootChildren)
	}
}

func TestMemoryStoreKeysAndRemove(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Put("n", "b", "2")
	_ = s.Put("n", "a", "1")

	keys, err := s.Keys("n")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	if err := s.Remove("n", "a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := s.Get("n", "a"); ok {
		t.Error("Expected key a to be removed")
	}
}

func TestMemoryStoreRemoveNode(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Put("p/favorites/x", "value", "1")
	_ = s.Put("p/favorites/y", "value", "2")
	_ = s.Put("p2", "name", "other")

	if err := s.RemoveNode("p"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}

	for _, node := range []string{"p", "p/favorites", "p/favorites/x"} {
		if ok, _ := s.NodeExists(node); ok {
			t.Errorf("Expected %q to be removed", node)
		}
	}
	if ok, _ := s.NodeExists("p2"); !ok {
		t.Error("Sibling with shared prefix should survive")
	}

	if err := s.RemoveNode(""); err != nil {
		t.Fatalf("RemoveNode(root) failed: %v", err)
	}
	if children, _ := s.Children(""); len(children) != 0 {
		t.Errorf("Expected empty store, got children %v", children)
	}
}

func TestMemoryStoreApply(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Put("n", "k", "before")

	boom := errors.New("boom")
	err := s.Apply(func(tx Store) error {
		_ = tx.Put("n", "k", "during")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Apply() = %v, want boom", err)
	}
	if v, _, _ := s.Get("n", "k"); v != "before" {
		t.Errorf("Failed Apply leaked write: %q", v)
	}

	err = s.Apply(func(tx Store) error {
		return tx.Put("n", "k", "after")
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if v, _, _ := s.Get("n", "k"); v != "after" {
		t.Errorf("Get() = %q, want after", v)
	}
}

func TestMemoryStoreRejectsInvalidPath(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put("a//b", "k", "v"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Put() = %v, want ErrInvalidPath", err)
	}
}

func TestNodeHelpers(t *testing.T) {
	s := NewMemoryStore()
	n := Root(s).Child("proj")

	if n.Path() != "proj" || n.Name() != "proj" {
		t.Errorf("Path/Name = %q/%q, want proj/proj", n.Path(), n.Name())
	}

	if v, err := n.Int("max", 20); err != nil || v != 20 {
		t.Errorf("Int(missing) = %d, %v; want 20", v, err)
	}

	_ = n.PutInt("max", 5)
	if v, _ := n.Int("max", 20); v != 5 {
		t.Errorf("Int() = %d, want 5", v)
	}

	_ = n.Put("max", "lots")
	if v, _ := n.Int("max", 20); v != 20 {
		t.Errorf("Int(garbage) = %d, want default 20", v)
	}

	if v, _ := n.Get("name", "fallback"); v != "fallback" {
		t.Errorf("Get(missing) = %q, want fallback", v)
	}

	child := n.Child("favorites").Child("a")
	_ = child.Put("value", "1")
	kids, err := n.Children()
	if err != nil || len(kids) != 1 || kids[0].Name() != "favorites" {
		t.Errorf("Children() = %v, %v; want [favorites]", kids, err)
	}
	if child.Name() != "a" || child.Path() != "proj/favorites/a" {
		t.Errorf("child = %q (%q)", child.Name(), child.Path())
	}
}

func TestCopyTree(t *testing.T) {
	s := NewMemoryStore()
	src := Root(s).Child("old")
	_ = src.Put("name", "Old")
	_ = src.Child("favorites").Child("a").Put("value", "3")
	_ = src.Child("favorites").Child("b").Put("value", "1")

	dst := Root(s).Child("new")
	_ = dst.Put("keep", "yes")

	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree failed: %v", err)
	}

	if v, _ := dst.Get("name", ""); v != "Old" {
		t.Errorf("name = %q, want Old", v)
	}
	if v, _ := dst.Get("keep", ""); v != "yes" {
		t.Errorf("Existing key lost: keep = %q", v)
	}
	if v, _ := dst.Child("favorites").Child("a").Int("value", 0); v != 3 {
		t.Errorf("favorites/a value = %d, want 3", v)
	}
	favs, _ := dst.Child("favorites").Children()
	if len(favs) != 2 {
		t.Errorf("Expected 2 copied favorites, got %d", len(favs))
	}
}
