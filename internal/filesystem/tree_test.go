package filesystem

import (
	"path"
	"sort"
	"testing"

	"github.com/spf13/afero"

	"adhoc-index/internal/contenttype"
)

func newTestTree(t *testing.T, files map[string]string, opts ...Option) *Tree {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/proj", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for name, content := range files {
		// MemMapFs creates missing parents without permission bits
		if err := fs.MkdirAll(path.Dir("/proj/"+name), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := afero.WriteFile(fs, "/proj/"+name, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", name, err)
		}
	}
	tree, err := NewTree(fs, "/proj", opts...)
	if err != nil {
		t.Fatalf("NewTree failed: %v", err)
	}
	return tree
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}

func TestNewTreeNilFs(t *testing.T) {
	if _, err := NewTree(nil, "/x"); err == nil {
		t.Error("Expected error for nil filesystem")
	}
}

func TestNodeBasics(t *testing.T) {
	tree := newTestTree(t, map[string]string{
		"src/Main.java": "class Main {}",
		"README.txt":    "hi",
	})

	root := tree.Root()
	if !root.IsValid() || !root.IsFolder() || root.IsData() {
		t.Errorf("Root should be a valid folder")
	}

	file := tree.Lookup("src/Main.java")
	if !file.IsValid() || !file.IsData() || file.IsFolder() {
		t.Errorf("Main.java should be a valid data node")
	}
	if !file.IsReadable() {
		t.Error("Main.java should be readable")
	}
	if file.Name() != "Main.java" {
		t.Errorf("Name() = %q, want Main.java", file.Name())
	}

	rel, ok := file.RelativePathFrom(root)
	if !ok || rel != "src/Main.java" {
		t.Errorf("RelativePathFrom() = %q, %v; want src/Main.java, true", rel, ok)
	}

	if parent := file.Parent(); parent == nil || parent.Name() != "src" {
		t.Errorf("Parent() = %v, want src", parent)
	}

	missing := tree.Lookup("nope.txt")
	if missing.IsValid() || missing.IsData() || missing.IsReadable() {
		t.Error("Missing node should be invalid")
	}
}

func TestRelativePathOutsideRoot(t *testing.T) {
	tree := newTestTree(t, map[string]string{"a.txt": ""})

	outside := tree.Lookup("/elsewhere/b.txt")
	if _, ok := outside.RelativePathFrom(tree.Root()); ok {
		t.Error("Expected node outside root to be rejected")
	}
	if _, ok := outside.RelativePathFrom(nil); ok {
		t.Error("Expected nil root to be rejected")
	}
}

func TestChildrenSortedAndHiddenSkipped(t *testing.T) {
	tree := newTestTree(t, map[string]string{
		"b.txt":        "",
		"a.txt":        "",
		".hidden":      "",
		".git/config":  "",
		"dir/nest.txt": "",
	})

	got := names(tree.Root().Children())
	want := []string{"a.txt", "b.txt", "dir"}
	if len(got) != len(want) {
		t.Fatalf("Children() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Children()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChildrenIncludeHidden(t *testing.T) {
	tree := newTestTree(t, map[string]string{".hidden": "", "a.txt": ""}, WithSkipHidden(false))

	got := names(tree.Root().Children())
	sort.Strings(got)
	if len(got) != 2 || got[0] != ".hidden" {
		t.Errorf("Children() = %v, want hidden file included", got)
	}
}

func TestChildrenOfFileIsEmpty(t *testing.T) {
	tree := newTestTree(t, map[string]string{"a.txt": ""})
	if kids := tree.Lookup("a.txt").Children(); len(kids) != 0 {
		t.Errorf("Expected no children for a file, got %d", len(kids))
	}
}

func TestUnreadableNode(t *testing.T) {
	tree := newTestTree(t, map[string]string{"secret.txt": "x"})
	if err := tree.Fs().Chmod("/proj/secret.txt", 0); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	node := tree.Lookup("secret.txt")
	if node.IsReadable() {
		t.Error("Expected node with no permission bits to be unreadable")
	}
	if !node.IsValid() {
		t.Error("Unreadable node should still be valid")
	}
}

func TestContentTypeByExtension(t *testing.T) {
	tree := newTestTree(t, map[string]string{
		"A.java":     "",
		"page.HTML":  "",
		"doc.pdf":    "",
		"photo.jpeg": "",
	})

	tests := []struct {
		path string
		want string
	}{
		{"A.java", "text/x-java"},
		{"page.HTML", "text/html"},
		{"doc.pdf", "application/pdf"},
		{"photo.jpeg", "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := tree.Lookup(tt.path).ContentType(); got != tt.want {
				t.Errorf("ContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentTypeSniffing(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	tree := newTestTree(t, map[string]string{
		"image.bin": string(png),
		"notes":     "plain words here",
		"blob.dat":  "\x00\x01\x02\x03",
		"empty.dat": "",
	})

	tests := []struct {
		path string
		want string
	}{
		{"image.bin", "image/png"},
		{"notes", "text/plain"},
		{"blob.dat", contenttype.UnknownType},
		{"empty.dat", contenttype.UnknownType},
		{"missing", contenttype.UnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := tree.Lookup(tt.path).ContentType(); got != tt.want {
				t.Errorf("ContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentTypeMemoized(t *testing.T) {
	tree := newTestTree(t, map[string]string{"notes": "plain words"})

	first := tree.Lookup("notes").ContentType()
	if tree.types.Len() != 1 {
		t.Fatalf("Expected 1 memoized entry, got %d", tree.types.Len())
	}
	second := tree.Lookup("notes").ContentType()
	if first != second {
		t.Errorf("Memoized type %q differs from first %q", second, first)
	}
}

func TestSniffingDisabled(t *testing.T) {
	tree := newTestTree(t, map[string]string{"notes": "plain words"}, WithSniffing(false))
	if got := tree.Lookup("notes").ContentType(); got != contenttype.UnknownType {
		t.Errorf("ContentType() = %q, want %q", got, contenttype.UnknownType)
	}
}

func TestFolderContentTypeUnknown(t *testing.T) {
	tree := newTestTree(t, map[string]string{"dir/a.txt": ""})
	if got := tree.Lookup("dir").ContentType(); got != contenttype.UnknownType {
		t.Errorf("ContentType() = %q, want %q", got, contenttype.UnknownType)
	}
}

func TestLooksLikeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want bool
	}{
		{"ascii", []byte("hello"), true},
		{"utf8", []byte("héllo"), true},
		{"nul", []byte("a\x00b"), false},
		{"invalid", []byte{0xff, 0xfe, 'a', 'b', 'c'}, false},
		{"truncated rune", []byte{'a', 0xc3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeText(tt.in); got != tt.want {
				t.Errorf("looksLikeText(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
