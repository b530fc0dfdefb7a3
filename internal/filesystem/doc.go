/*
Package filesystem provides the read-only file hierarchy that the type index
and favorites resolve paths against.

A [Tree] wraps an afero.Fs and a root directory and hands out [Node] values
that answer the questions the walker asks: is it valid, readable, a folder or
a data file, what are its children and what is its content type.

	tree, err := filesystem.NewTree(afero.NewOsFs(), "/home/me/project")
	if err != nil {
	    return err
	}
	for _, child := range tree.Root().Children() {
	    fmt.Println(child.Name(), child.ContentType())
	}

Tests use afero.NewMemMapFs() so no real directories are needed.

# Content Types

Content types come from the extension table in the contenttype package. When
the extension is unknown, the first 261 bytes are matched with
github.com/h2non/filetype, and headers that decode as UTF-8 text fall back to
"text/plain". Sniffed answers are memoized in an LRU keyed by an xxhash of
path, size and modification time, so an edited file is sniffed again.

# Retry Behavior

Stat, Open and ReadDir are retried with exponential backoff when they fail
with ESTALE (NFS stale file handle). Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

All other errors fail immediately. Metrics are reported through an [Observer]
installed with [SetObserver]; without one nothing is recorded.
*/
package filesystem
