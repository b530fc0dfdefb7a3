package filesystem

import (
	"io"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/h2non/filetype"

	"adhoc-index/internal/contenttype"
	"adhoc-index/internal/logging"
)

// sniffLen is the header size filetype needs to match every kind it knows.
const sniffLen = 261

// detect resolves a node's content type. Extension lookup wins; otherwise the
// file header is sniffed. Results are memoized by path, size and mtime.
func (t *Tree) detect(n *Node) string {
	obs := observe()

	info, err := n.stat()
	if err != nil || !info.Mode().IsRegular() {
		obs.ObserveContentType("unknown")
		return contenttype.UnknownType
	}

	if mime, ok := contenttype.GetMimeType(filepath.Ext(n.path)); ok {
		obs.ObserveContentType("extension")
		return mime
	}

	if !t.sniff {
		obs.ObserveContentType("unknown")
		return contenttype.UnknownType
	}

	key := typeKey(n.path, info.Size(), info.ModTime().UnixNano())
	if cached, ok := t.types.Get(key); ok {
		obs.ObserveContentType("cache")
		return cached
	}

	mime := t.sniffFile(n.path)
	t.types.Add(key, mime)
	if mime == contenttype.UnknownType {
		obs.ObserveContentType("unknown")
	} else {
		obs.ObserveContentType("sniff")
	}
	return mime
}

func (t *Tree) sniffFile(path string) string {
	f, err := OpenWithRetry(t.fs, path, t.retry)
	if err != nil {
		logging.Debug("Cannot open %s for sniffing: %v", path, err)
		return contenttype.UnknownType
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	read, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		logging.Debug("Cannot read %s for sniffing: %v", path, err)
		return contenttype.UnknownType
	}
	head = head[:read]

	if len(head) == 0 {
		return contenttype.UnknownType
	}

	kind, err := filetype.Match(head)
	if err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}

	if looksLikeText(head) {
		return "text/plain"
	}
	return contenttype.UnknownType
}

// looksLikeText reports whether a header is valid UTF-8 without NUL bytes.
// A multi-byte rune cut off at the end of the header is tolerated.
func looksLikeText(head []byte) bool {
	for i := 0; i < len(head); {
		if head[i] == 0 {
			return false
		}
		r, size := utf8.DecodeRune(head[i:])
		if r == utf8.RuneError && size == 1 {
			return len(head)-i < utf8.UTFMax && !utf8.FullRune(head[i:])
		}
		i += size
	}
	return true
}

func typeKey(path string, size, mtime int64) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(path)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.FormatInt(size, 10))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.FormatInt(mtime, 10))
	return d.Sum64()
}
