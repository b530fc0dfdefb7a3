package filesystem

import (
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// staleFs fails the first failures calls to Stat and Open with ESTALE.
type staleFs struct {
	afero.Fs
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *staleFs) fail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return true
	}
	return false
}

func (s *staleFs) Stat(name string) (os.FileInfo, error) {
	if s.fail() {
		return nil, &os.PathError{Op: "stat", Path: name, Err: syscall.ESTALE}
	}
	return s.Fs.Stat(name)
}

func (s *staleFs) Open(name string) (afero.File, error) {
	if s.fail() {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ESTALE}
	}
	return s.Fs.Open(name)
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Volume:         "test",
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.volume() != "unknown" {
		t.Errorf("volume() = %q, want unknown", config.volume())
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isNFSStaleError(tt.err)
			if got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatWithRetry_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/a.txt", []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := StatWithRetry(fs, "/data/a.txt", fastRetry())
	if err != nil {
		t.Fatalf("StatWithRetry failed: %v", err)
	}
	if info.Size() != 5 {
		t.Errorf("Size() = %d, want 5", info.Size())
	}
}

func TestStatWithRetry_NotExist(t *testing.T) {
	fs := &staleFs{Fs: afero.NewMemMapFs()}

	_, err := StatWithRetry(fs, "/missing", fastRetry())
	if !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if fs.calls != 1 {
		t.Errorf("Expected 1 call for non-stale error, got %d", fs.calls)
	}
}

func TestStatWithRetry_RecoversFromStaleHandle(t *testing.T) {
	fs := &staleFs{Fs: afero.NewMemMapFs(), failures: 2}
	if err := afero.WriteFile(fs.Fs, "/a", []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := StatWithRetry(fs, "/a", fastRetry()); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if fs.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", fs.calls)
	}
}

func TestStatWithRetry_GivesUp(t *testing.T) {
	fs := &staleFs{Fs: afero.NewMemMapFs(), failures: 100}

	_, err := StatWithRetry(fs, "/a", fastRetry())
	if !isNFSStaleError(err) {
		t.Errorf("Expected stale error after exhausting retries, got %v", err)
	}
	if fs.calls != 4 {
		t.Errorf("Expected 4 calls (1 + 3 retries), got %d", fs.calls)
	}
}

func TestOpenWithRetry_Success(t *testing.T) {
	fs := &staleFs{Fs: afero.NewMemMapFs(), failures: 1}
	if err := afero.WriteFile(fs.Fs, "/a", []byte("content"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := OpenWithRetry(fs, "/a", fastRetry())
	if err != nil {
		t.Fatalf("OpenWithRetry failed: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 7)
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != "content" {
		t.Errorf("Read %q, want %q", buf, "content")
	}
}

func TestReadDirWithRetry(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/d/b", "/d/a", "/d/c"} {
		if err := afero.WriteFile(fs, name, nil, 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	infos, err := ReadDirWithRetry(fs, "/d", fastRetry())
	if err != nil {
		t.Fatalf("ReadDirWithRetry failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(infos))
	}
	if infos[0].Name() != "a" || infos[2].Name() != "c" {
		t.Errorf("Expected sorted entries, got %s..%s", infos[0].Name(), infos[2].Name())
	}
}

func TestRetryConfig_ExponentialBackoff(t *testing.T) {
	fs := &staleFs{Fs: afero.NewMemMapFs(), failures: 100}
	config := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	}

	start := time.Now()
	_, _ = StatWithRetry(fs, "/a", config)
	elapsed := time.Since(start)

	// 5ms + 10ms + 10ms (capped)
	if elapsed < 25*time.Millisecond {
		t.Errorf("Expected at least 25ms of backoff, got %v", elapsed)
	}
}
