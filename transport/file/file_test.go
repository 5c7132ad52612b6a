package file

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/transport"
)

// memStore is an in-memory FileStore double.
type memStore struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
}

func newMemStore() *memStore {
	return &memStore{files: map[string]*bytes.Buffer{}}
}

type memWriter struct {
	s    *memStore
	path string
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	buf := w.s.files[w.path]
	return buf.Write(p)
}

func (w *memWriter) Close() error { return nil }

func (s *memStore) OpenAppend(path string) (io.WriteCloser, int64, error) {
	s.mu.Lock()
	buf, ok := s.files[path]
	if !ok {
		buf = &bytes.Buffer{}
		s.files[path] = buf
	}
	size := int64(buf.Len())
	s.mu.Unlock()
	return &memWriter{s: s, path: path}, size, nil
}

func (s *memStore) OpenRead(path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func (s *memStore) Stat(path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.files[path]
	if !ok {
		return 0, io.ErrUnexpectedEOF
	}
	return int64(buf.Len()), nil
}

func (s *memStore) Rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.files[oldPath]
	if !ok {
		return io.ErrUnexpectedEOF
	}
	s.files[newPath] = buf
	delete(s.files, oldPath)
	return nil
}

func (s *memStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *memStore) Glob(pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for p := range s.files {
		if strings.HasPrefix(p, prefix) && p != strings.TrimSuffix(prefix, ".") {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok
}

func (s *memStore) content(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.files[path]; ok {
		return buf.String()
	}
	return ""
}

func TestFileTransportAppendsJSONLines(t *testing.T) {
	store := newMemStore()
	tr := New(Options{
		BatchConfig: transport.BatchConfig{Config: transport.Config{Name: "file"}, BatchSize: 10},
		Path:        "/tmp/app.log",
		Store:       store,
	})
	if err := tr.Flush(); err != nil {
		t.Fatalf("flush on empty buffer should be a no-op: %v", err)
	}
	tr.Log(record.Log{Level: level.Info, Message: "one"})
	tr.Log(record.Log{Level: level.Info, Message: "two"})
	if err := tr.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := store.content("/tmp/app.log")
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], `"message":"one"`) || !strings.Contains(lines[1], `"message":"two"`) {
		t.Fatalf("unexpected line content: %q", content)
	}
}

func TestFileTransportRotatesOnMaxBytesAndGzips(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(Options{
		BatchConfig: transport.BatchConfig{Config: transport.Config{Name: "file"}, BatchSize: 10},
		Path:        "/tmp/app.log",
		MaxBytes:    10,
		Gzip:        true,
		Store:       store,
		Now:         func() time.Time { return now },
	})
	tr.Log(record.Log{Level: level.Info, Message: "this is a long enough message to exceed ten bytes"})
	tr.Log(record.Log{Level: level.Info, Message: "second"})
	if err := tr.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	segments := tr.currentSegments()
	var gz string
	for _, s := range segments {
		if strings.HasSuffix(s, ".gz") {
			gz = s
		}
	}
	if gz == "" {
		t.Fatalf("expected a gzipped rotated segment among %v", segments)
	}
	raw := store.content(gz)
	r, err := gzip.NewReader(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("not valid gzip: %v", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("gzip read error: %v", err)
	}
	if !strings.Contains(string(decoded), "exceed ten bytes") {
		t.Fatalf("expected rotated segment to contain the first message, got %q", decoded)
	}

	live := store.content("/tmp/app.log")
	if !strings.Contains(live, "second") {
		t.Fatalf("expected live file to contain the second message, got %q", live)
	}
}

func TestFileTransportCascadesNumberedSegmentsAndPrunesStale(t *testing.T) {
	store := newMemStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	tr := New(Options{
		BatchConfig: transport.BatchConfig{Config: transport.Config{Name: "file"}, BatchSize: 10},
		Path:        "/tmp/app.log",
		MaxBytes:    1,
		MaxFiles:    3,
		Store:       store,
		Now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	})
	for i := 0; i < 5; i++ {
		tr.Log(record.Log{Message: "x"})
		if err := tr.Flush(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !store.exists("/tmp/app.log.1") || !store.exists("/tmp/app.log.2") {
		t.Fatalf("expected the numbered cascade <path>.1 and <path>.2 to exist, got %v", tr.currentSegments())
	}
	if store.exists("/tmp/app.log.3") {
		t.Fatal("expected <path>.{MaxFiles} to be pruned as stale, never retained")
	}
	segments := tr.currentSegments()
	if len(segments) > 2 {
		t.Fatalf("expected at most MaxFiles-1=2 retained rotated segments, got %d: %v", len(segments), segments)
	}
}
