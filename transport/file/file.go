package file

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/Arakiss/vestig/internal/diag"
	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/transport"
)

// Options configures the file transport (spec §4.9).
type Options struct {
	transport.BatchConfig
	// Path is the live log file path, e.g. "/var/log/app/app.log". Rotated
	// segments are written alongside it as "<path>.<n>"(.gz), numbered as
	// described on rotateIfNeededLocked.
	Path string
	// Rotate selects a time-based rotation cadence in addition to MaxBytes.
	Rotate RotateInterval
	// MaxBytes rotates the live file before a write once its size has
	// reached this value; the length of the incoming line is not counted,
	// so one write can take the live file past MaxBytes. Zero disables
	// size-based rotation.
	MaxBytes int64
	// MaxFiles bounds the numbered cascade: at most MaxFiles-1 rotated
	// segments (<path>.1 to <path>.{MaxFiles-1}) are kept, the oldest being
	// overwritten or deleted. Zero or less means unbounded.
	MaxFiles int
	// Gzip compresses a segment as soon as it is rotated out of the live
	// path.
	Gzip bool
	// Store abstracts the filesystem; defaults to OSFileStore.
	Store FileStore
	// Now is injectable for deterministic rotation tests.
	Now func() time.Time
}

// Transport is a batch transport that appends newline-delimited JSON
// records to a rotating log file.
type Transport struct {
	*transport.Base
	opts Options

	mu        sync.Mutex
	writer    io.WriteCloser
	size      int64
	boundary  time.Time
	seq       int64 // last sequential segment number used when MaxFiles is unbounded (<=0)
}

// New constructs a file transport.
func New(opts Options) *Transport {
	if opts.Store == nil {
		opts.Store = OSFileStore{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t := &Transport{opts: opts}
	t.Base = transport.NewBase(opts.BatchConfig, t.send)
	return t
}

func (t *Transport) Name() string            { return t.opts.Config.Name }
func (t *Transport) Config() transport.Config { return t.opts.Config }

func (t *Transport) send(records []record.Log) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.opts.Now()
	if err := t.ensureOpenLocked(now); err != nil {
		return err
	}

	for _, r := range records {
		if err := t.rotateIfNeededLocked(now); err != nil {
			return err
		}
		line, err := json.Marshal(r)
		if err != nil {
			continue
		}
		line = append(line, '\n')
		n, err := t.writer.Write(line)
		if err != nil {
			return err
		}
		t.size += int64(n)
	}
	return nil
}

func (t *Transport) ensureOpenLocked(now time.Time) error {
	if t.writer != nil {
		return nil
	}
	w, size, err := t.opts.Store.OpenAppend(t.opts.Path)
	if err != nil {
		return err
	}
	t.writer = w
	t.size = size
	t.boundary = rotationBoundary(now, t.opts.Rotate)
	return nil
}

// segPath renders the numbered rotated-segment path "<path>.{i}" or, when
// gzip is enabled, "<path>.{i}.gz" (spec §4.8/§6 "wire format — file").
func segPath(path string, i int, gz bool) string {
	if gz {
		return fmt.Sprintf("%s.%d.gz", path, i)
	}
	return fmt.Sprintf("%s.%d", path, i)
}

func (t *Transport) exists(path string) bool {
	_, err := t.opts.Store.Stat(path)
	return err == nil
}

// rotateIfNeededLocked implements spec §4.8's numbered cascade: close the
// live file; for i from MaxFiles-1 down to 1, if the segment one slot below
// i exists, rename it up into slot i (i==1's "slot below" is the live file
// itself: it is gzipped into "<path>.1.gz", or renamed to "<path>.1" when
// compression is off); unlink the now-stale "<path>.{MaxFiles}(.gz)"; reopen
// the live file. MaxFiles<=0 ("unbounded") has no fixed cascade depth, so
// segments are instead numbered by an ever-incrementing sequence with no
// pruning.
func (t *Transport) rotateIfNeededLocked(now time.Time) error {
	sizeExceeded := t.opts.MaxBytes > 0 && t.size >= t.opts.MaxBytes
	timeExceeded := t.opts.Rotate != RotateNone && rotationBoundary(now, t.opts.Rotate).After(t.boundary)
	if !sizeExceeded && !timeExceeded {
		return nil
	}
	if err := t.writer.Close(); err != nil {
		return err
	}
	t.writer = nil

	if t.opts.MaxFiles <= 0 {
		t.seq++
		dest := segPath(t.opts.Path, int(t.seq), t.opts.Gzip)
		if err := t.rotateLiveInto(dest); err != nil {
			return err
		}
		return t.ensureOpenLocked(now)
	}

	for i := t.opts.MaxFiles - 1; i >= 1; i-- {
		if i == 1 {
			if err := t.rotateLiveInto(segPath(t.opts.Path, 1, t.opts.Gzip)); err != nil {
				return err
			}
			continue
		}
		src := segPath(t.opts.Path, i-1, t.opts.Gzip)
		if !t.exists(src) {
			continue
		}
		dst := segPath(t.opts.Path, i, t.opts.Gzip)
		if err := t.opts.Store.Rename(src, dst); err != nil {
			return err
		}
	}

	stale := segPath(t.opts.Path, t.opts.MaxFiles, t.opts.Gzip)
	if t.exists(stale) {
		if err := t.opts.Store.Remove(stale); err != nil {
			diag.Warn("file transport %s: failed to unlink stale segment %s: %v", t.opts.Config.Name, stale, err)
		}
	}

	return t.ensureOpenLocked(now)
}

// rotateLiveInto moves the live file out to dest: a gzip-compress-then-
// unlink when compression is enabled, a plain rename otherwise.
func (t *Transport) rotateLiveInto(dest string) error {
	if t.opts.Gzip {
		if err := t.gzipLiveFile(dest); err != nil {
			diag.Warn("file transport %s: failed to gzip live file into %s: %v", t.opts.Config.Name, dest, err)
			return err
		}
		return nil
	}
	return t.opts.Store.Rename(t.opts.Path, dest)
}

func (t *Transport) gzipLiveFile(dest string) error {
	// klauspost/compress/gzip is a drop-in, faster-on-modern-CPUs
	// replacement for compress/gzip with the same Writer API.
	src, err := t.opts.Store.OpenRead(t.opts.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, _, err := t.opts.Store.OpenAppend(dest)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(dst)

	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		dst.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return t.opts.Store.Remove(t.opts.Path)
}

// Destroy flushes any remaining buffered records and closes the live file
// handle.
func (t *Transport) Destroy() error {
	err := t.Base.Destroy()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writer != nil {
		if cerr := t.writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		t.writer = nil
	}
	return err
}

// currentSegments lists rotated segment paths on disk, sorted by name, for
// diagnostics and tests.
func (t *Transport) currentSegments() []string {
	matches, _ := t.opts.Store.Glob(t.opts.Path + ".*")
	sort.Strings(matches)
	return matches
}
