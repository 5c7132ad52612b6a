// Package runtimeprobe identifies the host environment once at load time and
// exposes the capability flags the rest of the library gates behavior on.
package runtimeprobe

import (
	"crypto/rand"
	"runtime"
	"sync"
)

// Tag is the runtime identifier attached to every log record and span
// resource, mirroring the teacher's "lang":"Go" startup field.
const Tag = "go"

// Capabilities describes what the current process can rely on.
type Capabilities struct {
	// Goroutines reports whether the host schedules real OS-thread
	// parallelism (always true on Go; kept as a field because the upstream
	// spec treats it as probed, not assumed).
	Goroutines bool
	// CryptoRand reports whether a cryptographic RNG is usable. On Go this
	// is true unless /dev/urandom (or equivalent) is unreadable, which a
	// single probing read reveals.
	CryptoRand bool
	// HighResClock reports whether a monotonic clock is available; Go's
	// runtime always provides one via time.Now()'s monotonic reading.
	HighResClock bool
	GOOS         string
	GOARCH       string
	NumCPU       int
}

var (
	once    sync.Once
	current Capabilities
)

// Probe returns the process-wide capability set, computed once.
func Probe() Capabilities {
	once.Do(func() {
		current = Capabilities{
			Goroutines:   true,
			CryptoRand:   probeCryptoRand(),
			HighResClock: true,
			GOOS:         runtime.GOOS,
			GOARCH:       runtime.GOARCH,
			NumCPU:       runtime.NumCPU(),
		}
	})
	return current
}

func probeCryptoRand() bool {
	var b [1]byte
	_, err := rand.Read(b[:])
	return err == nil
}
