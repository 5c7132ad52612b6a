// Package ids generates correlation identifiers (trace IDs, span IDs, request
// UUIDs) and encodes/decodes the W3C Trace Context headers. See spec §4.1.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/Arakiss/vestig/internal/runtimeprobe"
)

// TraceIDHexLen is the canonical length of a rendered trace ID.
const TraceIDHexLen = 32

// SpanIDHexLen is the canonical length of a rendered span ID.
const SpanIDHexLen = 16

var (
	fallbackMu   sync.Mutex
	fallbackRand = mrand.New(mrand.NewSource(fallbackSeed()))
)

func fallbackSeed() int64 {
	var b [8]byte
	// best-effort seed; falls back to a fixed seed of 1 if even /dev/urandom
	// backed crypto/rand is unavailable, matching the spec's "never fails"
	// requirement for degraded ID generation.
	if _, err := rand.Read(b[:]); err == nil {
		var v int64
		for _, c := range b {
			v = v<<8 | int64(c)
		}
		return v
	}
	return 1
}

func randomBytes(n int) []byte {
	buf := make([]byte, n)
	if runtimeprobe.Probe().CryptoRand {
		if _, err := rand.Read(buf); err == nil {
			return buf
		}
	}
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	_, _ = fallbackRand.Read(buf)
	return buf
}

// NewTraceID returns 16 random bytes rendered as 32 lowercase hex chars.
func NewTraceID() string {
	return hex.EncodeToString(randomBytes(16))
}

// NewSpanID returns 8 random bytes rendered as 16 lowercase hex chars.
func NewSpanID() string {
	return hex.EncodeToString(randomBytes(8))
}

// NewRequestID returns a v4 UUID from google/uuid, which reads crypto/rand.
// Only if that fails is the UUID built from randomBytes, the same
// probe-gated source (with its pseudo-random degradation) the other IDs use.
func NewRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// uuid.NewRandom only fails if the entropy source errors; fall back
		// to a v4 UUID built from our own degraded random source.
		b := randomBytes(16)
		b[6] = (b[6] & 0x0f) | 0x40 // version 4
		b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant
		u, _ := uuid.FromBytes(b)
		return u.String()
	}
	return id.String()
}

// ValidTraceID reports whether s is a syntactically valid 32-char lowercase
// hex trace ID.
func ValidTraceID(s string) bool {
	return isLowerHex(s, TraceIDHexLen)
}

// ValidSpanID reports whether s is a syntactically valid 16-char lowercase
// hex span ID.
func ValidSpanID(s string) bool {
	return isLowerHex(s, SpanIDHexLen)
}

func isLowerHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
