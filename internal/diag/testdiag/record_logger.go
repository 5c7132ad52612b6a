// Package testdiag provides a record-and-assert diagnostic sink, mirroring
// the teacher's internal/log.RecordLogger test double used throughout
// log_test.go.
package testdiag

import (
	"fmt"
	"strings"
	"sync"
)

// RecordLogger captures every formatted diagnostic line for later assertion.
type RecordLogger struct {
	mu      sync.Mutex
	lines   []string
	ignores []string
}

// Printf implements diag.Printer.
func (r *RecordLogger) Printf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ig := range r.ignores {
		if strings.Contains(line, ig) {
			return
		}
	}
	r.lines = append(r.lines, line)
}

// Ignore registers substrings whose matching lines are dropped instead of
// recorded, so tests can silence noisy unrelated diagnostics.
func (r *RecordLogger) Ignore(substrings ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignores = append(r.ignores, substrings...)
}

// Logs returns every recorded line, in emission order.
func (r *RecordLogger) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Reset clears recorded lines but keeps configured ignores.
func (r *RecordLogger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}
