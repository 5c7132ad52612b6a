package vestig

import "sync/atomic"

// defaultLogger holds the process-wide singleton, mirroring the teacher's
// globalTracer atomic.Value: never nil once initialized, swappable with
// SetDefault, concurrency-safe without a mutex (ddtrace/tracer
// globaltracer_test.go "TestGlobalTracer").
var defaultLogger atomic.Pointer[Logger]

func init() {
	l, err := CreateLogger()
	if err != nil {
		// Defaults never fail validation (no transports configured yet),
		// but guard against a future default-config regression loudly
		// rather than leaving the singleton nil.
		panic("vestig: failed to construct default logger: " + err.Error())
	}
	defaultLogger.Store(l)
}

// Default returns the process-wide default Logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide default Logger.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(l)
}
