package transport

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v3"

	"github.com/Arakiss/vestig/internal/diag"
	"github.com/Arakiss/vestig/internal/ringbuffer"
	"github.com/Arakiss/vestig/record"
)

// BatchConfig configures the batching base (spec §3 "Transport config" batch
// additions).
type BatchConfig struct {
	Config
	BatchSize       int
	FlushIntervalMs int64
	MaxRetries      int
	RetryDelayMs    int64
}

// WithDefaults fills documented defaults for unset fields.
func (c BatchConfig) WithDefaults() BatchConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.FlushIntervalMs <= 0 {
		c.FlushIntervalMs = 3000
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelayMs <= 0 {
		c.RetryDelayMs = 1000
	}
	return c
}

// SendFunc delivers one batch. A non-nil error is treated as retryable;
// exhausting retries hands the batch to OnSendError.
type SendFunc func(records []record.Log) error

// NonRetryable is implemented by send errors that should abort the retry
// loop immediately (e.g. an HTTP 4xx) rather than exhaust maxRetries (spec
// §7 "Transport send failure": "Non-retryable... report immediately and
// abandon the batch after reporting").
type NonRetryable interface {
	NonRetryable() bool
}

// Stats mirrors spec §4.7's getStats().
type Stats struct {
	Buffered     int
	Dropped      uint64
	IsFlushing   bool
	PendingRetry int
}

// Base implements the batch transport machinery of spec §4.7. Concrete
// transports embed it and supply Send; Base is not itself a Transport
// (it has no Name/Config) so embedding composes cleanly with a concrete
// transport's own identity.
type Base struct {
	cfg BatchConfig
	snd SendFunc

	// OnSendError is invoked when retries are exhausted for a batch. May be
	// nil. Defaults to logging via diag.Warn if unset at first use.
	OnSendError func(err error, records []record.Log)
	// OnDrop is invoked when the buffer overflows and drops the oldest
	// record. Defaults to a diag.Warn line with the drop count.
	OnDrop func(dropped record.Log)

	buf *ringbuffer.Buffer[record.Log]

	mu           sync.Mutex
	isFlushing   bool
	isDestroyed  bool
	failedBatch  []record.Log
	timer        *time.Timer
	timerStopCh  chan struct{}
	initOnce     sync.Once
}

// NewBase constructs a batching base around snd.
func NewBase(cfg BatchConfig, snd SendFunc) *Base {
	cfg = cfg.WithDefaults()
	b := &Base{cfg: cfg, snd: snd}
	b.buf = ringbuffer.New[record.Log](cfg.BatchSize*2, func(dropped record.Log, droppedCount uint64) {
		b.mu.Lock()
		cb := b.OnDrop
		b.mu.Unlock()
		if cb != nil {
			cb(dropped)
		} else {
			diag.Warn("transport %s: dropped record (buffer at capacity, %d total dropped)", cfg.Name, droppedCount)
		}
	})
	return b
}

// Init starts the periodic flush timer, once.
func (b *Base) Init() {
	b.initOnce.Do(func() {
		b.mu.Lock()
		interval := time.Duration(b.cfg.FlushIntervalMs) * time.Millisecond
		b.timerStopCh = make(chan struct{})
		stop := b.timerStopCh
		b.mu.Unlock()
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					_ = b.Flush()
				case <-stop:
					return
				}
			}
		}()
	})
}

// Log pushes entry onto the buffer. If destroyed, no-op. If the buffer
// reaches BatchSize and a flush is not already in flight, an immediate
// async flush is scheduled.
func (b *Base) Log(entry record.Log) {
	b.mu.Lock()
	if b.isDestroyed {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	b.buf.Push(entry)
	if b.buf.Size() >= b.cfg.BatchSize {
		b.mu.Lock()
		flushing := b.isFlushing
		b.mu.Unlock()
		if !flushing {
			go func() { _ = b.Flush() }()
		}
	}
}

// Flush snapshots the buffer (prepending any retained failed batch) and
// sends it with retry. Returns immediately if already flushing or nothing
// to send.
func (b *Base) Flush() error {
	b.mu.Lock()
	if b.isFlushing {
		b.mu.Unlock()
		return nil
	}
	if b.buf.Size() == 0 && len(b.failedBatch) == 0 {
		b.mu.Unlock()
		return nil
	}
	b.isFlushing = true
	failed := b.failedBatch
	b.failedBatch = nil
	b.mu.Unlock()

	snapshot := b.buf.DrainAll()

	batch := make([]record.Log, 0, len(failed)+len(snapshot))
	batch = append(batch, failed...)
	batch = append(batch, snapshot...)

	err := b.sendWithRetry(batch)

	b.mu.Lock()
	b.isFlushing = false
	b.mu.Unlock()
	return err
}

func (b *Base) sendWithRetry(records []record.Log) error {
	if len(records) == 0 {
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(b.cfg.RetryDelayMs) * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var lastErr error
	abandon := false
	for attempt := 0; attempt < b.cfg.MaxRetries; attempt++ {
		lastErr = b.snd(records)
		if lastErr == nil {
			b.mu.Lock()
			b.failedBatch = nil
			b.mu.Unlock()
			return nil
		}
		if nr, ok := lastErr.(NonRetryable); ok && nr.NonRetryable() {
			abandon = true
			break
		}
		if attempt < b.cfg.MaxRetries-1 {
			time.Sleep(bo.NextBackOff())
		}
	}

	b.mu.Lock()
	b.failedBatch = records
	if abandon {
		b.failedBatch = nil
	}
	cb := b.OnSendError
	b.mu.Unlock()
	if cb != nil {
		cb(lastErr, records)
	} else {
		diag.Warn("transport %s: batch of %d records failed after %d attempts: %v", b.cfg.Name, len(records), b.cfg.MaxRetries, lastErr)
	}
	return lastErr
}

// Destroy stops the timer, performs one final flush if the buffer is
// non-empty, and marks the base destroyed. Idempotent.
func (b *Base) Destroy() error {
	b.mu.Lock()
	if b.isDestroyed {
		b.mu.Unlock()
		return nil
	}
	b.isDestroyed = true
	stop := b.timerStopCh
	b.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if b.buf.Size() > 0 || len(b.failedBatch) > 0 {
		return b.Flush()
	}
	return nil
}

// GetStats reports buffer occupancy, drops, flush state and pending-retry
// size (spec §4.7).
func (b *Base) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Buffered:     b.buf.Size(),
		Dropped:      b.buf.DroppedCount(),
		IsFlushing:   b.isFlushing,
		PendingRetry: len(b.failedBatch),
	}
}
