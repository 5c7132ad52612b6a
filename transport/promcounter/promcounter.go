// Package promcounter is a peripheral transport that exposes emitted log
// counts as a Prometheus counter instead of shipping the records anywhere,
// grounded on the node-cache metrics plugin's CounterVec/registry idiom.
package promcounter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Arakiss/vestig/record"
	"github.com/Arakiss/vestig/transport"
)

// Options configures the counter transport.
type Options struct {
	transport.Config
	// Namespace/Subsystem prefix the metric name, matching prometheus.Opts
	// conventions. Name defaults to "records_total".
	Namespace string
	Subsystem string
	Name      string
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Counter increments a CounterVec{level,namespace} per record, never
// batching or forwarding payload content anywhere.
type Counter struct {
	opts    Options
	vec     *prometheus.CounterVec
	initErr error
}

// New constructs the counter transport and its CounterVec. Registration is
// deferred to Init so construction never fails.
func New(opts Options) *Counter {
	if opts.Name == "" {
		opts.Name = "records_total"
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      "Total number of log records emitted, by level and namespace.",
	}, []string{"level", "namespace"})
	return &Counter{opts: opts, vec: vec}
}

func (c *Counter) Name() string             { return c.opts.Config.Name }
func (c *Counter) Config() transport.Config { return c.opts.Config }

// Init registers the CounterVec. Registering the same collector twice (e.g.
// a second Init call) is tolerated via AlreadyRegisteredError, matching
// registerMetrics' idempotent intent in the teacher.
func (c *Counter) Init() error {
	if err := c.opts.Registerer.Register(c.vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			c.vec = are.ExistingCollector.(*prometheus.CounterVec)
			return nil
		}
		c.initErr = err
		return err
	}
	return nil
}

func (c *Counter) Log(r record.Log) {
	if c.initErr != nil {
		return
	}
	c.vec.WithLabelValues(r.Level.String(), r.Namespace).Inc()
}

func (c *Counter) Flush() error { return nil }

func (c *Counter) Destroy() error {
	if c.vec != nil {
		c.opts.Registerer.Unregister(c.vec)
	}
	return nil
}
