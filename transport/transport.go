// Package transport implements the pluggable sink framework of spec §4.7 and
// §4.8: a common Transport interface, a bounded-queue batching base with
// periodic+threshold flush and retry, and the concrete console/HTTP/Datadog
// transports (the file transport lives in the transport/file subpackage
// since it additionally depends on an abstract FileStore collaborator).
package transport

import (
	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
)

// Config is the common per-transport configuration (spec §3 "Transport
// config").
type Config struct {
	Name    string
	Enabled bool
	Level   *level.Level
	Filter  func(record.Log) bool
}

// Admits reports whether r passes this config's level/filter gate. It does
// NOT check Enabled; callers check that separately since the fan-out loop
// documents it as a distinct skip reason (spec §4.10).
func (c Config) Admits(r record.Log) bool {
	if c.Level != nil && r.Level < *c.Level {
		return false
	}
	if c.Filter != nil && !c.Filter(r) {
		return false
	}
	return true
}

// Transport is a destination/sink implementing init/log/flush/destroy (spec
// GLOSSARY).
type Transport interface {
	Name() string
	Config() Config
	Init() error
	Log(r record.Log)
	Flush() error
	Destroy() error
}
