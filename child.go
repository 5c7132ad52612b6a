package vestig

import (
	"runtime"
	"weak"
)

// Child returns a logger whose namespace is "parent:ns", inheriting the
// parent's configuration and overlaying opts (spec §4.10). When no opts are
// supplied, children sharing the same fully-qualified namespace are cached
// and returned by reference; the cache holds only a weak.Pointer so a child
// with no other live reference becomes eligible for collection, at which
// point runtime.AddCleanup prunes the stale cache entry — the Go-native
// equivalent of the spec's "weak references (or equivalent)" cache.
func (l *Logger) Child(ns string, opts ...Option) *Logger {
	fqns := ns
	if l.namespace != "" {
		fqns = l.namespace + ":" + ns
	}

	if len(opts) == 0 {
		if cached := l.lookupChild(fqns); cached != nil {
			return cached
		}
	}

	childCfg := l.toConfig().clone()
	childCfg.namespace = fqns
	for _, opt := range opts {
		opt(&childCfg)
	}

	child := newLoggerFromConfig(childCfg)
	child.parent = l

	if len(opts) == 0 {
		l.storeChild(fqns, child)
	}
	return child
}

func (l *Logger) lookupChild(fqns string) *Logger {
	l.childrenMu.Lock()
	defer l.childrenMu.Unlock()
	entry, ok := l.children[fqns]
	if !ok {
		return nil
	}
	if c := entry.Value(); c != nil {
		return c
	}
	delete(l.children, fqns)
	return nil
}

func (l *Logger) storeChild(fqns string, child *Logger) {
	l.childrenMu.Lock()
	l.children[fqns] = weak.Make(child)
	l.childrenMu.Unlock()
	runtime.AddCleanup(child, l.evictChild, fqns)
}

func (l *Logger) evictChild(fqns string) {
	l.childrenMu.Lock()
	defer l.childrenMu.Unlock()
	delete(l.children, fqns)
}

// toConfig snapshots the logger's current settings into a config value,
// the basis for deriving a child (spec §4.10 "inherits the parent's and
// overlays partialConfig").
func (l *Logger) toConfig() config {
	return config{
		namespace:       l.namespace,
		level:           l.GetLevel(),
		enabled:         l.IsEnabled(),
		structured:      l.structured,
		colors:          l.colors,
		staticContext:   l.snapshotStaticContext(),
		sanitizeEnabled: l.sanitizeEnabled.Load(),
		sanitizeConfig:  l.sanitizeConfig,
		sampler:         l.sampler,
		dedupConfig:     l.dd.Config(),
		transports:      l.snapshotTransports(),
	}
}
