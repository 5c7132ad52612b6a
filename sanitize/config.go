// Package sanitize implements the recursive, depth-bounded PII/credential
// redaction transform described in spec §4.3, including its preset library.
package sanitize

import "regexp"

// MatchType enumerates the field matcher kinds.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPrefix   MatchType = "prefix"
	MatchSuffix   MatchType = "suffix"
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
)

// FieldMatcher identifies a field by literal key, structural match against
// the key or full dot-path, or regex. Matching is case-insensitive unless
// CaseSensitive is set. A Value containing "*" is interpreted as a dot-path
// glob (spec §4.3) regardless of Type.
type FieldMatcher struct {
	Type          MatchType
	Value         string
	CaseSensitive bool

	compiled *regexp.Regexp // for MatchRegex
}

// Literal builds a matcher equivalent to a bare literal field name: matches
// the lowercased leaf key exactly.
func Literal(key string) FieldMatcher {
	return FieldMatcher{Type: MatchExact, Value: key}
}

// ReplaceFunc computes a replacement for a single regex match.
type ReplaceFunc func(match string) string

// Pattern is a named regex applied to every string value in declaration
// order. Exactly one of Replacement or ReplaceFunc should be set; if
// neither is set the sanitizer's configured default Replacement is used.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	ReplaceFunc ReplaceFunc
}

// Config is the sanitizer configuration (spec §3 "Sanitizer config").
type Config struct {
	Enabled     bool
	Fields      []FieldMatcher
	Patterns    []Pattern
	Replacement string // default "[REDACTED]"
	MaxDepth    int    // default 10
}

// WithDefaults fills in the documented zero-value defaults without
// overriding explicitly-set fields.
func (c Config) WithDefaults() Config {
	if c.Replacement == "" {
		c.Replacement = "[REDACTED]"
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 10
	}
	return c
}

// Compile resolves regexes on FieldMatchers of type MatchRegex. Call once
// after building a Config from user input; presets are pre-compiled.
func (c Config) Compile() (Config, error) {
	fields := make([]FieldMatcher, len(c.Fields))
	copy(fields, c.Fields)
	for i := range fields {
		if fields[i].Type == MatchRegex && fields[i].compiled == nil {
			re, err := regexp.Compile(fields[i].Value)
			if err != nil {
				return c, err
			}
			fields[i].compiled = re
		}
	}
	c.Fields = fields
	return c, nil
}
