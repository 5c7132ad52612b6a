package sanitize

import (
	"strconv"
	"strings"

	goglob "github.com/ryanuber/go-glob"

	"github.com/Arakiss/vestig/internal/pathglob"
)

// Sanitize recursively redacts cfg from v and returns the transformed copy.
// It never raises: malformed input is returned unchanged. If cfg is
// disabled, v is returned unmodified.
func Sanitize(cfg Config, v interface{}) interface{} {
	if !cfg.Enabled {
		return v
	}
	cfg = cfg.WithDefaults()
	return sanitizeNode(cfg, v, "", 0)
}

func sanitizeNode(cfg Config, v interface{}, path string, depth int) interface{} {
	if depth > cfg.MaxDepth {
		return v
	}
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return t
	case string:
		if t == "" {
			return t
		}
		return sanitizeString(cfg, t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			out[i] = sanitizeNode(cfg, elem, path+"["+strconv.Itoa(i)+"]", depth+1)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for key, val := range t {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if fieldMatches(cfg, key, childPath) {
				out[key] = cfg.Replacement
				continue
			}
			out[key] = sanitizeNode(cfg, val, childPath, depth+1)
		}
		return out
	default:
		// Unknown concrete type (e.g. a caller-defined struct serialized
		// elsewhere): pass through unchanged rather than guessing.
		return v
	}
}

func sanitizeString(cfg Config, s string) string {
	for _, p := range cfg.Patterns {
		if p.Regex == nil {
			continue
		}
		s = p.Regex.ReplaceAllStringFunc(s, func(match string) string {
			switch {
			case p.ReplaceFunc != nil:
				return p.ReplaceFunc(match)
			case p.Replacement != "":
				return p.Replacement
			default:
				return cfg.Replacement
			}
		})
	}
	return s
}

func fieldMatches(cfg Config, key, path string) bool {
	lowerKey := strings.ToLower(key)
	lowerPath := strings.ToLower(path)
	for _, m := range cfg.Fields {
		if matcherMatches(m, key, path, lowerKey, lowerPath) {
			return true
		}
	}
	return false
}

func matcherMatches(m FieldMatcher, key, path, lowerKey, lowerPath string) bool {
	value := m.Value
	k, p := key, path
	if !m.CaseSensitive {
		value = strings.ToLower(value)
		k, p = lowerKey, lowerPath
	}

	if pathglob.IsGlob(value) {
		return pathglob.Match(value, p) || pathglob.Match(value, k)
	}

	switch m.Type {
	case MatchExact, "":
		return k == value || p == value
	case MatchPrefix:
		return strings.HasPrefix(k, value) || strings.HasPrefix(p, value)
	case MatchSuffix:
		return strings.HasSuffix(k, value) || strings.HasSuffix(p, value)
	case MatchContains:
		return goglob.Glob("*"+value+"*", k) || goglob.Glob("*"+value+"*", p)
	case MatchRegex:
		if m.compiled == nil {
			return false
		}
		return m.compiled.MatchString(k) || m.compiled.MatchString(p)
	default:
		return false
	}
}
