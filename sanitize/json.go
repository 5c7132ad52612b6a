package sanitize

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SanitizeJSON redacts cfg from a raw JSON document (e.g. a captured
// request/response body stashed verbatim in log metadata, where the value
// is a JSON string rather than an already-decoded map[string]interface{}).
// Malformed JSON is returned unchanged, matching Sanitize's never-raise
// contract.
func SanitizeJSON(cfg Config, jsonDoc string) string {
	if !cfg.Enabled || !gjson.Valid(jsonDoc) {
		return jsonDoc
	}
	cfg = cfg.WithDefaults()
	out := jsonDoc
	gjson.Parse(jsonDoc).ForEach(func(key, value gjson.Result) bool {
		out = sanitizeJSONNode(cfg, out, key.String(), value, 0)
		return true
	})
	return out
}

func sanitizeJSONNode(cfg Config, doc string, path string, value gjson.Result, depth int) string {
	if depth > cfg.MaxDepth {
		return doc
	}
	if fieldMatches(cfg, lastSegment(path), path) {
		updated, err := sjson.Set(doc, path, cfg.Replacement)
		if err != nil {
			return doc
		}
		return updated
	}

	switch {
	case value.IsObject():
		value.ForEach(func(childKey, childValue gjson.Result) bool {
			doc = sanitizeJSONNode(cfg, doc, path+"."+childKey.String(), childValue, depth+1)
			return true
		})
	case value.IsArray():
		i := 0
		value.ForEach(func(_, elem gjson.Result) bool {
			doc = sanitizeJSONNode(cfg, doc, path+"."+itoaJSON(i), elem, depth+1)
			i++
			return true
		})
	case value.Type == gjson.String:
		redacted := sanitizeString(cfg, value.String())
		if redacted != value.String() {
			if updated, err := sjson.Set(doc, path, redacted); err == nil {
				doc = updated
			}
		}
	}
	return doc
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

func itoaJSON(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}
