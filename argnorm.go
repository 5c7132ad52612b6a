package vestig

import (
	"fmt"

	"github.com/Arakiss/vestig/record"
)

// normalizeArgs implements spec §4.10's variadic argument-shape resolution:
//  1. zero args -> ("", {})
//  2. first arg a string -> that is the message; if the sole remaining arg
//     is a non-nil non-error-like map it becomes metadata wholesale,
//     otherwise each remaining arg is merged in per its own shape
//  3. first arg not a string -> message is its string form, and every arg
//     (including the first) is walked through the same per-arg merge rules
//
// An error-like value is an actual error, or a map carrying a string
// "message" key (spec §4.10).
func normalizeArgs(args []interface{}) (string, map[string]interface{}) {
	metadata := map[string]interface{}{}
	if len(args) == 0 {
		return "", metadata
	}

	var message string
	var rest []interface{}
	if s, ok := args[0].(string); ok {
		message = s
		rest = args[1:]
	} else {
		message = fmt.Sprint(args[0])
		rest = args
	}

	if len(rest) == 1 {
		if m, ok := asMetadataObject(rest[0]); ok {
			return message, m
		}
	}

	for i, a := range rest {
		if errInfo, ok := asErrorLike(a); ok {
			metadata["error"] = errInfo
			continue
		}
		if m, ok := asMetadataObject(a); ok {
			for k, v := range m {
				metadata[k] = v
			}
			continue
		}
		metadata[fmt.Sprintf("arg%d", i)] = a
	}
	return message, metadata
}

func asMetadataObject(a interface{}) (map[string]interface{}, bool) {
	if a == nil {
		return nil, false
	}
	m, ok := a.(map[string]interface{})
	if !ok {
		return nil, false
	}
	if _, isErr := asErrorLike(a); isErr {
		return nil, false
	}
	return m, true
}

func asErrorLike(a interface{}) (*record.ErrorInfo, bool) {
	if a == nil {
		return nil, false
	}
	if err, ok := a.(error); ok {
		return record.SerializeError(err), true
	}
	if m, ok := a.(map[string]interface{}); ok {
		if msg, ok := m["message"].(string); ok {
			info := &record.ErrorInfo{Message: msg}
			if name, ok := m["name"].(string); ok {
				info.Name = name
			} else {
				info.Name = "Error"
			}
			return info, true
		}
	}
	return nil, false
}
