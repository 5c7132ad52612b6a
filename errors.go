package vestig

import "github.com/Arakiss/vestig/record"

// ErrorInfo is a serialized error: name, message, stack, and a bounded
// cause chain (spec §3).
type ErrorInfo = record.ErrorInfo

// SerializeError converts err into an ErrorInfo, walking errors.Unwrap up to
// record.MaxCauseDepth.
func SerializeError(err error) *ErrorInfo { return record.SerializeError(err) }

// IsError reports whether a is a Go error value.
func IsError(a interface{}) bool {
	_, ok := a.(error)
	return ok
}

// GetErrorMessage returns err.Error(), or "" if err is nil.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
