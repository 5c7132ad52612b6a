package wideevent

import (
	"fmt"
	"strings"

	"github.com/Arakiss/vestig/sample"
)

// TailSampleDecide ends the event with opts (if not already ended) and runs
// it through sample.TailDecide, reading status/duration from the fields End
// stamped, the VIP user id from the event's correlation context (spec §4.4
// "context.userId"), and the tier from the field path cfg.TierPath (default
// "user.subscription", resolved as category "user" / key "subscription").
// This is the event-level analogue of the span processor's onEnd hook: the
// wide event plays the same "one record per unit of work" role a span
// does, so tail sampling reuses the exact same decision function.
func (e *Event) TailSampleDecide(cfg sample.TailConfig, opts EndOptions) sample.TailDecision {
	e.End(opts)

	e.mu.Lock()
	status := e.status
	durationMs := e.durationMs
	userID := e.ctx["userId"]
	e.mu.Unlock()

	return sample.TailDecide(cfg, sample.TailContext{
		Status:     status,
		DurationMs: durationMs,
		UserID:     userID,
		Tier:       e.tierValue(cfg.TierPath),
	})
}

// tierValue resolves a "category.key" field path (cfg.TierPath) against the
// event's field store, returning "" if the path is malformed or unset.
func (e *Event) tierValue(path string) string {
	category, key, ok := strings.Cut(path, ".")
	if !ok {
		return ""
	}
	v, ok := e.Get(category, key)
	if !ok {
		return ""
	}
	return asString(v)
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
