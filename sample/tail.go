package sample

// TailContext is the outcome of a completed wide event, the input to tail
// sampling (spec §4.4 "Tail sampling").
type TailContext struct {
	Status     string
	DurationMs int64
	UserID     string
	Tier       string // resolved from the configured tier path, e.g. user.subscription
}

// TailConfig configures the decision order of TailDecide.
type TailConfig struct {
	AlwaysKeepStatuses []string // default {"error"}
	SlowThresholdMs    int64
	VIPUserIDs         map[string]bool
	VIPTiers           map[string]bool
	TierPath           string // default "user.subscription", informational only here
	SuccessSampleRate  float64
	rng                rng
}

// DefaultTailConfig returns the spec's documented defaults.
func DefaultTailConfig() TailConfig {
	return TailConfig{
		AlwaysKeepStatuses: []string{"error"},
		TierPath:           "user.subscription",
		SuccessSampleRate:  1,
		rng:                defaultRNG{},
	}
}

// TailDecision records the sampling outcome and the reason it was reached.
type TailDecision struct {
	Keep   bool
	Reason string
}

// TailDecide implements the fixed decision order of spec §4.4: always-keep
// status, slow threshold, VIP user, VIP tier, else random success sampling.
func TailDecide(cfg TailConfig, ctx TailContext) TailDecision {
	for _, s := range cfg.AlwaysKeepStatuses {
		if s == ctx.Status {
			return TailDecision{Keep: true, Reason: "always_keep_status"}
		}
	}
	if cfg.SlowThresholdMs > 0 && ctx.DurationMs >= cfg.SlowThresholdMs {
		return TailDecision{Keep: true, Reason: "slow"}
	}
	if cfg.VIPUserIDs != nil && cfg.VIPUserIDs[ctx.UserID] {
		return TailDecision{Keep: true, Reason: "vip_user"}
	}
	if cfg.VIPTiers != nil && cfg.VIPTiers[ctx.Tier] {
		return TailDecision{Keep: true, Reason: "vip_tier"}
	}
	r := cfg.rng
	if r == nil {
		r = defaultRNG{}
	}
	if r.Float64() < cfg.SuccessSampleRate {
		return TailDecision{Keep: true, Reason: "success_sample"}
	}
	return TailDecision{Keep: false, Reason: "success_sample"}
}
