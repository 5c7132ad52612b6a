package sanitize

// PresetName identifies one of the library's fixed sanitizer presets.
type PresetName string

const (
	PresetNone     PresetName = "none"
	PresetMinimal  PresetName = "minimal"
	PresetDefault  PresetName = "default"
	PresetGDPR     PresetName = "gdpr"
	PresetHIPAA    PresetName = "hipaa"
	PresetPCIDSS   PresetName = "pci-dss"
)

var minimalFields = []string{"password", "token", "secret", "apikey"}

var defaultFields = append(append([]string{}, minimalFields...),
	"api_key", "api_secret", "access_token", "refresh_token", "client_secret",
	"private_key", "public_key", "ssn", "credit_card", "card_number", "cvv",
	"pin", "authorization", "cookie", "session_id", "auth_token", "bearer",
	"x-api-key", "x-auth-token", "passphrase", "encryption_key", "signature",
)

var gdprExtraFields = []string{"name", "first_name", "last_name", "full_name", "address", "street", "city", "postal_code", "phone", "phone_number", "ip", "ip_address"}

var hipaaExtraFields = []string{"diagnosis", "medical_record_number", "mrn", "health_plan_id", "patient_id", "treatment", "medication"}

var pciExtraFields = []string{"pan", "full_pan", "cvv2", "cvc", "card_pin", "track1", "track2"}

// mergeConfigs composes presets as value objects rather than OO inheritance
// (spec §9 "Preset inheritance for sanitizer presets"): base fields/patterns
// come first, overrides are appended, and the resulting Config is still
// plain data.
func mergeConfigs(base Config, extraFields []string, extraPatterns ...Pattern) Config {
	fields := make([]FieldMatcher, len(base.Fields))
	copy(fields, base.Fields)
	for _, f := range extraFields {
		fields = append(fields, Literal(f))
	}
	patterns := make([]Pattern, len(base.Patterns))
	copy(patterns, base.Patterns)
	patterns = append(patterns, extraPatterns...)
	return Config{
		Enabled:     true,
		Fields:      fields,
		Patterns:    patterns,
		Replacement: base.Replacement,
		MaxDepth:    base.MaxDepth,
	}
}

func literalsOf(keys []string) []FieldMatcher {
	out := make([]FieldMatcher, len(keys))
	for i, k := range keys {
		out[i] = Literal(k)
	}
	return out
}

// Preset returns the named built-in sanitizer configuration. Every preset
// name maps to a stable, key-wise-equal config object across invocations
// (spec §8 round-trip law).
func Preset(name PresetName) Config {
	switch name {
	case PresetNone:
		return Config{Enabled: false}.WithDefaults()
	case PresetMinimal:
		return Config{Enabled: true, Fields: literalsOf(minimalFields)}.WithDefaults()
	case PresetGDPR:
		return mergeConfigs(Preset(PresetDefault), gdprExtraFields, IPv4Pattern()).WithDefaults()
	case PresetHIPAA:
		return mergeConfigs(Preset(PresetDefault), hipaaExtraFields, SSNPattern()).WithDefaults()
	case PresetPCIDSS:
		return mergeConfigs(Preset(PresetDefault), pciExtraFields).WithDefaults()
	case PresetDefault:
		fallthrough
	default:
		return Config{
			Enabled:  true,
			Fields:   literalsOf(defaultFields),
			Patterns: []Pattern{EmailPattern(), CreditCardPattern(), JWTPattern()},
		}.WithDefaults()
	}
}
