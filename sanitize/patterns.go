package sanitize

import "regexp"

var (
	emailPattern      = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+)@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)
	creditCardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	jwtPattern        = regexp.MustCompile(`\b[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`)
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	ipv4Pattern       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// maskEmail renders "us***@host" from the first match groups, masking the
// local part down to its first two characters (or fewer, if shorter). This
// is idempotent: its own output ("jo***@example.com") no longer matches
// emailPattern, whose local-part class excludes "*", so a second pass
// leaves it unchanged.
func maskEmail(match string) string {
	loc := emailPattern.FindStringSubmatch(match)
	if loc == nil {
		return match
	}
	local, host := loc[1], loc[2]
	keep := local
	if len(keep) > 2 {
		keep = keep[:2]
	}
	return keep + "***@" + host
}

// maskCreditCard renders "****last4" from any run of 13-19 digits
// (optionally space/dash separated). Idempotent: the replacement contains
// no digit run of the required length, so a second pass leaves it alone.
func maskCreditCard(match string) string {
	digits := make([]byte, 0, len(match))
	for i := 0; i < len(match); i++ {
		if match[i] >= '0' && match[i] <= '9' {
			digits = append(digits, match[i])
		}
	}
	if len(digits) < 4 {
		return match
	}
	return "****" + string(digits[len(digits)-4:])
}

// EmailPattern returns the built-in email-masking pattern.
func EmailPattern() Pattern {
	return Pattern{Name: "email", Regex: emailPattern, ReplaceFunc: maskEmail}
}

// CreditCardPattern returns the built-in credit-card-masking pattern.
func CreditCardPattern() Pattern {
	return Pattern{Name: "credit_card", Regex: creditCardPattern, ReplaceFunc: maskCreditCard}
}

// JWTPattern returns the built-in compact-JWT redaction pattern.
func JWTPattern() Pattern {
	return Pattern{Name: "jwt", Regex: jwtPattern, Replacement: "[JWT_REDACTED]"}
}

// SSNPattern returns the built-in US Social Security Number pattern (hipaa
// preset).
func SSNPattern() Pattern {
	return Pattern{Name: "ssn", Regex: ssnPattern, Replacement: "[REDACTED]"}
}

// IPv4Pattern returns the built-in IPv4 address pattern (gdpr preset).
func IPv4Pattern() Pattern {
	return Pattern{Name: "ipv4", Regex: ipv4Pattern, Replacement: "[REDACTED]"}
}
