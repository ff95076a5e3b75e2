package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex    = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
)

// IsValidPhone checks the number against E.164 after stripping formatting.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(nonPhoneChars.ReplaceAllString(phone, ""))
}

// NormalizePhone strips spaces, dashes, and parentheses and ensures a
// leading +. Caller phones are stored normalized so the SMS webhook's From
// field matches the ledger.
func NormalizePhone(phone string) string {
	normalized := nonPhoneChars.ReplaceAllString(phone, "")
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}
