package sqlguard

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a SQL injection pattern detected in
// free-text input headed for a prompt.
type InjectionCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Field       string // Name of the input field that matched
	Value       string // The value that was checked
}

// CheckTextForInjection scans free-text user input (the question, a
// caller-supplied previous question) for SQL injection fingerprints.
//
// The result is advisory: the safety gate on generated SQL is the enforcement
// point, and a question like "show employees who quit" must never be blocked.
// Hits are audit-logged so injection probing is visible to operators.
//
// Returns nil when no pattern is detected.
func CheckTextForInjection(field, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		Fingerprint: string(fingerprint),
		Field:       field,
		Value:       value,
	}
}
