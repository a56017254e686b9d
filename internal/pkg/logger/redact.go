// Package logger holds redaction helpers for log output. Account
// identifiers and user emails must never appear unmasked in logs.
package logger

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// Google Ads customer IDs in their dashed form, e.g. 123-456-7890.
	customerIDRegex = regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`)
)

// Scrub masks any email addresses or dashed customer IDs embedded in
// free-form text, such as wrapped error messages.
func Scrub(s string) string {
	s = emailRegex.ReplaceAllStringFunc(s, RedactEmail)
	return customerIDRegex.ReplaceAllStringFunc(s, RedactCustomerID)
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactCustomerID masks all but the last four digits of an Ads customer ID.
// "123-456-7890" → "***-***-7890"
func RedactCustomerID(id string) string {
	digits := strings.ReplaceAll(id, "-", "")
	if len(digits) < 4 {
		return "***"
	}
	return "***-***-" + digits[len(digits)-4:]
}
