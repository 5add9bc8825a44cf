package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

// MaxMessageLength caps free-text fields submitted for analysis or storage.
const MaxMessageLength = 10000

var incidentIDPattern = regexp.MustCompile(`^inc_[0-9]{14}(_[0-9a-f]{8})?$`)

// ValidateIncidentID accepts ids produced by the incident service, plus the
// legacy form without the random suffix.
func ValidateIncidentID(id string) error {
	if id == "" {
		return fmt.Errorf("incident ID cannot be empty")
	}
	if !incidentIDPattern.MatchString(id) {
		return fmt.Errorf("invalid incident ID format")
	}
	return nil
}

// ValidateMessage bounds the length of a message in characters.
func ValidateMessage(msg string) error {
	if n := utf8.RuneCountInString(msg); n > MaxMessageLength {
		return fmt.Errorf("message too long: %d characters (max %d)", n, MaxMessageLength)
	}
	return nil
}

// ValidateEvidenceCount rejects negative comment counts.
func ValidateEvidenceCount(i, count int) error {
	if count < 0 {
		return fmt.Errorf("evidence[%d].count must be >= 0", i)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
