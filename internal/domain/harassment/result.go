package harassment

import "github.com/pkg/errors"

// Severity is the ordinal outcome of a classification.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeveritySevere Severity = "severe"
)

// SeverityFor maps an accumulated weight onto a severity level.
func SeverityFor(score int) Severity {
	switch {
	case score >= 8:
		return SeveritySevere
	case score >= 5:
		return SeverityHigh
	case score >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Valid reports whether s is one of the four known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeveritySevere:
		return true
	}
	return false
}

// Result is the outcome of classifying one message.
// Categories is never empty.
type Result struct {
	Severity   Severity `json:"severity"`
	Categories []string `json:"categories"`
	Score      int      `json:"score"`
}

// ErrInvalidResult is returned by Validate for results that break the
// Result contract.
var ErrInvalidResult = errors.New("invalid classification result")

// Validate checks a result produced outside the keyword classifier.
func (r Result) Validate() error {
	if !r.Severity.Valid() {
		return errors.Wrapf(ErrInvalidResult, "unknown severity %q", r.Severity)
	}
	if len(r.Categories) == 0 {
		return errors.Wrap(ErrInvalidResult, "no categories")
	}
	for _, c := range r.Categories {
		if c == "" {
			return errors.Wrap(ErrInvalidResult, "empty category name")
		}
	}
	if r.Score < 0 {
		return errors.Wrapf(ErrInvalidResult, "negative score %d", r.Score)
	}
	return nil
}

// Has reports whether the named category was detected.
func (r Result) Has(name string) bool {
	return contains(r.Categories, name)
}

func contains(list []string, name string) bool {
	for _, c := range list {
		if c == name {
			return true
		}
	}
	return false
}
