package evidence

import (
	"fmt"
	"strings"
)

// Severity levels reported by Assess. They are capitalized to match the
// browser extension's wire format, unlike message severities.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Named source buckets that get their own counters.
const (
	SourceTwitter = "twitter"
	SourceUnknown = "unknown"
)

// Entry is one captured batch of comments from a source.
// Timestamp is opaque and never parsed.
type Entry struct {
	Source    string `json:"source"`
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

// Stats is the raw aggregation of a batch of entries.
type Stats struct {
	TotalComments   int      `json:"totalComments"`
	UniqueSources   int      `json:"uniqueSources"`
	SourcesDetected []string `json:"sourcesDetected"`
}

// Analysis is the result of Assess.
type Analysis struct {
	Severity     Severity `json:"severity"`
	Summary      string   `json:"summary"`
	AutoSelected []string `json:"autoSelected"`
	Analysis     Stats    `json:"analysis"`
}

// recommended is the fixed response plan per severity.
var recommended = map[Severity][]string{
	SeverityHigh: {
		"Document Evidence",
		"Firm Response Template",
		"Block User",
		"Report to Platform",
	},
	SeverityMedium: {
		"Document Evidence",
		"Calm Response Template 1",
		"Mute User",
	},
	SeverityLow: {
		"Calm Response Template 1",
		"Document Evidence",
	},
}

// Recommended returns a copy of the response labels for a severity.
func Recommended(s Severity) []string {
	labels := recommended[s]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Assess aggregates entries and derives a severity and response plan.
// Negative counts are treated as zero. Sources are reported in first-seen
// order.
func Assess(entries []Entry) Analysis {
	var total, twitter, unknown int
	seen := make(map[string]bool, len(entries))
	sources := make([]string, 0, len(entries))

	for _, e := range entries {
		n := e.Count
		if n < 0 {
			n = 0
		}
		total += n
		if !seen[e.Source] {
			seen[e.Source] = true
			sources = append(sources, e.Source)
		}
		switch e.Source {
		case SourceTwitter:
			twitter += n
		case SourceUnknown:
			unknown += n
		}
	}

	severity := SeverityLow
	switch {
	case total > 10 || len(sources) >= 3:
		severity = SeverityHigh
	case total > 5 || (twitter > 0 && unknown > 0):
		severity = SeverityMedium
	}

	return Analysis{
		Severity:     severity,
		Summary:      summarize(twitter, unknown, total, len(sources)),
		AutoSelected: Recommended(severity),
		Analysis: Stats{
			TotalComments:   total,
			UniqueSources:   len(sources),
			SourcesDetected: sources,
		},
	}
}

func summarize(twitter, unknown, total, sources int) string {
	parts := make([]string, 0, 2)
	if twitter > 0 {
		parts = append(parts, fmt.Sprintf("%d comments from Twitter", twitter))
	}
	if unknown > 0 {
		parts = append(parts, fmt.Sprintf("%d comments from unidentified sources", unknown))
	}
	found := strings.Join(parts, " and ")
	if found == "" {
		found = "no comments from tracked platforms"
	}
	return fmt.Sprintf("Found %s. Total: %d comments across %d %s.", found, total, sources, plural(sources, "source", "sources"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
