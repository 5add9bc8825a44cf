package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessEmpty(t *testing.T) {
	a := Assess(nil)
	assert.Equal(t, SeverityLow, a.Severity)
	assert.Equal(t, 0, a.Analysis.TotalComments)
	assert.Equal(t, 0, a.Analysis.UniqueSources)
	assert.NotNil(t, a.Analysis.SourcesDetected)
	assert.Empty(t, a.Analysis.SourcesDetected)
	assert.Equal(t, []string{"Calm Response Template 1", "Document Evidence"}, a.AutoSelected)
	assert.Equal(t, "Found no comments from tracked platforms. Total: 0 comments across 0 sources.", a.Summary)
}

func TestAssessHighOnBothThresholds(t *testing.T) {
	a := Assess([]Entry{
		{Source: "twitter", Count: 3},
		{Source: "facebook", Count: 3},
		{Source: "instagram", Count: 3},
		{Source: "unknown", Count: 3},
	})
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, 12, a.Analysis.TotalComments)
	assert.Equal(t, 4, a.Analysis.UniqueSources)
	assert.Equal(t, []string{"twitter", "facebook", "instagram", "unknown"}, a.Analysis.SourcesDetected)
	require.Len(t, a.AutoSelected, 4)
	assert.Equal(t, "Found 3 comments from Twitter and 3 comments from unidentified sources. Total: 12 comments across 4 sources.", a.Summary)
}

func TestAssessHighOnVolumeAlone(t *testing.T) {
	a := Assess([]Entry{{Source: "twitter", Count: 11}})
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, 1, a.Analysis.UniqueSources)
	assert.Equal(t, "Found 11 comments from Twitter. Total: 11 comments across 1 source.", a.Summary)
}

func TestAssessHighOnSourcesAlone(t *testing.T) {
	a := Assess([]Entry{
		{Source: "a", Count: 0},
		{Source: "b", Count: 0},
		{Source: "c", Count: 1},
	})
	assert.Equal(t, SeverityHigh, a.Severity)
}

func TestAssessMedium(t *testing.T) {
	a := Assess([]Entry{
		{Source: "twitter", Count: 3, Timestamp: "07:47:24"},
		{Source: "twitter", Count: 3, Timestamp: "08:07:48"},
	})
	assert.Equal(t, SeverityMedium, a.Severity)
	assert.Equal(t, 6, a.Analysis.TotalComments)
	assert.Equal(t, 1, a.Analysis.UniqueSources)
	assert.Len(t, a.AutoSelected, 3)

	// twitter plus unknown escalates even at low volume
	a = Assess([]Entry{{Source: "twitter", Count: 1}, {Source: "unknown", Count: 1}})
	assert.Equal(t, SeverityMedium, a.Severity)
}

func TestAssessLowBoundary(t *testing.T) {
	a := Assess([]Entry{{Source: "facebook", Count: 5}, {Source: "twitter", Count: 0}})
	assert.Equal(t, SeverityLow, a.Severity)
	assert.Equal(t, "Found no comments from tracked platforms. Total: 5 comments across 2 sources.", a.Summary)
}

func TestAssessNegativeCountIgnored(t *testing.T) {
	a := Assess([]Entry{{Source: "twitter", Count: -4}})
	assert.Equal(t, 0, a.Analysis.TotalComments)
	assert.Equal(t, SeverityLow, a.Severity)
}

func TestRecommendedReturnsCopy(t *testing.T) {
	labels := Recommended(SeverityHigh)
	labels[0] = "mutated"
	assert.Equal(t, "Document Evidence", Recommended(SeverityHigh)[0])
}

func TestAssessIsIdempotent(t *testing.T) {
	in := []Entry{{Source: "twitter", Count: 2}, {Source: "unknown", Count: 7}}
	assert.Equal(t, Assess(in), Assess(in))
}
