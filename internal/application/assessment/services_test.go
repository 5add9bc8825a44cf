package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/footprint-shield/internal/application"
	"github.com/bryanwahyu/footprint-shield/internal/domain/evidence"
	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
	"github.com/bryanwahyu/footprint-shield/internal/domain/responses"
	"github.com/bryanwahyu/footprint-shield/internal/domain/safety"
)

var now = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

func newService(c harassment.Classifier) *Service {
	if c == nil {
		c = harassment.NewKeywordClassifier(harassment.DefaultCatalog())
	}
	return &Service{
		Scorer:     safety.NewScorer(safety.DefaultRubric()),
		Classifier: c,
		Clock:      application.FixedClock(now),
	}
}

func TestCalculateScoreStampsClock(t *testing.T) {
	res := newService(nil).CalculateScore(safety.Answers{"two_factor": true})
	assert.Equal(t, now, res.Timestamp)
	assert.Equal(t, 10, res.Overall)
}

func TestAnalyzeMessage(t *testing.T) {
	out, err := newService(nil).AnalyzeMessage(context.Background(), "I know where you live, I will kill you")
	require.NoError(t, err)
	assert.Equal(t, harassment.SeveritySevere, out.Severity)
	assert.Equal(t, []string{harassment.Threats, harassment.Stalking}, out.Categories)
	require.Len(t, out.Responses, 4)
	assert.Equal(t, responses.TypeCalm, out.Responses[0].Type)
	assert.Contains(t, out.Responses[1].Text, "October 16, 2026")
	assert.Contains(t, out.Responses[2].Text, "threats and stalking")
	assert.Contains(t, out.Responses[3].Text, "threats, stalking")
}

type failing struct{}

func (failing) Classify(context.Context, string) (harassment.Result, error) {
	return harassment.Result{}, errors.New("boom")
}

func TestAnalyzeMessageFailsClosed(t *testing.T) {
	out, err := newService(failing{}).AnalyzeMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Empty(t, out.Responses)
}

func TestAnalyzeEvidence(t *testing.T) {
	a := newService(nil).AnalyzeEvidence([]evidence.Entry{{Source: "twitter", Count: 12}})
	assert.Equal(t, evidence.SeverityHigh, a.Severity)
}

func TestQuestions(t *testing.T) {
	assert.Len(t, newService(nil).Questions().Questions, 10)
}
