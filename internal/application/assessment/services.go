package assessment

import (
	"context"

	"github.com/bryanwahyu/footprint-shield/internal/application"
	"github.com/bryanwahyu/footprint-shield/internal/domain/evidence"
	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
	"github.com/bryanwahyu/footprint-shield/internal/domain/responses"
	"github.com/bryanwahyu/footprint-shield/internal/domain/safety"
)

// Service runs the three assessment pipelines. It holds no request state
// and is safe for concurrent use.
type Service struct {
	Scorer     *safety.Scorer
	Classifier harassment.Classifier
	Clock      application.Clock
}

// MessageAnalysis is the response of the message pipeline.
type MessageAnalysis struct {
	Severity   harassment.Severity  `json:"severity"`
	Categories []string             `json:"categories"`
	Responses  []responses.Template `json:"responses"`
}

// CalculateScore scores questionnaire answers.
func (s *Service) CalculateScore(answers safety.Answers) safety.ScoreResult {
	return s.Scorer.Score(answers, s.Clock.Now())
}

// AnalyzeMessage classifies a message and fills the reply templates.
func (s *Service) AnalyzeMessage(ctx context.Context, message string) (MessageAnalysis, error) {
	res, err := s.Classifier.Classify(ctx, message)
	if err != nil {
		return MessageAnalysis{}, err
	}
	return MessageAnalysis{
		Severity:   res.Severity,
		Categories: res.Categories,
		Responses:  responses.Synthesize(res.Severity, res.Categories, s.Clock.Now()),
	}, nil
}

// AnalyzeEvidence assesses captured comment batches.
func (s *Service) AnalyzeEvidence(entries []evidence.Entry) evidence.Analysis {
	return evidence.Assess(entries)
}

// Questions exposes the rubric for clients rendering the questionnaire.
func (s *Service) Questions() safety.Rubric {
	return s.Scorer.Rubric()
}
