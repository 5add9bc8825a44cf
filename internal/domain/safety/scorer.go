package safety

import (
	"math"
	"time"
)

const (
	// MaxRiskAreas caps the number of risk messages in a result.
	MaxRiskAreas = 5

	// riskWeightThreshold is the minimum weight for an unsafe answer to be
	// reported as a risk area.
	riskWeightThreshold = 3

	// neutralOverall is reported when no rubric question was answered or the
	// rubric carries no weight.
	neutralOverall = 50
)

// Answers maps question id to the user's yes/no answer. A missing id is
// "unknown" and does not count for or against the user.
type Answers map[string]bool

// ScoreResult is the derived safety assessment.
type ScoreResult struct {
	Overall    int            `json:"overall"`
	Categories map[string]int `json:"categories"`
	RiskAreas  []string       `json:"riskAreas"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Scorer computes safety scores against a fixed rubric.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	rubric Rubric
}

func NewScorer(r Rubric) *Scorer {
	return &Scorer{rubric: r}
}

// Rubric returns the catalog this scorer was built with.
func (s *Scorer) Rubric() Rubric { return s.rubric }

// Score evaluates answers at the given instant. Every question's weight
// counts toward its category maximum whether answered or not; an unanswered
// question simply earns nothing. When no rubric question was answered at all
// there is nothing to assess, and the result is the neutral overall of 50
// with every category at 100.
func (s *Scorer) Score(answers Answers, at time.Time) ScoreResult {
	raw := make(map[string]int)
	ceil := make(map[string]int)
	risks := make([]string, 0, MaxRiskAreas)
	answered := 0

	for _, q := range s.rubric.Questions {
		ceil[q.Category] += q.Weight

		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		answered++

		safe := !answer
		if q.Invert {
			safe = answer
		}
		if safe {
			raw[q.Category] += q.Weight
			continue
		}
		if msg, ok := s.rubric.RiskMessages[q.ID]; ok && q.Weight >= riskWeightThreshold && len(risks) < MaxRiskAreas {
			risks = append(risks, msg)
		}
	}

	categories := make(map[string]int, len(ceil))
	if answered == 0 {
		for cat := range ceil {
			categories[cat] = 100
		}
		return ScoreResult{Overall: neutralOverall, Categories: categories, RiskAreas: risks, Timestamp: at}
	}

	totalRaw, totalMax := 0, 0
	for cat, m := range ceil {
		totalRaw += raw[cat]
		totalMax += m
		categories[cat] = percent(raw[cat], m, 100)
	}

	return ScoreResult{
		Overall:    percent(totalRaw, totalMax, neutralOverall),
		Categories: categories,
		RiskAreas:  risks,
		Timestamp:  at,
	}
}

// percent rounds half away from zero; fallback applies when ceiling is zero.
func percent(raw, ceiling, fallback int) int {
	if ceiling <= 0 {
		return fallback
	}
	return int(math.Round(float64(raw) / float64(ceiling) * 100))
}
