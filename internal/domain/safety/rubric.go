package safety

// Question is one weighted yes/no item of the rubric.
// Invert marks questions where "yes" is the safe answer (e.g. 2FA enabled).
type Question struct {
	ID       string `json:"id" yaml:"id"`
	Category string `json:"category" yaml:"category"`
	Weight   int    `json:"weight" yaml:"weight"`
	Invert   bool   `json:"invert" yaml:"invert"`
}

// Rubric is the immutable question table plus the risk text shown for
// high-weight questions answered unsafely.
type Rubric struct {
	Questions    []Question        `json:"questions" yaml:"questions"`
	RiskMessages map[string]string `json:"riskMessages" yaml:"riskMessages"`
}

// DefaultRubric returns the built-in questionnaire.
func DefaultRubric() Rubric {
	return Rubric{
		Questions: []Question{
			{ID: "social_public", Category: "visibility", Weight: 3},
			{ID: "location_sharing", Category: "location", Weight: 4},
			{ID: "real_name", Category: "identity", Weight: 2},
			{ID: "password_reuse", Category: "security", Weight: 4},
			{ID: "two_factor", Category: "security", Weight: 3, Invert: true},
			{ID: "personal_info", Category: "identity", Weight: 5},
			{ID: "photo_sharing", Category: "location", Weight: 3},
			{ID: "friend_lists", Category: "network", Weight: 2},
			{ID: "google_yourself", Category: "awareness", Weight: 2, Invert: true},
			{ID: "data_broker", Category: "awareness", Weight: 2, Invert: true},
		},
		RiskMessages: map[string]string{
			"social_public":    "Your social media profiles are publicly accessible",
			"location_sharing": "Location sharing reveals your whereabouts",
			"password_reuse":   "Password reuse puts multiple accounts at risk",
			"two_factor":       "Important accounts lack two-factor authentication",
			"personal_info":    "Personal contact info is visible online",
			"photo_sharing":    "Photos may reveal your location or routine",
		},
	}
}

// Categories lists the distinct categories in first-seen catalog order.
func (r Rubric) Categories() []string {
	seen := make(map[string]bool, len(r.Questions))
	out := make([]string, 0, len(r.Questions))
	for _, q := range r.Questions {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	return out
}
