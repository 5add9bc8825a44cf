package harassment

import (
	"context"
	"strings"
)

// Classifier turns message text into a Result.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// KeywordClassifier matches lower-cased text against a Catalog by
// contiguous substring search. It is total and never returns an error,
// which makes it the fallback for every other Classifier.
type KeywordClassifier struct {
	catalog Catalog
}

func NewKeywordClassifier(c Catalog) *KeywordClassifier {
	lowered := make(Catalog, len(c))
	for i, cat := range c {
		kws := make([]string, len(cat.Keywords))
		for j, kw := range cat.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		lowered[i] = Category{Name: cat.Name, Keywords: kws, Weight: cat.Weight}
	}
	return &KeywordClassifier{catalog: lowered}
}

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(_ context.Context, text string) (Result, error) {
	return k.Match(text), nil
}

// Match is the context-free form of Classify.
func (k *KeywordClassifier) Match(text string) Result {
	lower := strings.ToLower(text)
	detected := make([]string, 0, len(k.catalog))
	total := 0

	for _, cat := range k.catalog {
		if matchesAny(lower, cat.Keywords) {
			detected = append(detected, cat.Name)
			total += cat.Weight
		}
	}
	if len(detected) == 0 {
		detected = append(detected, GeneralHarassment)
	}

	return Result{
		Severity:   SeverityFor(total),
		Categories: detected,
		Score:      total,
	}
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
