package risk

import (
	"context"
	"strings"

	"github.com/soyeahso/scambot/internal/domain"
)

// DefaultTriggerPhrases are phrases typical of a victim about to send money.
var DefaultTriggerPhrases = []string{
	"怎麼投資",
	"怎麼給你",
	"錢怎麼轉",
	"要匯到哪",
	"我相信你",
	"我沒有別人可以相信了",
}

const (
	keywordScamConfidence = 0.9
	keywordSafeConfidence = 0.1
)

// KeywordClassifier flags text containing any trigger phrase. Matching is
// a case-sensitive substring test.
type KeywordClassifier struct {
	Phrases []string
}

// NewKeywordClassifier creates a classifier with DefaultTriggerPhrases.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{Phrases: DefaultTriggerPhrases}
}

// Classify scores text.
func (k *KeywordClassifier) Classify(text string) domain.Verdict {
	var matched []string
	if text != "" {
		for _, p := range k.Phrases {
			if p != "" && strings.Contains(text, p) {
				matched = append(matched, p)
			}
		}
	}

	if len(matched) == 0 {
		return domain.Verdict{
			Label:      domain.LabelSafe,
			Confidence: keywordSafeConfidence,
			RiskLevel:  domain.RiskLow,
		}
	}
	return domain.Verdict{
		IsScam:           true,
		Label:            domain.LabelScam,
		Confidence:       keywordScamConfidence,
		RiskLevel:        domain.RiskHigh,
		DetectedElements: matched,
	}.Normalize()
}

// ClassifyText implements TextClassifier. It never fails.
func (k *KeywordClassifier) ClassifyText(_ context.Context, req TextRequest) (domain.Verdict, error) {
	return k.Classify(req.Text), nil
}
