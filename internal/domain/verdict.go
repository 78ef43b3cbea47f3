package domain

import (
	"slices"
)

// RiskLevel grades how dangerous a classified message is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Labels reported by text classifiers.
const (
	LabelScam    = "scam"
	LabelSafe    = "safe"
	LabelUnknown = "unknown"
)

// Scam sub-types with dedicated warning templates.
const (
	ScamTypeInvestment = "investment_scam"
	ScamTypePhishing   = "phishing_scam"
	ScamTypeLowQuality = "low_quality_scam"
)

// Verdict is the output of a risk classifier.
type Verdict struct {
	IsScam           bool      `json:"isScam"`
	Label            string    `json:"label"`
	Confidence       float64   `json:"confidence"`
	ScamType         string    `json:"scamType,omitempty"`
	RiskLevel        RiskLevel `json:"riskLevel"`
	DetectedElements []string  `json:"detectedElements,omitempty"`
	// Reply is an optional conversational reply suggested by the classifier.
	Reply string `json:"reply,omitempty"`
}

// Normalize clamps Confidence to [0,1] and turns DetectedElements into a
// sorted set.
func (v Verdict) Normalize() Verdict {
	switch {
	case v.Confidence < 0:
		v.Confidence = 0
	case v.Confidence > 1:
		v.Confidence = 1
	}
	if len(v.DetectedElements) > 0 {
		elems := slices.Clone(v.DetectedElements)
		slices.Sort(elems)
		v.DetectedElements = slices.Compact(elems)
	}
	if v.RiskLevel == "" {
		v.RiskLevel = RiskLow
	}
	return v
}

// Percent returns the confidence as a percentage.
func (v Verdict) Percent() float64 {
	return v.Confidence * 100
}
