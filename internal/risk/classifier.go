// Package risk scores messages for scam risk.
package risk

import (
	"context"

	"github.com/soyeahso/scambot/internal/domain"
)

// TextRequest is the input to a text classifier.
type TextRequest struct {
	UserID  string
	Text    string
	History []string // prior messages including Text, oldest first
}

// TextClassifier scores a text message.
type TextClassifier interface {
	ClassifyText(ctx context.Context, req TextRequest) (domain.Verdict, error)
}

// ImageClassifier scores a local image file. A nil verdict with an error
// means no verdict could be produced.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, path string) (*domain.Verdict, error)
}
