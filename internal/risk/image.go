package risk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/soyeahso/scambot/internal/domain"
)

// ErrNoImage is returned when the image file does not exist.
var ErrNoImage = errors.New("risk: image not found")

// DefaultSmallBytes is the size below which an image is treated as a low
// quality capture.
const DefaultSmallBytes = 10 * 1024

const maxImageConfidence = 0.95

// HeuristicImageClassifier derives a verdict from the file size and a
// clock reading. It stands in for a content model behind ImageClassifier,
// and its output is a pure function of (size, Now()).
type HeuristicImageClassifier struct {
	Now        func() time.Time
	SmallBytes int64
}

// NewHeuristicImageClassifier creates a classifier using the wall clock.
func NewHeuristicImageClassifier(smallBytes int64) *HeuristicImageClassifier {
	return &HeuristicImageClassifier{Now: time.Now, SmallBytes: smallBytes}
}

// ClassifyImage implements ImageClassifier.
func (h *HeuristicImageClassifier) ClassifyImage(ctx context.Context, path string) (*domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoImage
		}
		return nil, fmt.Errorf("risk: stat image: %w", err)
	}
	if info.IsDir() {
		return nil, ErrNoImage
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	v := h.score(info.Size(), now())
	return &v, nil
}

func (h *HeuristicImageClassifier) score(size int64, at time.Time) domain.Verdict {
	small := h.SmallBytes
	if small <= 0 {
		small = DefaultSmallBytes
	}

	if size < small {
		return domain.Verdict{
			IsScam:           true,
			Label:            domain.LabelScam,
			Confidence:       0.6,
			ScamType:         domain.ScamTypeLowQuality,
			RiskLevel:        domain.RiskMedium,
			DetectedElements: []string{"compressed_screenshot", "low_resolution"},
		}
	}

	conf := math.Min(0.85+float64(at.Minute())/600, maxImageConfidence)
	if at.Hour()%2 == 0 {
		return domain.Verdict{
			IsScam:           true,
			Label:            domain.LabelScam,
			Confidence:       conf,
			ScamType:         domain.ScamTypeInvestment,
			RiskLevel:        domain.RiskHigh,
			DetectedElements: []string{"fake_investment", "high_returns", "urgency"},
		}
	}
	return domain.Verdict{
		IsScam:           true,
		Label:            domain.LabelScam,
		Confidence:       conf,
		ScamType:         domain.ScamTypePhishing,
		RiskLevel:        domain.RiskHigh,
		DetectedElements: []string{"credential_request", "impersonation", "suspicious_link"},
	}
}
