package risk

import (
	"context"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/soyeahso/scambot/internal/logging"
)

type fallbackClassifier struct {
	primary   TextClassifier
	secondary TextClassifier
	log       *logging.Logger
}

// WithFallback returns a TextClassifier that asks primary first and
// degrades to secondary when primary fails.
func WithFallback(primary, secondary TextClassifier, logger *logging.Logger) TextClassifier {
	return &fallbackClassifier{primary: primary, secondary: secondary, log: logger.Sub("risk")}
}

func (f *fallbackClassifier) ClassifyText(ctx context.Context, req TextRequest) (domain.Verdict, error) {
	v, err := f.primary.ClassifyText(ctx, req)
	if err == nil {
		return v, nil
	}
	f.log.Warn().Err(err).Str("userId", req.UserID).Msg("classifier failed, using fallback")
	return f.secondary.ClassifyText(ctx, req)
}
