package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/soyeahso/scambot/internal/version"
)

// ProfileSource looks up user profiles.
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
}

// AnalysisRequest is the body posted to the analysis endpoint.
type AnalysisRequest struct {
	UserID         string   `json:"user_id"`
	DisplayName    string   `json:"display_name"`
	PictureURL     string   `json:"picture_url"`
	Language       string   `json:"language"`
	CurrentMessage string   `json:"current_message"`
	ChatHistory    []string `json:"chat_history"`
}

// AnalysisResponse is the expected reply from the analysis endpoint.
type AnalysisResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reply      string  `json:"reply"`
}

// RemoteClassifier sends the message, profile and history to an external
// analysis API.
type RemoteClassifier struct {
	endpoint string
	profiles ProfileSource
	http     *retryablehttp.Client
	log      *logging.Logger
}

// NewRemoteClassifier creates a classifier posting to endpoint. profiles
// may be nil, in which case profile fields are sent empty.
func NewRemoteClassifier(endpoint string, profiles ProfileSource, timeout time.Duration, retryMax int, logger *logging.Logger) *RemoteClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log := logger.Sub("analysis")

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: timeout}
	rc.RetryMax = retryMax
	rc.Logger = logging.NewRetryLogger(log)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &RemoteClassifier{endpoint: endpoint, profiles: profiles, http: rc, log: log}
}

// Prepare builds the analysis request. Profile lookup is best-effort.
func (r *RemoteClassifier) Prepare(ctx context.Context, req TextRequest) AnalysisRequest {
	out := AnalysisRequest{
		UserID:         req.UserID,
		CurrentMessage: req.Text,
		ChatHistory:    req.History,
	}
	if out.ChatHistory == nil {
		out.ChatHistory = []string{}
	}
	if r.profiles == nil {
		return out
	}

	p, err := r.profiles.Profile(ctx, req.UserID)
	if err != nil {
		r.log.Warn().Err(err).Str("userId", req.UserID).Msg("profile lookup failed")
		return out
	}
	out.DisplayName = p.DisplayName
	out.PictureURL = p.PictureURL
	out.Language = p.Language
	return out
}

// ClassifyText implements TextClassifier.
func (r *RemoteClassifier) ClassifyText(ctx context.Context, req TextRequest) (domain.Verdict, error) {
	payload, err := json.Marshal(r.Prepare(ctx, req))
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("analysis: marshal: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, payload)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("analysis: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := r.http.Do(httpReq)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("analysis: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("analysis: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Verdict{}, fmt.Errorf("analysis: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var ar AnalysisResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return domain.Verdict{}, fmt.Errorf("analysis: parse response: %w", err)
	}

	v := ar.Verdict()
	r.log.Debug().Str("userId", req.UserID).Str("label", v.Label).Float64("confidence", v.Confidence).Msg("remote verdict")
	return v, nil
}

// Verdict maps the response into a domain verdict.
func (a AnalysisResponse) Verdict() domain.Verdict {
	label := strings.ToLower(strings.TrimSpace(a.Label))
	if label == "" {
		label = domain.LabelUnknown
	}
	v := domain.Verdict{
		IsScam:     label == domain.LabelScam,
		Label:      label,
		Confidence: a.Confidence,
		Reply:      a.Reply,
	}.Normalize()

	switch {
	case !v.IsScam:
		v.RiskLevel = domain.RiskLow
	case v.Confidence > 0.7:
		v.RiskLevel = domain.RiskHigh
	default:
		v.RiskLevel = domain.RiskMedium
	}
	return v
}
