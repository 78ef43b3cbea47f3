// Package pipeline verifies, parses and answers webhook deliveries.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/soyeahso/scambot/internal/hooks"
	"github.com/soyeahso/scambot/internal/line"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/soyeahso/scambot/internal/media"
	"github.com/soyeahso/scambot/internal/risk"
	"github.com/soyeahso/scambot/internal/store"
	"github.com/soyeahso/scambot/internal/warning"
	"github.com/soyeahso/scambot/internal/webhook"
)

// Unavailable is the reply used when no text verdict can be produced.
const Unavailable = "目前系統無法使用，請晚點再聊。"

// Replier sends reply messages.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

// ImageFetcher downloads an image attachment to a local file.
type ImageFetcher interface {
	Fetch(ctx context.Context, messageID, userID string) (string, error)
}

// Deps are the collaborators of a Pipeline. Hooks and Composer are optional.
type Deps struct {
	Verifier        *webhook.Verifier
	Store           store.ConversationStore
	TextClassifier  risk.TextClassifier
	Images          ImageFetcher
	ImageClassifier risk.ImageClassifier
	Composer        warning.Composer
	Replier         Replier
	Hooks           *hooks.Manager
	LockStripes     int
	Logger          *logging.Logger
}

// Summary describes what happened to one delivery.
type Summary struct {
	Verified bool
	Events   int
	Handled  int
	Skipped  int
	Failed   int
}

// Pipeline processes webhook deliveries. It is safe for concurrent use;
// events for the same user are handled one at a time.
type Pipeline struct {
	d     Deps
	locks *userLocks
	log   *logging.Logger
}

// New creates a Pipeline.
func New(d Deps) *Pipeline {
	if d.Verifier == nil {
		d.Verifier = &webhook.Verifier{}
	}
	log := d.Logger
	if log == nil {
		log = logging.New(nil, "silent")
	}
	return &Pipeline{
		d:     d,
		locks: newUserLocks(d.LockStripes),
		log:   log.Sub("pipeline"),
	}
}

// Handle processes one delivery. It never fails: every problem is logged
// and absorbed so the caller can always acknowledge the request.
func (p *Pipeline) Handle(ctx context.Context, body []byte, signature string) Summary {
	var sum Summary

	if !p.d.Verifier.Verify(body, signature) {
		p.log.Warn().Int("bodyLen", len(body)).Msg("invalid signature, delivery rejected")
		p.emit(ctx, hooks.EventSignatureRejected, map[string]any{"bodyLen": len(body)})
		return sum
	}
	sum.Verified = true

	payload, err := webhook.Parse(body)
	if err != nil {
		p.log.Error().Err(err).Msg("malformed webhook body")
		return sum
	}
	sum.Events = len(payload.Events)

	for i, raw := range payload.Events {
		ev, err := inbound(raw)
		if err != nil {
			sum.Skipped++
			if errors.Is(err, webhook.ErrMissingField) || errors.Is(err, webhook.ErrMalformedEvent) {
				p.log.Warn().Err(err).Int("index", i).Msg("skipping invalid event")
			} else {
				p.log.Debug().Err(err).Int("index", i).Msg("skipping event")
			}
			continue
		}

		if err := p.process(ctx, ev); err != nil {
			sum.Failed++
			continue
		}
		sum.Handled++
	}
	return sum
}

func inbound(raw json.RawMessage) (domain.InboundEvent, error) {
	e, err := webhook.DecodeEvent(raw)
	if err != nil {
		return domain.InboundEvent{}, err
	}
	return e.Inbound()
}

// process handles one event under the user's lock. A panic is recovered
// and reported as an error.
func (p *Pipeline) process(ctx context.Context, ev domain.InboundEvent) (err error) {
	unlock := p.locks.lock(ev.UserID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("userId", ev.UserID).
				Str("kind", string(ev.Kind)).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("event handler panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	p.emit(ctx, hooks.EventMessageReceived, map[string]any{
		"userId": ev.UserID,
		"kind":   string(ev.Kind),
	})

	switch ev.Kind {
	case domain.EventKindText:
		p.handleText(ctx, ev)
	case domain.EventKindImage:
		p.handleImage(ctx, ev)
	}
	return nil
}

func (p *Pipeline) handleText(ctx context.Context, ev domain.InboundEvent) {
	log := p.log.With("userId", ev.UserID)
	text := ev.Text.Text

	if err := p.d.Store.Append(ctx, ev.UserID, text); err != nil {
		log.Warn().Err(err).Msg("recording history failed")
	}
	history, err := p.d.Store.History(ctx, ev.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("loading history failed")
	}

	v, err := p.d.TextClassifier.ClassifyText(ctx, risk.TextRequest{
		UserID:  ev.UserID,
		Text:    text,
		History: history,
	})
	if err != nil {
		log.Error().Err(err).Msg("text classification failed")
		v = domain.Verdict{Label: domain.LabelUnknown, RiskLevel: domain.RiskLow, Reply: Unavailable}
	}

	log.Info().
		Str("label", v.Label).
		Float64("confidence", v.Confidence).
		Int("historyLen", len(history)).
		Msg("text classified")
	p.emitVerdict(ctx, ev, &v)

	p.reply(ctx, ev, p.d.Composer.TextReply(v))
}

func (p *Pipeline) handleImage(ctx context.Context, ev domain.InboundEvent) {
	log := p.log.With("userId", ev.UserID)

	path, err := p.d.Images.Fetch(ctx, ev.Image.MessageID, ev.UserID)
	if err != nil {
		log.Warn().Err(err).Str("messageId", ev.Image.MessageID).Msg("image retrieval failed")
		p.reply(ctx, ev, warning.CannotProcess)
		return
	}
	defer func() {
		if err := media.Cleanup(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("removing transient image failed")
		}
	}()

	v, err := p.d.ImageClassifier.ClassifyImage(ctx, path)
	if err != nil {
		log.Warn().Err(err).Msg("image classification failed")
		v = nil
	}
	p.emitVerdict(ctx, ev, v)

	var text string
	switch {
	case v == nil:
		text = p.d.Composer.Image(nil)
	case v.IsScam:
		log.Info().Str("scamType", v.ScamType).Float64("confidence", v.Confidence).Msg("image flagged")
		text = p.d.Composer.Image(v)
	default:
		text = warning.ImageLooksSafe
	}
	p.reply(ctx, ev, text)
}

// reply dispatches text best-effort.
func (p *Pipeline) reply(ctx context.Context, ev domain.InboundEvent, text string) {
	p.emit(ctx, hooks.EventReplySending, map[string]any{
		"userId": ev.UserID,
		"kind":   string(ev.Kind),
		"text":   text,
	})

	err := p.d.Replier.Reply(ctx, ev.ReplyToken, line.TextMessage(text))
	if err == nil {
		return
	}
	var apiErr *line.APIError
	if errors.As(err, &apiErr) {
		p.log.Warn().Int("status", apiErr.StatusCode).Str("body", apiErr.Body).Str("userId", ev.UserID).Msg("reply rejected")
		return
	}
	p.log.Error().Err(err).Str("userId", ev.UserID).Msg("reply failed")
}

func (p *Pipeline) emitVerdict(ctx context.Context, ev domain.InboundEvent, v *domain.Verdict) {
	data := map[string]any{
		"userId": ev.UserID,
		"kind":   string(ev.Kind),
	}
	if v != nil {
		data["isScam"] = v.IsScam
		data["label"] = v.Label
		data["confidence"] = v.Confidence
		data["scamType"] = v.ScamType
		data["riskLevel"] = string(v.RiskLevel)
		data["detectedElements"] = v.DetectedElements
	}
	p.emit(ctx, hooks.EventVerdict, data)
}

func (p *Pipeline) emit(ctx context.Context, event string, data map[string]any) {
	if p.d.Hooks != nil {
		p.d.Hooks.EmitAsync(context.WithoutCancel(ctx), event, data)
	}
}
