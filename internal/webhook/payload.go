package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/scambot/internal/domain"
)

// Reasons an event is skipped by the pipeline.
var (
	ErrNotMessage         = errors.New("webhook: not a message event")
	ErrUnsupportedMessage = errors.New("webhook: unsupported message type")
	ErrMissingField       = errors.New("webhook: missing required field")
	ErrMalformedEvent     = errors.New("webhook: malformed event")
)

// Payload is the JSON body posted to the callback endpoint. Events are
// kept raw so one bad event cannot sink the rest of the batch.
type Payload struct {
	Destination string            `json:"destination,omitempty"`
	Events      []json.RawMessage `json:"events"`
}

// Event is a single raw webhook event.
type Event struct {
	Type       string   `json:"type"`
	ReplyToken string   `json:"replyToken,omitempty"`
	Timestamp  int64    `json:"timestamp,omitempty"`
	Source     Source   `json:"source"`
	Message    *Message `json:"message,omitempty"`
}

// Source identifies who triggered the event.
type Source struct {
	Type   string `json:"type,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// Message is the message object of a message event.
type Message struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Parse decodes a webhook body.
func Parse(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("webhook: decode body: %w", err)
	}
	return &p, nil
}

// DecodeEvent decodes one raw event. Failures wrap ErrMalformedEvent.
func DecodeEvent(raw json.RawMessage) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return e, nil
}

// Inbound converts a raw event into a domain event. The returned error
// wraps one of ErrNotMessage, ErrUnsupportedMessage or ErrMissingField.
func (e Event) Inbound() (domain.InboundEvent, error) {
	if e.Type != "message" || e.Message == nil {
		return domain.InboundEvent{}, fmt.Errorf("%w: %q", ErrNotMessage, e.Type)
	}
	if e.Source.UserID == "" {
		return domain.InboundEvent{}, fmt.Errorf("%w: source.userId", ErrMissingField)
	}
	if e.ReplyToken == "" {
		return domain.InboundEvent{}, fmt.Errorf("%w: replyToken", ErrMissingField)
	}

	var ev domain.InboundEvent
	switch e.Message.Type {
	case "text":
		ev = domain.NewTextEvent(e.Source.UserID, e.ReplyToken, e.Message.Text)
	case "image":
		if e.Message.ID == "" {
			return domain.InboundEvent{}, fmt.Errorf("%w: message.id", ErrMissingField)
		}
		ev = domain.NewImageEvent(e.Source.UserID, e.ReplyToken, e.Message.ID)
	default:
		return domain.InboundEvent{}, fmt.Errorf("%w: %q", ErrUnsupportedMessage, e.Message.Type)
	}
	if e.Timestamp > 0 {
		ev.Timestamp = time.UnixMilli(e.Timestamp)
	}
	return ev, nil
}
