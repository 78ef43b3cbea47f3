package domain

import "time"

// EventKind classifies an inbound message event.
type EventKind string

const (
	EventKindText  EventKind = "text"
	EventKindImage EventKind = "image"
)

// TextPayload carries the body of a text message.
type TextPayload struct {
	Text string `json:"text"`
}

// ImagePayload references an image attachment held by the platform.
type ImagePayload struct {
	MessageID string `json:"messageId"`
}

// InboundEvent is one message notification parsed from a webhook body.
// Exactly one of Text or Image is set, matching Kind.
type InboundEvent struct {
	Kind       EventKind     `json:"kind"`
	UserID     string        `json:"userId"`
	ReplyToken string        `json:"replyToken"`
	Timestamp  time.Time     `json:"timestamp,omitempty"`
	Text       *TextPayload  `json:"text,omitempty"`
	Image      *ImagePayload `json:"image,omitempty"`
}

// NewTextEvent builds a text event.
func NewTextEvent(userID, replyToken, text string) InboundEvent {
	return InboundEvent{
		Kind:       EventKindText,
		UserID:     userID,
		ReplyToken: replyToken,
		Text:       &TextPayload{Text: text},
	}
}

// NewImageEvent builds an image event.
func NewImageEvent(userID, replyToken, messageID string) InboundEvent {
	return InboundEvent{
		Kind:       EventKindImage,
		UserID:     userID,
		ReplyToken: replyToken,
		Image:      &ImagePayload{MessageID: messageID},
	}
}

// Profile is the public profile of a platform user.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
	Language    string `json:"language,omitempty"`
}
