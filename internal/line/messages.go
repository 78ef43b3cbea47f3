package line

// Message is an outbound message object.
type Message struct {
	Type               string `json:"type"`
	Text               string `json:"text,omitempty"`
	OriginalContentURL string `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
}

// TextMessage builds a text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// ImageMessage builds an image message. An empty preview reuses the
// original URL.
func ImageMessage(originalURL, previewURL string) Message {
	if previewURL == "" {
		previewURL = originalURL
	}
	return Message{Type: "image", OriginalContentURL: originalURL, PreviewImageURL: previewURL}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}
