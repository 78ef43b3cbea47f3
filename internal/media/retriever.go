// Package media downloads message attachments into transient local files.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/scambot/internal/line"
	"github.com/soyeahso/scambot/internal/logging"
)

// ErrEmptyContent is returned when the platform sends a zero-byte body.
var ErrEmptyContent = errors.New("media: empty content")

// ContentSource opens the binary content of a message.
type ContentSource interface {
	Content(ctx context.Context, messageID string) (io.ReadCloser, error)
}

// Retriever saves attachments under Dir. Each call writes a new uniquely
// named file that the caller owns and must remove with Cleanup.
type Retriever struct {
	Source ContentSource
	Dir    string
	Now    func() time.Time
	Log    *logging.Logger
}

// NewRetriever creates a Retriever writing into dir.
func NewRetriever(src ContentSource, dir string, logger *logging.Logger) *Retriever {
	return &Retriever{Source: src, Dir: dir, Now: time.Now, Log: logger.Sub("media")}
}

// Fetch downloads the content of messageID and returns the local path.
// On any failure no file is left behind.
func (r *Retriever) Fetch(ctx context.Context, messageID, userID string) (string, error) {
	body, err := r.Source.Content(ctx, messageID)
	if err != nil {
		ev := r.Log.Warn().Str("messageId", messageID).Err(err)
		var apiErr *line.APIError
		if errors.As(err, &apiErr) {
			ev = ev.Int("status", apiErr.StatusCode)
		}
		ev.Msg("content download failed")
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		r.Log.Error().Err(err).Str("dir", r.Dir).Msg("creating media directory")
		return "", fmt.Errorf("media: create dir: %w", err)
	}

	path := filepath.Join(r.Dir, r.fileName(userID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		r.Log.Error().Err(err).Str("path", path).Msg("creating media file")
		return "", fmt.Errorf("media: create file: %w", err)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		r.Log.Error().Err(err).Str("messageId", messageID).Msg("writing media file")
		return "", fmt.Errorf("media: write: %w", err)
	}
	if n == 0 {
		os.Remove(path)
		r.Log.Warn().Str("messageId", messageID).Msg("content body was empty")
		return "", ErrEmptyContent
	}

	r.Log.Debug().Str("path", path).Int64("bytes", n).Msg("image saved")
	return path, nil
}

// fileName returns {user}_{YYYYMMDD_HHMMSS}_{8 hex}.jpg.
func (r *Retriever) fileName(userID string) string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s.jpg", sanitize(userID), now().Format("20060102_150405"), suffix)
}

// sanitize keeps ASCII letters, digits, dash and underscore.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}

// Cleanup removes a transient media file. A missing file is not an error.
func Cleanup(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: cleanup: %w", err)
	}
	return nil
}
