package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestNewDefaultWriter(t *testing.T) {
	log := New(nil, "info")
	require.NotNil(t, log)
}

func TestNewStyled(t *testing.T) {
	for _, style := range []string{"pretty", "compact", "json", ""} {
		assert.NotNil(t, NewStyled(style, "silent"), style)
	}
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	sub := log.Sub("pipeline")

	sub.Info().Msg("sub message")
	output := buf.String()
	assert.Contains(t, output, "sub message")
	assert.Contains(t, output, "pipeline")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug").Sub("pipeline").With("user", "U123")

	log.Info().Msg("event handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["subsystem"])
	assert.Equal(t, "U123", entry["user"])
	assert.Equal(t, "event handled", entry["message"])
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestRetryLogger(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRetryLogger(New(&buf, "debug"))

	rl.Warn("retrying request", "url", "https://api.line.me/v2/bot/message/reply", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "retrying request", entry["message"])
	assert.Equal(t, "https://api.line.me/v2/bot/message/reply", entry["url"])
	assert.EqualValues(t, 2, entry["attempt"])
}

func TestRetryLogger_DebugIsTrace(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRetryLogger(New(&buf, "debug"))

	rl.Debug("performing request")
	assert.Empty(t, buf.String())

	rl.Info("request ok")
	assert.Contains(t, buf.String(), "request ok")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Info().Msg("should not appear")
	log.Error().Msg("should not appear")
	NewRetryLogger(log).Error("should not appear")

	assert.Empty(t, buf.String())
}
