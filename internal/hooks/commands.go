package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/soyeahso/scambot/internal/config"
)

// DefaultCommandTimeout bounds a hook command with no configured timeout.
const DefaultCommandTimeout = 5 * time.Second

// RegisterCommands registers the shell commands from cfg as handlers.
// Each command receives the JSON payload on stdin. It returns the number
// of commands registered.
func RegisterCommands(m *Manager, cfg config.HooksConfig) int {
	byEvent := map[string][]config.HookEntry{
		EventMessageReceived:   cfg.MessageReceived,
		EventVerdict:           cfg.Verdict,
		EventReplySending:      cfg.ReplySending,
		EventSignatureRejected: cfg.SignatureRejected,
		EventServerStart:       cfg.ServerStart,
		EventServerStop:        cfg.ServerStop,
	}

	n := 0
	for _, event := range AllEvents {
		for i, entry := range byEvent[event] {
			if entry.Command == "" {
				continue
			}
			m.On(event, fmt.Sprintf("command:%s:%d", event, i), CommandHandler(entry))
			n++
		}
	}
	return n
}

// CommandHandler returns a Handler that runs entry.Command through sh.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		input, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(input)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		cmd.WaitDelay = 500 * time.Millisecond

		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("hook command timed out after %s", timeout)
			}
			return fmt.Errorf("hook command failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil
	}
}
