package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/scambot/internal/config"
	"github.com/soyeahso/scambot/internal/line"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	var (
		to         string
		imageURL   string
		previewURL string
	)

	cmd := &cobra.Command{
		Use:   "push [text...]",
		Short: "Send a proactive message to a user",
		Example: `  scambot push --to U123 "提醒：請勿提供驗證碼給陌生人"
  scambot push --to U123 --image-url https://example.com/warn.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return errors.New("--to is required")
			}

			var msgs []line.Message
			if text := strings.TrimSpace(strings.Join(args, " ")); text != "" {
				msgs = append(msgs, line.TextMessage(text))
			}
			if imageURL != "" {
				msgs = append(msgs, line.ImageMessage(imageURL, previewURL))
			}
			if len(msgs) == 0 {
				return errors.New("provide message text or --image-url")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.LINE.AccessToken == "" {
				return errors.New("line.accessToken is required (or set CHANNEL_ACCESS_TOKEN)")
			}
			if issues := config.Validate(&cfg); len(issues) > 0 {
				return fmt.Errorf("invalid config: %s", issues[0])
			}

			client := newLineClient(cfg, log)
			if err := client.Push(cmd.Context(), to, msgs...); err != nil {
				return fmt.Errorf("push to %s: %w", to, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d message(s) to %s\n", len(msgs), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient user id")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "HTTPS URL of an image to send")
	cmd.Flags().StringVar(&previewURL, "preview-url", "", "preview image URL (defaults to --image-url)")
	return cmd
}
