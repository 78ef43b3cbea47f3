package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/scambot/internal/domain"
	"github.com/soyeahso/scambot/internal/risk"
	"github.com/soyeahso/scambot/internal/warning"
	"github.com/spf13/cobra"
)

// classifyResult is the JSON printed by the classify command.
type classifyResult struct {
	Verdict *domain.Verdict `json:"verdict"`
	Reply   string          `json:"reply"`
}

func newClassifyCmd() *cobra.Command {
	var (
		image  string
		remote bool
		userID string
	)

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Score a message or image file offline and print the verdict",
		Example: `  scambot classify "錢怎麼轉給你"
  scambot classify --image ./screenshot.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			composer := warning.Composer{}

			var res classifyResult
			switch {
			case image != "":
				v, err := risk.NewHeuristicImageClassifier(cfg.Media.SmallBytes).ClassifyImage(cmd.Context(), image)
				if err != nil {
					return fmt.Errorf("classifying image: %w", err)
				}
				res = classifyResult{Verdict: v, Reply: composer.Image(v)}
			case len(args) > 0:
				if !remote {
					cfg.Analysis.Endpoint = ""
				} else if cfg.Analysis.Endpoint == "" {
					return errors.New("--remote requires analysis.endpoint to be configured")
				}
				text := strings.Join(args, " ")
				classifier := newTextClassifier(cfg, newLineClient(cfg, log), log)
				v, err := classifier.ClassifyText(cmd.Context(), risk.TextRequest{
					UserID:  userID,
					Text:    text,
					History: []string{text},
				})
				if err != nil {
					return fmt.Errorf("classifying text: %w", err)
				}
				res = classifyResult{Verdict: &v, Reply: composer.TextReply(v)}
			default:
				return errors.New("provide text to classify or --image <path>")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "classify a local image file instead of text")
	cmd.Flags().BoolVar(&remote, "remote", false, "use the configured analysis endpoint (keyword fallback)")
	cmd.Flags().StringVar(&userID, "user", "cli", "user id sent with remote analysis requests")
	return cmd
}
