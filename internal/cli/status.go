package cli

import (
	"fmt"

	"github.com/soyeahso/scambot/internal/config"
	"github.com/soyeahso/scambot/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show scambot status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scambot %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Server:   port=%d bind=%s callback=%s\n",
				cfg.Server.Port, cfg.Server.Bind, cfg.Server.CallbackPath)
			fmt.Fprintf(out, "LINE:     token=%s secret=%s signature=%s\n",
				setOrUnset(cfg.LINE.AccessToken), setOrUnset(cfg.LINE.ChannelSecret), enabledOrDisabled(cfg.LINE.SigningKey != ""))
			fmt.Fprintf(out, "Outbound: timeout=%s retries=%d breaker=%s\n",
				cfg.Outbound.Timeout(), cfg.Outbound.RetryMax, enabledOrDisabled(cfg.Outbound.Breaker.Enabled))

			switch cfg.History.Store {
			case "sqlite":
				fmt.Fprintf(out, "History:  store=sqlite path=%s\n", paths.HistoryDB())
			default:
				fmt.Fprintf(out, "History:  store=%s shards=%d\n", cfg.History.Store, cfg.History.Shards)
			}
			if cfg.History.MaxPerUser > 0 {
				fmt.Fprintf(out, "          maxPerUser=%d\n", cfg.History.MaxPerUser)
			}

			if cfg.Analysis.Endpoint != "" {
				fmt.Fprintf(out, "Analysis: remote=%s (keyword fallback)\n", cfg.Analysis.Endpoint)
			} else {
				fmt.Fprintln(out, "Analysis: keyword")
			}
			fmt.Fprintf(out, "Media:    dir=%s\n", cfg.Media.Dir)

			issues := append(config.Validate(&cfg), config.ValidateCredentials(&cfg)...)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}

			return nil
		},
	}

	return cmd
}

func setOrUnset(s string) string {
	if s == "" {
		return "unset"
	}
	return "set"
}

func enabledOrDisabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
