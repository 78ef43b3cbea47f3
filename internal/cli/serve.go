package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soyeahso/scambot/internal/config"
	"github.com/soyeahso/scambot/internal/gateway"
	"github.com/soyeahso/scambot/internal/hooks"
	"github.com/soyeahso/scambot/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := append(config.Validate(&cfg), config.ValidateCredentials(&cfg)...)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if cfg.LINE.SigningKey == "" {
				log.Warn().Msg("no signing key configured, webhook signature verification is disabled")
			}

			hookMgr := hooks.NewManager(log)
			if n := hooks.RegisterCommands(hookMgr, cfg.Hooks); n > 0 {
				log.Info().Int("count", n).Msg("hook commands registered")
			}

			a, err := buildApp(cfg, hookMgr, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn().Err(err).Msg("closing resources")
				}
			}()

			log.Info().
				Str("history", cfg.History.Store).
				Str("mediaDir", cfg.Media.Dir).
				Bool("remoteAnalysis", cfg.Analysis.Endpoint != "").
				Str("breaker", a.client.BreakerState()).
				Msg("pipeline ready")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg.Server, a.pipeline, log, gateway.WithHooks(hookMgr))
			if err := srv.Start(ctx); err != nil {
				return err
			}
			if ms, ok := a.history.(*store.MemoryStore); ok {
				log.Info().Int("users", ms.Users()).Msg("in-memory conversation history discarded")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (lan, loopback, custom)")
	return cmd
}
