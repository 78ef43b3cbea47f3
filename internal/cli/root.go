package cli

import (
	"path/filepath"

	"github.com/soyeahso/scambot/internal/config"
	"github.com/soyeahso/scambot/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	logStyle string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scambot",
		Short: "Scam-risk chat assistant for messaging webhooks",
		Long:  "scambot receives messaging-platform webhooks, scores each message for scam risk and replies with warnings.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := config.LoadDotEnv(".env", paths.Env); err != nil {
				return err
			}
			log = newLogger("", "")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.scambot/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&logStyle, "log-style", "", "console log style (pretty, compact, json)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// newLogger builds the root logger. Flags win over the config values
// passed in, which may be empty.
func newLogger(cfgLevel, cfgStyle string) *logging.Logger {
	level := logLevel
	if level == "" {
		level = cfgLevel
	}
	if level == "" {
		level = "info"
	}
	style := logStyle
	if style == "" {
		style = cfgStyle
	}
	return logging.NewStyled(style, level)
}

// loadConfig reads the config file and rebuilds the logger from its
// logging section.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	log = newLogger(cfg.Logging.Level, cfg.Logging.ConsoleStyle)
	if !filepath.IsAbs(cfg.Media.Dir) {
		log.Debug().Str("dir", cfg.Media.Dir).Msg("media directory is relative to the working directory")
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
