package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort         = 10000
	DefaultAPIBase      = "https://api.line.me"
	DefaultDataBase     = "https://api-data.line.me"
	DefaultCallbackPath = "/callback"
	DefaultHandleBudget = 45 * time.Second
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         DefaultPort,
			Bind:         "lan",
			CallbackPath: DefaultCallbackPath,
			MaxBodyBytes: 1 << 20,

			HandleBudgetSeconds: int(DefaultHandleBudget / time.Second),
		},
		LINE: LINEConfig{
			APIBase:  DefaultAPIBase,
			DataBase: DefaultDataBase,
		},
		Outbound: OutboundConfig{
			TimeoutSeconds: 10,
			RetryMax:       2,
			Breaker: BreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				OpenSeconds:         30,
			},
		},
		Media: MediaConfig{
			Dir:        "scam_images",
			SmallBytes: 10 * 1024,
		},
		History: HistoryConfig{
			Store:  "memory",
			Shards: 32,
		},
		Analysis: AnalysisConfig{
			TimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// Timeout returns the per-call outbound timeout.
func (o OutboundConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Timeout returns the remote analysis call timeout.
func (a AnalysisConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// OpenDuration returns how long a tripped breaker stays open.
func (b BreakerConfig) OpenDuration() time.Duration {
	return time.Duration(b.OpenSeconds) * time.Second
}

// HandleBudget returns how long a webhook delivery may be processed before
// it is acknowledged. Zero uses DefaultHandleBudget.
func (s ServerConfig) HandleBudget() time.Duration {
	if s.HandleBudgetSeconds <= 0 {
		return DefaultHandleBudget
	}
	return time.Duration(s.HandleBudgetSeconds) * time.Second
}
