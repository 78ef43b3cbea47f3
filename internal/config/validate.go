package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"lan", "loopback", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	if cfg.Server.CallbackPath != "" && !strings.HasPrefix(cfg.Server.CallbackPath, "/") {
		issues = append(issues, ValidationIssue{
			Path:    "server.callbackPath",
			Message: fmt.Sprintf("must start with /, got %q", cfg.Server.CallbackPath),
		})
	}

	if cfg.Server.HandleBudgetSeconds < 0 || cfg.Server.HandleBudgetSeconds > 300 {
		issues = append(issues, ValidationIssue{
			Path:    "server.handleBudgetSeconds",
			Message: fmt.Sprintf("must be 0-300, got %d", cfg.Server.HandleBudgetSeconds),
		})
	}

	// Platform endpoints
	for path, raw := range map[string]string{
		"line.apiBase":      cfg.LINE.APIBase,
		"line.dataBase":     cfg.LINE.DataBase,
		"analysis.endpoint": cfg.Analysis.Endpoint,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    path,
				Message: fmt.Sprintf("must be an absolute URL, got %q", raw),
			})
		}
	}

	// Outbound policy
	if cfg.Outbound.RetryMax < 0 || cfg.Outbound.RetryMax > 10 {
		issues = append(issues, ValidationIssue{
			Path:    "outbound.retryMax",
			Message: fmt.Sprintf("must be 0-10, got %d", cfg.Outbound.RetryMax),
		})
	}
	if cfg.Outbound.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "outbound.timeoutSeconds",
			Message: "must not be negative",
		})
	}

	// History validation
	validStores := []string{"memory", "sqlite"}
	if cfg.History.Store != "" && !slices.Contains(validStores, cfg.History.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "history.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.History.Store),
		})
	}
	if cfg.History.MaxPerUser < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "history.maxPerUser",
			Message: "must not be negative (0 = unbounded)",
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}

// ValidateCredentials reports missing platform credentials. The webhook
// server cannot reply without them.
func ValidateCredentials(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	if cfg.LINE.AccessToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "line.accessToken",
			Message: "required (or set CHANNEL_ACCESS_TOKEN)",
		})
	}
	if cfg.LINE.ChannelSecret == "" {
		issues = append(issues, ValidationIssue{
			Path:    "line.channelSecret",
			Message: "required (or set CHANNEL_SECRET)",
		})
	}
	return issues
}
