package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens and keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.LINE.AccessToken = expandEnvVars(cfg.LINE.AccessToken)
	cfg.LINE.ChannelSecret = expandEnvVars(cfg.LINE.ChannelSecret)
	cfg.LINE.SigningKey = expandEnvVars(cfg.LINE.SigningKey)
	cfg.Analysis.Endpoint = expandEnvVars(cfg.Analysis.Endpoint)
}

// LoadDotEnv loads KEY=VALUE pairs from .env files into the process
// environment. Variables already set are not overridden and missing files
// are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return &ConfigError{Message: "failed to load " + filepath.Base(f) + ": " + err.Error()}
		}
	}
	return nil
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = d.Server.Bind
	}
	if cfg.Server.CallbackPath == "" {
		cfg.Server.CallbackPath = d.Server.CallbackPath
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
	if cfg.Server.HandleBudgetSeconds <= 0 {
		cfg.Server.HandleBudgetSeconds = d.Server.HandleBudgetSeconds
	}
	if cfg.LINE.APIBase == "" {
		cfg.LINE.APIBase = d.LINE.APIBase
	}
	if cfg.LINE.DataBase == "" {
		cfg.LINE.DataBase = d.LINE.DataBase
	}
	if cfg.Outbound.TimeoutSeconds <= 0 {
		cfg.Outbound.TimeoutSeconds = d.Outbound.TimeoutSeconds
	}
	if cfg.Outbound.Breaker.ConsecutiveFailures <= 0 {
		cfg.Outbound.Breaker.ConsecutiveFailures = d.Outbound.Breaker.ConsecutiveFailures
	}
	if cfg.Outbound.Breaker.OpenSeconds <= 0 {
		cfg.Outbound.Breaker.OpenSeconds = d.Outbound.Breaker.OpenSeconds
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = d.Media.Dir
	}
	if cfg.Media.SmallBytes <= 0 {
		cfg.Media.SmallBytes = d.Media.SmallBytes
	}
	if cfg.History.Store == "" {
		cfg.History.Store = d.History.Store
	}
	if cfg.History.Shards <= 0 {
		cfg.History.Shards = d.History.Shards
	}
	if cfg.Analysis.TimeoutSeconds <= 0 {
		cfg.Analysis.TimeoutSeconds = d.Analysis.TimeoutSeconds
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides reads SCAMBOT_* and platform credential environment
// variables. Credentials from the environment only fill empty config fields.
func applyEnvOverrides(cfg *Config) {
	for _, key := range []string{"PORT", "SCAMBOT_PORT"} {
		if v := os.Getenv(key); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.Server.Port = port
			}
		}
	}
	if v := os.Getenv("SCAMBOT_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("SCAMBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SCAMBOT_MEDIA_DIR"); v != "" {
		cfg.Media.Dir = v
	}
	if v := os.Getenv("SCAMBOT_ANALYSIS_ENDPOINT"); v != "" {
		cfg.Analysis.Endpoint = v
	}

	if cfg.LINE.AccessToken == "" {
		cfg.LINE.AccessToken = os.Getenv("CHANNEL_ACCESS_TOKEN")
	}
	if cfg.LINE.ChannelSecret == "" {
		cfg.LINE.ChannelSecret = os.Getenv("CHANNEL_SECRET")
	}
	if cfg.LINE.SigningKey == "" {
		cfg.LINE.SigningKey = os.Getenv("ASSERTION_SIGNING_KEY")
	}
}
