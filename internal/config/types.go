package config

// Config is the root configuration for scambot.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	LINE     LINEConfig     `yaml:"line,omitempty"`
	Outbound OutboundConfig `yaml:"outbound,omitempty"`
	Media    MediaConfig    `yaml:"media,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Analysis AnalysisConfig `yaml:"analysis,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty"`
}

// ServerConfig controls the inbound webhook HTTP server.
type ServerConfig struct {
	Port           int    `yaml:"port,omitempty"`
	Bind           string `yaml:"bind,omitempty"` // "lan" | "loopback" | "custom"
	CustomBindHost string `yaml:"customBindHost,omitempty"`
	CallbackPath   string `yaml:"callbackPath,omitempty"`
	MaxBodyBytes   int64  `yaml:"maxBodyBytes,omitempty"`
	// HandleBudgetSeconds bounds webhook processing before the callback
	// is acknowledged anyway.
	HandleBudgetSeconds int `yaml:"handleBudgetSeconds,omitempty"`
}

// LINEConfig holds messaging platform credentials and endpoints.
type LINEConfig struct {
	AccessToken   string `yaml:"accessToken,omitempty"`
	ChannelSecret string `yaml:"channelSecret,omitempty"`
	// SigningKey enables inbound HMAC verification. Empty disables it.
	SigningKey string `yaml:"signingKey,omitempty"`
	APIBase    string `yaml:"apiBase,omitempty"`  // https://api.line.me
	DataBase   string `yaml:"dataBase,omitempty"` // content host, defaults to APIBase
}

// OutboundConfig is the uniform policy applied to every platform call.
type OutboundConfig struct {
	TimeoutSeconds int           `yaml:"timeoutSeconds,omitempty"`
	RetryMax       int           `yaml:"retryMax,omitempty"`
	Breaker        BreakerConfig `yaml:"breaker,omitempty"`
}

// BreakerConfig tunes the platform API circuit breaker.
type BreakerConfig struct {
	Enabled             bool `yaml:"enabled,omitempty"`
	ConsecutiveFailures int  `yaml:"consecutiveFailures,omitempty"`
	OpenSeconds         int  `yaml:"openSeconds,omitempty"`
}

// MediaConfig controls transient image storage.
type MediaConfig struct {
	Dir        string `yaml:"dir,omitempty"`
	SmallBytes int64  `yaml:"smallBytes,omitempty"`
}

// HistoryConfig selects the conversation store.
type HistoryConfig struct {
	Store      string `yaml:"store,omitempty"`      // "memory" | "sqlite"
	MaxPerUser int    `yaml:"maxPerUser,omitempty"` // 0 = unbounded
	Shards     int    `yaml:"shards,omitempty"`
}

// AnalysisConfig enables the remote text analysis API.
type AnalysisConfig struct {
	Endpoint       string `yaml:"endpoint,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// HooksConfig defines shell commands run on pipeline events.
type HooksConfig struct {
	MessageReceived   []HookEntry `yaml:"messageReceived,omitempty"`
	Verdict           []HookEntry `yaml:"verdict,omitempty"`
	ReplySending      []HookEntry `yaml:"replySending,omitempty"`
	SignatureRejected []HookEntry `yaml:"signatureRejected,omitempty"`
	ServerStart       []HookEntry `yaml:"serverStart,omitempty"`
	ServerStop        []HookEntry `yaml:"serverStop,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
