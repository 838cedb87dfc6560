// Package config provides configuration types and loading for adcounsel.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Paths, Provider, Session, Guardrails, Impact, SignalBus,
// Slack, Scheduler.
type Config struct {
	Paths      PathsConfig      `json:"paths"`
	Provider   ProviderConfig   `json:"provider"`
	Session    SessionConfig    `json:"session"`
	Guardrails GuardrailsConfig `json:"guardrails"`
	Impact     ImpactConfig     `json:"impact"`
	SignalBus  SignalBusConfig  `json:"signalBus"`
	Slack      SlackConfig      `json:"slack"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
}

// ---------------------------------------------------------------------------
// Paths – filesystem locations
// ---------------------------------------------------------------------------

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	Home      string `json:"home" envconfig:"HOME_DIR"`
	StorePath string `json:"storePath" envconfig:"STORE_PATH"`
}

// ---------------------------------------------------------------------------
// Provider – reasoning step
// ---------------------------------------------------------------------------

// ProviderConfig configures the OpenAI-compatible reasoning provider.
type ProviderConfig struct {
	APIKey      string  `json:"apiKey" envconfig:"API_KEY"`
	APIBase     string  `json:"apiBase" envconfig:"API_BASE"`
	Model       string  `json:"model" envconfig:"MODEL"`
	MaxTokens   int     `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature float64 `json:"temperature" envconfig:"TEMPERATURE"`
}

// ---------------------------------------------------------------------------
// Session – investigation loop budgets
// ---------------------------------------------------------------------------

// SessionConfig bounds a single investigation session.
type SessionConfig struct {
	// MaxToolCalls caps executed non-terminal tool calls per session.
	MaxToolCalls int `json:"maxToolCalls" envconfig:"MAX_TOOL_CALLS"`
	// MaxDuration caps session wall clock, measured from session start.
	MaxDuration time.Duration `json:"maxDuration" envconfig:"MAX_DURATION"`
	// MaxIterations caps reasoning turns regardless of tool usage.
	MaxIterations int `json:"maxIterations" envconfig:"MAX_ITERATIONS"`
}

// ---------------------------------------------------------------------------
// Guardrails – static safety rules
// ---------------------------------------------------------------------------

// GuardrailsConfig tunes the deterministic safety rules.
type GuardrailsConfig struct {
	// BudgetFloor is the minimum daily budget in dollars.
	BudgetFloor float64 `json:"budgetFloor" envconfig:"BUDGET_FLOOR"`
	// BidChangeCapPct is the maximum bid change as a percentage of the
	// current bid.
	BidChangeCapPct float64 `json:"bidChangeCapPct" envconfig:"BID_CHANGE_CAP_PCT"`
	// ProtectedKeywords overrides the built-in strategic-industry vocabulary
	// when non-empty.
	ProtectedKeywords []string `json:"protectedKeywords"`
}

// ---------------------------------------------------------------------------
// Impact – budget reallocation analysis
// ---------------------------------------------------------------------------

// ImpactConfig tunes the reallocation impact analyzer.
type ImpactConfig struct {
	// CreativeProtectionDays is the grace window after new ad creative during
	// which a campaign's budget must not be reduced.
	CreativeProtectionDays int `json:"creativeProtectionDays" envconfig:"CREATIVE_PROTECTION_DAYS"`
	// CumulativeLossWindowDays is the trailing window for cumulative budget
	// removal tracking.
	CumulativeLossWindowDays int `json:"cumulativeLossWindowDays" envconfig:"CUMULATIVE_LOSS_WINDOW_DAYS"`
	// CumulativeLossThresholdPct flags a source campaign once this share of
	// its notional window budget has already been removed.
	CumulativeLossThresholdPct float64 `json:"cumulativeLossThresholdPct" envconfig:"CUMULATIVE_LOSS_THRESHOLD_PCT"`
	// UtilizationCeiling excludes recipient candidates at or above this
	// budget utilization (0..1).
	UtilizationCeiling float64 `json:"utilizationCeiling" envconfig:"UTILIZATION_CEILING"`
}

// ---------------------------------------------------------------------------
// SignalBus – cross-system signals topic
// ---------------------------------------------------------------------------

// SignalBusConfig configures the Kafka-backed signal bus reader.
type SignalBusConfig struct {
	Enabled     bool          `json:"enabled" envconfig:"SIGNALBUS_ENABLED"`
	Brokers     string        `json:"brokers" envconfig:"SIGNALBUS_BROKERS"`
	Topic       string        `json:"topic" envconfig:"SIGNALBUS_TOPIC"`
	ReadTimeout time.Duration `json:"readTimeout" envconfig:"SIGNALBUS_READ_TIMEOUT"`
}

// ---------------------------------------------------------------------------
// Slack – reviewer notification
// ---------------------------------------------------------------------------

// SlackConfig configures reviewer notifications.
type SlackConfig struct {
	Enabled bool   `json:"enabled" envconfig:"SLACK_ENABLED"`
	Token   string `json:"token" envconfig:"SLACK_TOKEN"`
	Channel string `json:"channel" envconfig:"SLACK_CHANNEL"`
}

// ---------------------------------------------------------------------------
// Scheduler – recurring account audits
// ---------------------------------------------------------------------------

// SchedulerConfig configures recurring per-account audit runs.
type SchedulerConfig struct {
	Enabled      bool          `json:"enabled" envconfig:"SCHEDULER_ENABLED"`
	Cron         string        `json:"cron" envconfig:"SCHEDULER_CRON"`
	Accounts     []string      `json:"accounts"`
	TickInterval time.Duration `json:"tickInterval"`
	LockPath     string        `json:"lockPath" envconfig:"SCHEDULER_LOCK_PATH"`
}

// ApplyDefaults fills unset fields with engine defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider.APIBase == "" {
		c.Provider.APIBase = "https://api.openai.com/v1"
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = 4096
	}
	if c.Provider.Temperature <= 0 {
		c.Provider.Temperature = 0.2
	}
	if c.Session.MaxToolCalls <= 0 {
		c.Session.MaxToolCalls = 5
	}
	if c.Session.MaxDuration <= 0 {
		c.Session.MaxDuration = 30 * time.Second
	}
	if c.Session.MaxIterations <= 0 {
		c.Session.MaxIterations = 10
	}
	if c.Guardrails.BudgetFloor <= 0 {
		c.Guardrails.BudgetFloor = 25
	}
	if c.Guardrails.BidChangeCapPct <= 0 {
		c.Guardrails.BidChangeCapPct = 20
	}
	if c.Impact.CreativeProtectionDays <= 0 {
		c.Impact.CreativeProtectionDays = 14
	}
	if c.Impact.CumulativeLossWindowDays <= 0 {
		c.Impact.CumulativeLossWindowDays = 60
	}
	if c.Impact.CumulativeLossThresholdPct <= 0 {
		c.Impact.CumulativeLossThresholdPct = 40
	}
	if c.Impact.UtilizationCeiling <= 0 {
		c.Impact.UtilizationCeiling = 0.95
	}
	if c.SignalBus.ReadTimeout <= 0 {
		c.SignalBus.ReadTimeout = 5 * time.Second
	}
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = "0 6 * * *"
	}
	if c.Scheduler.TickInterval <= 0 {
		c.Scheduler.TickInterval = 60 * time.Second
	}
}
