// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package config provides configuration management for the exporter.
//
// Configuration is loaded in the following order of precedence:
//  1. YAML configuration file
//  2. Environment variable overrides
//  3. Default values for optional settings
//
// # Environment Variables
//
//   - AMQ_BASE_URL: upstream base URL
//   - AMQ_CLIENT_ID / AMQ_CLIENT_SECRET: client-credentials auth
//   - AMQ_USERNAME / AMQ_PASSWORD: username/password auth
//   - AMQ_ORGANIZATION_ID: primary tenant identifier
//   - AMQ_LICENSE_KEY: license key
//   - LOG_LEVEL: logging level (debug, info, warn, error, fatal, panic)
//
// # Validation
//
// Validation happens in two layers: struct-tag validation via
// go-playground/validator for simple per-field constraints, and
// hand-written cross-field checks in Config.Validate() for
// constraints that span fields (exactly one auth mode, scrape period
// bounds, and so on). config.ValidateWithSchema additionally checks
// the raw YAML document against a JSON Schema.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	BaseURL        string          `yaml:"baseUrl" validate:"required,url"`
	Auth           AuthConfig      `yaml:"auth"`
	OrganizationID string          `yaml:"organizationId"`
	AutoDiscovery  bool            `yaml:"autoDiscovery"`
	Discovery      DiscoveryConfig `yaml:"discovery"`
	Environments   []string        `yaml:"environments"`
	Regions        []string        `yaml:"regions"`
	Scrape         ScrapeConfig    `yaml:"scrape"`
	HTTP           HTTPConfig      `yaml:"http"`
	Monitors       MonitorsConfig  `yaml:"monitors"`
	License        LicenseConfig   `yaml:"license"`
	Logging        LoggingConfig   `yaml:"logging"`
}

// AuthConfig holds the two mutually-exclusive authentication modes.
type AuthConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// HasClientCredentials reports whether the client-credentials mode is fully configured.
func (a AuthConfig) HasClientCredentials() bool {
	return a.ClientID != "" && a.ClientSecret != ""
}

// HasPasswordLogin reports whether the username/password mode is fully configured.
func (a AuthConfig) HasPasswordLogin() bool {
	return a.Username != "" && a.Password != ""
}

// DiscoveryConfig holds C3's cadence settings.
type DiscoveryConfig struct {
	RefreshIntervalMs int64 `yaml:"refreshIntervalMs" validate:"min=0"`
}

// ScrapeConfig holds C4's cadence and gating settings.
type ScrapeConfig struct {
	IntervalSeconds int  `yaml:"intervalSeconds" validate:"min=0"`
	PeriodSeconds   int  `yaml:"periodSeconds" validate:"min=0"`
	Enabled         bool `yaml:"enabled"`
}

// HTTPConfig holds C2's timeout and retry policy.
type HTTPConfig struct {
	ConnectTimeoutSeconds int `yaml:"connectTimeoutSeconds" validate:"min=0"`
	ReadTimeoutSeconds    int `yaml:"readTimeoutSeconds" validate:"min=0"`
	MaxRetries            int `yaml:"maxRetries" validate:"min=0"`
}

// MonitorsConfig holds C5/C6/C7's settings.
type MonitorsConfig struct {
	Enabled                   bool                      `yaml:"enabled"`
	EvaluationIntervalSeconds int                       `yaml:"evaluationIntervalSeconds" validate:"min=0"`
	Defaults                  MonitorDefaultsConfig     `yaml:"defaults"`
	Definitions               []MonitorDefinitionConfig `yaml:"definitions" validate:"dive"`
	Notifications             NotificationsConfig       `yaml:"notifications"`
}

// MonitorDefaultsConfig holds values merged into definitions that omit them.
type MonitorDefaultsConfig struct {
	CooldownMinutes         int `yaml:"cooldownMinutes" validate:"min=0"`
	EvaluationWindowMinutes int `yaml:"evaluationWindowMinutes" validate:"min=0"`
}

// MonitorDefinitionConfig is the YAML shape of a MonitorDefinition.
type MonitorDefinitionConfig struct {
	Name                    string   `yaml:"name" validate:"required"`
	Type                    string   `yaml:"type" validate:"required,oneof=QueueDepth DlqAlert ThroughputDrop ThroughputSpike QueueHealth Custom"`
	Target                  string   `yaml:"target" validate:"required"`
	Condition               string   `yaml:"condition" validate:"required,oneof=GT LT GTE LTE EQ PctChange"`
	Threshold               float64  `yaml:"threshold"`
	EvaluationWindowMinutes int      `yaml:"evaluationWindowMinutes" validate:"min=0"`
	CooldownMinutes         int      `yaml:"cooldownMinutes" validate:"min=0"`
	Severity                string   `yaml:"severity" validate:"required,oneof=Info Warning Critical"`
	Channels                []string `yaml:"channels"`
	Enabled                 bool     `yaml:"enabled"`
}

// NotificationsConfig holds the named channel pool C7 dispatches against.
type NotificationsConfig struct {
	Channels []ChannelConfig `yaml:"channels" validate:"dive"`
}

// ChannelConfig is the YAML shape of a notification channel. Only the
// fields relevant to its Type are expected to be populated.
type ChannelConfig struct {
	Name         string            `yaml:"name" validate:"required"`
	Type         string            `yaml:"type" validate:"required,oneof=Slack PagerDuty Email Teams Webhook"`
	Enabled      bool              `yaml:"enabled"`
	WebhookURL   string            `yaml:"webhookUrl"`
	RoutingKey   string            `yaml:"routingKey"`
	Recipient    string            `yaml:"recipient"`
	Sender       string            `yaml:"sender"`
	SMTPHost     string            `yaml:"smtpHost"`
	SMTPPort     int               `yaml:"smtpPort"`
	SMTPUsername string            `yaml:"smtpUsername"`
	SMTPPassword string            `yaml:"smtpPassword"`
	Headers      map[string]string `yaml:"headers"`
}

// Configured reports whether this channel's mandatory type-specific
// fields are non-empty, per the data model's "configured?" invariant.
func (c ChannelConfig) Configured() bool {
	switch c.Type {
	case "Slack", "Teams", "Webhook":
		return c.WebhookURL != ""
	case "PagerDuty":
		return c.RoutingKey != ""
	case "Email":
		return c.Recipient != "" && c.Sender != "" && c.SMTPHost != ""
	default:
		return false
	}
}

// LicenseConfig holds the license key gating pro-tier features.
type LicenseConfig struct {
	Key string `yaml:"key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

var validate = validator.New()

// Load reads configuration from a YAML file and applies environment
// variable overrides, defaults, and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("AMQ_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("AMQ_CLIENT_ID"); v != "" {
		c.Auth.ClientID = v
	}
	if v := os.Getenv("AMQ_CLIENT_SECRET"); v != "" {
		c.Auth.ClientSecret = v
	}
	if v := os.Getenv("AMQ_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("AMQ_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("AMQ_ORGANIZATION_ID"); v != "" {
		c.OrganizationID = v
	}
	if v := os.Getenv("AMQ_LICENSE_KEY"); v != "" {
		c.License.Key = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AMQ_SCRAPE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scrape.IntervalSeconds = n
		} else {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse AMQ_SCRAPE_INTERVAL_SECONDS %q: %v\n", v, err)
		}
	}
}

// setDefaults fills in default values for unset optional settings.
func (c *Config) setDefaults() {
	if c.Discovery.RefreshIntervalMs == 0 {
		c.Discovery.RefreshIntervalMs = 300000
	}
	if c.Scrape.IntervalSeconds == 0 {
		c.Scrape.IntervalSeconds = 60
	}
	if c.Scrape.PeriodSeconds == 0 {
		c.Scrape.PeriodSeconds = 600
	}
	if c.HTTP.ConnectTimeoutSeconds == 0 {
		c.HTTP.ConnectTimeoutSeconds = 5
	}
	if c.HTTP.ReadTimeoutSeconds == 0 {
		c.HTTP.ReadTimeoutSeconds = 10
	}
	if c.HTTP.MaxRetries == 0 {
		c.HTTP.MaxRetries = 3
	}
	if c.Monitors.EvaluationIntervalSeconds == 0 {
		c.Monitors.EvaluationIntervalSeconds = 60
	}
	if c.Monitors.Defaults.CooldownMinutes == 0 {
		c.Monitors.Defaults.CooldownMinutes = 15
	}
	if c.Monitors.Defaults.EvaluationWindowMinutes == 0 {
		c.Monitors.Defaults.EvaluationWindowMinutes = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Regions) == 0 {
		c.Regions = []string{"us-east-1"}
	}
	for i := range c.Monitors.Definitions {
		d := &c.Monitors.Definitions[i]
		if d.CooldownMinutes == 0 {
			d.CooldownMinutes = c.Monitors.Defaults.CooldownMinutes
		}
		if d.EvaluationWindowMinutes == 0 {
			d.EvaluationWindowMinutes = c.Monitors.Defaults.EvaluationWindowMinutes
		}
	}
}

// Validate checks the configuration for correctness, combining
// struct-tag validation with hand-written cross-field checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateScrape(); err != nil {
		return err
	}
	if err := c.validateMonitors(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAuth() error {
	hasCC := c.Auth.HasClientCredentials()
	hasPW := c.Auth.HasPasswordLogin()
	if hasCC == hasPW {
		return fmt.Errorf("exactly one auth mode must be configured (client-credentials xor username/password), got client-credentials=%v username-password=%v", hasCC, hasPW)
	}
	return nil
}

func (c *Config) validateScrape() error {
	if c.Scrape.IntervalSeconds < 10 {
		return fmt.Errorf("scrape.intervalSeconds must be at least 10, got %d", c.Scrape.IntervalSeconds)
	}
	if c.Scrape.PeriodSeconds < 300 {
		return fmt.Errorf("scrape.periodSeconds must be at least 300, got %d", c.Scrape.PeriodSeconds)
	}
	if c.Discovery.RefreshIntervalMs < 1000 {
		return fmt.Errorf("discovery.refreshIntervalMs must be at least 1000, got %d", c.Discovery.RefreshIntervalMs)
	}
	if !c.AutoDiscovery && len(c.Environments) == 0 {
		return fmt.Errorf("environments must be non-empty when autoDiscovery is false")
	}
	return nil
}

func (c *Config) validateMonitors() error {
	if !c.Monitors.Enabled {
		return nil
	}
	if c.Monitors.EvaluationIntervalSeconds < 10 {
		return fmt.Errorf("monitors.evaluationIntervalSeconds must be at least 10, got %d", c.Monitors.EvaluationIntervalSeconds)
	}
	names := make(map[string]bool, len(c.Monitors.Definitions))
	for _, d := range c.Monitors.Definitions {
		if names[d.Name] {
			return fmt.Errorf("duplicate monitor name %q", d.Name)
		}
		names[d.Name] = true
		if (d.Type == "ThroughputDrop" || d.Type == "ThroughputSpike") && d.Condition != "PctChange" {
			return fmt.Errorf("monitor %q: throughput monitors use condition PctChange, got %q", d.Name, d.Condition)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, fatal, panic (got %q)", c.Logging.Level)
	}
}

// DiscoveryRefreshInterval returns the discovery cadence as a Duration.
func (c *Config) DiscoveryRefreshInterval() time.Duration {
	return time.Duration(c.Discovery.RefreshIntervalMs) * time.Millisecond
}
