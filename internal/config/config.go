// Package config provides YAML-based configuration loading for ferrywatch.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level ferrywatch configuration, loaded from config.yaml.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Poll     PollConfig     `yaml:"poll"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// APIConfig holds the schedule API endpoints.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	RelayURL  string `yaml:"relay_url"`
	TimeShift int    `yaml:"time_shift"`
}

// PollConfig controls the per-session polling cadence.
type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// Interval returns the poll interval as a duration.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// DatabaseConfig holds the session store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelegramConfig holds the bot credentials used by the control bot and as
// session defaults. Both fields can be overridden by the environment
// variables TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file is not an error; defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %v", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %v", err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://www.praamid.ee/online"
	}
	if c.API.RelayURL == "" {
		c.API.RelayURL = "https://api.allorigins.win/get?url="
	}
	if c.API.TimeShift == 0 {
		c.API.TimeShift = 300
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = 60
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/ferrywatch.db"
	}
}

// applyEnv lets environment variables override file-provided secrets.
func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}
	if c.Poll.IntervalSeconds < 0 {
		errs = append(errs, "poll.interval_seconds must not be negative")
	}
	if c.API.TimeShift < 0 {
		errs = append(errs, "api.time_shift must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
