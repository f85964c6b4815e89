// Package core provides configuration, the dispatch engine and the daily
// push scheduler for xdbot.
//
// The core package wires the platform bot adapters to the feature router:
// inbound group messages flow through a buffered channel into per-message
// handler goroutines, and replies flow back out through the adapter that
// produced the message. A single scheduler loop runs alongside the event
// loop and pushes the Epic free-games report to subscribed groups once a
// day.
package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wenlin9/xdbot/pkg/constants"
)

const (
	DefaultLogLevel        = "info"
	DefaultLogMaxSize      = 100 // MB
	DefaultLogMaxBackups   = 5
	DefaultLogMaxAge       = 30 // days
	DefaultLogCompress     = true
	DefaultLogEnableStdout = true

	DefaultMinecraftTimeout = "5s"
)

// Config represents the complete xdbot configuration structure
type Config struct {
	Bots      map[string]BotConfig `yaml:"bots"`
	Epic      EpicConfig           `yaml:"epic"`
	Minecraft MinecraftConfig      `yaml:"minecraft"`
	Logging   LoggingConfig        `yaml:"logging"`
}

// BotConfig represents one platform adapter's credentials
type BotConfig struct {
	Enabled           bool   `yaml:"enabled"`
	AppID             string `yaml:"app_id"`
	AppSecret         string `yaml:"app_secret"`
	Token             string `yaml:"token"`
	ChannelID         string `yaml:"channel_id"`         // Discord: server channel ID
	EncryptKey        string `yaml:"encrypt_key"`        // Feishu: event encryption key (optional)
	VerificationToken string `yaml:"verification_token"` // Feishu: verification token (optional)
}

// EpicConfig represents the promotion notifier settings
type EpicConfig struct {
	URL      string `yaml:"url"`       // catalog endpoint; empty selects the public one
	PushHour int    `yaml:"push_hour"` // local hour of the daily push (default: 12)
	Timezone string `yaml:"timezone"`  // IANA name the schedule is computed in (default: Asia/Shanghai)
}

// MinecraftConfig represents the server status lookup settings
type MinecraftConfig struct {
	QueryTimeout string `yaml:"query_timeout"` // per-ping timeout (e.g., "5s")
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs (default: true)
	EnableStdout bool   `yaml:"enable_stdout"` // Also output to stdout (default: true)
}

// LoadConfig loads configuration from file and expands environment variables
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return "" // Return empty string to let config parsing fail
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// validateConfig performs basic validation on the configuration
func validateConfig(config *Config) error {
	// Set default logging configuration
	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = DefaultLogMaxAge
	}
	if !config.Logging.Compress {
		config.Logging.Compress = DefaultLogCompress
	}
	if !config.Logging.EnableStdout {
		config.Logging.EnableStdout = DefaultLogEnableStdout
	}

	// Set push schedule defaults and verify the timezone resolves
	if config.Epic.PushHour == 0 {
		config.Epic.PushHour = constants.DefaultPushHour
	}
	if config.Epic.PushHour < 0 || config.Epic.PushHour > 23 {
		return fmt.Errorf("epic.push_hour must be between 0 and 23 (got %d)", config.Epic.PushHour)
	}
	if config.Epic.Timezone == "" {
		config.Epic.Timezone = constants.DefaultTimezone
	}
	if _, err := time.LoadLocation(config.Epic.Timezone); err != nil {
		return fmt.Errorf("invalid epic.timezone %q: %w", config.Epic.Timezone, err)
	}

	// Validate the Minecraft query timeout
	if config.Minecraft.QueryTimeout == "" {
		config.Minecraft.QueryTimeout = DefaultMinecraftTimeout
	}
	timeout, err := time.ParseDuration(config.Minecraft.QueryTimeout)
	if err != nil {
		return fmt.Errorf("invalid minecraft.query_timeout: %w", err)
	}
	if timeout < 100*time.Millisecond || timeout > time.Minute {
		return fmt.Errorf("minecraft.query_timeout must be between 100ms and 1m (got %v)", timeout)
	}

	// Validate at least one bot is configured
	if len(config.Bots) == 0 {
		return fmt.Errorf("at least one bot must be configured")
	}

	return nil
}

// GetBotConfig retrieves configuration for a specific bot
func (c *Config) GetBotConfig(botType string) (BotConfig, error) {
	bot, exists := c.Bots[botType]
	if !exists {
		return BotConfig{}, fmt.Errorf("bot type %s not found in configuration", botType)
	}

	if !bot.Enabled {
		return BotConfig{}, fmt.Errorf("bot type %s is disabled", botType)
	}

	return bot, nil
}

// PushLocation resolves the timezone the daily push is computed in.
func (c *Config) PushLocation() (*time.Location, error) {
	return time.LoadLocation(c.Epic.Timezone)
}

// MinecraftTimeout returns the parsed per-ping timeout.
func (c *Config) MinecraftTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Minecraft.QueryTimeout)
	if err != nil {
		return constants.DefaultMinecraftQueryTimeout
	}
	return timeout
}
