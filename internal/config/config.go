// Package config provides configuration loading and validation for the bot.
// Values come from defaults, an optional config.yaml, and BOT_* environment
// variables, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration sections.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	News      NewsConfig      `mapstructure:"news"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TelegramConfig holds Telegram API settings.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig holds settings for the digest-generation client.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// NewsConfig controls the popular-photo forwarding pipeline. When
// Enabled is false or TargetChatID is zero every reaction event is
// dropped at the gate.
type NewsConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	TargetChatID   int64   `mapstructure:"target_chat_id"`
	TargetThreadID int     `mapstructure:"target_thread_id"`
	SourceChats    []int64 `mapstructure:"source_chats"`
	MinReactions   int     `mapstructure:"min_reactions" validate:"min=1"`
}

// SourceAllowed reports whether a chat may feed the forwarding pipeline.
// An empty allowlist admits every chat.
func (c NewsConfig) SourceAllowed(chatID int64) bool {
	if len(c.SourceChats) == 0 {
		return true
	}
	for _, id := range c.SourceChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// TaskConfig describes one scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Load reads configuration from defaults, config.yaml, and BOT_* environment
// variables, then validates the result.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env cover it.
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)

	viper.SetDefault("database.path", DefaultDBPath)

	viper.SetDefault("gemini.model", DefaultGeminiModel)
	viper.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	viper.SetDefault("gemini.timeout", DefaultGeminiTimeout)
	viper.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	viper.SetDefault("gemini.retry_delay", DefaultGeminiRetryDelay)

	viper.SetDefault("news.enabled", false)
	viper.SetDefault("news.min_reactions", DefaultNewsMinReactions)

	viper.SetDefault("scheduler.tasks.daily_digest.enabled", true)
	viper.SetDefault("scheduler.tasks.daily_digest.schedule", DefaultDigestSchedule)
	viper.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	viper.SetDefault("scheduler.tasks.sql_maintenance.schedule", DefaultMaintenanceSchedule)
}
