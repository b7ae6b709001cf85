package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"daily_quest/internal/middleware"
	"daily_quest/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Database repository.Config       `mapstructure:"database"`
	Catalog  CatalogConfig           `mapstructure:"catalog"`
	Quests   QuestsConfig            `mapstructure:"quests"`
	Contact  ContactConfig           `mapstructure:"contact"`
	Discord  DiscordConfig           `mapstructure:"discord"`
	Telegram TelegramConfig          `mapstructure:"telegram"`
	Cookie   middleware.CookieConfig `mapstructure:"cookie"`
	Feedback FeedbackConfig          `mapstructure:"feedback"`

	LogLevel string `mapstructure:"logLevel"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type QuestsConfig struct {
	TutorialID string `mapstructure:"tutorialId"`
	Timezone   string `mapstructure:"timezone"`
}

type ContactConfig struct {
	Discord string `mapstructure:"discord"`
}

type DiscordConfig struct {
	WebhookURL string        `mapstructure:"webhookUrl"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"botToken"`
	ChatID   int64  `mapstructure:"chatId"`
}

type FeedbackConfig struct {
	// RateLimit is requests per second per client IP.
	RateLimit float64 `mapstructure:"rateLimit"`
	Burst     int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")

	v.SetDefault("database.driver", repository.DriverSQLite)
	v.SetDefault("database.dsn", repository.MemoryDSN)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")

	v.SetDefault("catalog.path", "quests.json")
	v.SetDefault("quests.tutorialId", "tutorial")
	v.SetDefault("quests.timezone", "UTC")

	v.SetDefault("contact.discord", "")
	v.SetDefault("discord.webhookUrl", "")
	v.SetDefault("discord.timeout", 10*time.Second)
	v.SetDefault("telegram.botToken", "")
	v.SetDefault("telegram.chatId", 0)

	v.SetDefault("cookie.secure", false)
	v.SetDefault("feedback.rateLimit", 0.2)
	v.SetDefault("feedback.burst", 3)

	v.SetDefault("logLevel", "info")
}

// LoadConfig reads config.yaml from path, or from the working directory when
// path is empty, and applies APP_* environment overrides. A missing default
// config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configPath)
		v.SetConfigType(configFormat)
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Quests.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid quests.timezone %q: %w", c.Quests.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
