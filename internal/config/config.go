package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Server struct {
		Port      string `yaml:"port"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Engine struct {
		TickInterval       time.Duration `yaml:"tick_interval"`
		DedupWindow        time.Duration `yaml:"dedup_window"`
		DefaultDailyCap    int           `yaml:"default_daily_cap"`
		CriticalExpiry     time.Duration `yaml:"critical_expiry"`
		DefaultExpiry      time.Duration `yaml:"default_expiry"`
		SampleRetention    time.Duration `yaml:"sample_retention"`
		MinTrainingSamples int           `yaml:"min_training_samples"`
	} `yaml:"engine"`
	Notifier struct {
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
		Enabled          bool   `yaml:"enabled"`
	} `yaml:"notifier"`
	Scorer struct {
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"scorer"`
	Augmenter struct {
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"augmenter"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.TickInterval <= 0 {
		c.Engine.TickInterval = 30 * time.Second
	}
	if c.Engine.DedupWindow <= 0 {
		c.Engine.DedupWindow = 24 * time.Hour
	}
	if c.Engine.DefaultDailyCap <= 0 {
		c.Engine.DefaultDailyCap = 20
	}
	if c.Engine.CriticalExpiry <= 0 {
		c.Engine.CriticalExpiry = 72 * time.Hour
	}
	if c.Engine.DefaultExpiry <= 0 {
		c.Engine.DefaultExpiry = 24 * time.Hour
	}
	if c.Engine.SampleRetention <= 0 {
		c.Engine.SampleRetention = 90 * 24 * time.Hour
	}
	if c.Engine.MinTrainingSamples <= 0 {
		c.Engine.MinTrainingSamples = 10
	}
}
