// Package config loads and validates linkextractor configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/linkextractor/internal/crawler"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Files    FilesConfig    `mapstructure:"files"`
	Queue    QueueConfig    `mapstructure:"queue"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Progress ProgressConfig `mapstructure:"progress"`
}

// FilesConfig locates the input list, the fetch log, and the output artifact.
type FilesConfig struct {
	Input    string `mapstructure:"input"`
	FetchLog string `mapstructure:"fetch_log"`
	Output   string `mapstructure:"output"`
}

// QueueConfig sizes the queue between the fetcher and the extractor.
type QueueConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Policy   string `mapstructure:"policy"`
}

// HTTPConfig configures the fetch client.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// LoggingConfig toggles zap development features and optional file output.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ProgressConfig toggles the terminal progress bar.
type ProgressConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKEXTRACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("files.input", "files/urls.txt")
	v.SetDefault("files.fetch_log", "files/fetch.log")
	v.SetDefault("files.output", "files/hyperlinks.json")
	v.SetDefault("queue.capacity", 10)
	v.SetDefault("queue.policy", string(crawler.DeliveryBestEffort))
	v.SetDefault("http.user_agent", "Mozilla/5.0")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_body_bytes", 10*1024*1024)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("progress.enabled", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Files.Input) == "" {
		return fmt.Errorf("files.input must be set")
	}
	if strings.TrimSpace(c.Files.FetchLog) == "" {
		return fmt.Errorf("files.fetch_log must be set")
	}
	if strings.TrimSpace(c.Files.Output) == "" {
		return fmt.Errorf("files.output must be set")
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("queue.capacity must be > 0")
	}
	if !crawler.DeliveryPolicy(c.Queue.Policy).Valid() {
		return fmt.Errorf("queue.policy must be %q or %q, got %q",
			crawler.DeliveryBestEffort, crawler.DeliveryBlocking, c.Queue.Policy)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must be >= 0")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// DeliveryPolicy returns the configured queue policy.
func (c Config) DeliveryPolicy() crawler.DeliveryPolicy {
	return crawler.DeliveryPolicy(c.Queue.Policy)
}
