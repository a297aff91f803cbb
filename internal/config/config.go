package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Failure policies shared by the fetch and store stages.
const (
	PolicyAbort  = "abort"
	PolicySkip   = "skip"
	PolicyReport = "report"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	PageDepth          int           `mapstructure:"page_depth"`
	FetchTimeoutMs     int64         `mapstructure:"fetch_timeout_ms"`
	FetchConcurrency   int           `mapstructure:"fetch_concurrency"`
	FetchFailurePolicy string        `mapstructure:"fetch_failure_policy"`
	FetchTimeout       time.Duration `mapstructure:"-"`

	StorageType        string        `mapstructure:"store_type"`
	StoreTable         string        `mapstructure:"store_table"`
	BBoltPath          string        `mapstructure:"bbolt_path"`
	AWSRegion          string        `mapstructure:"aws_region"`
	DynamoDBEndpoint   string        `mapstructure:"dynamodb_endpoint"`
	AWSAccessKeyID     string        `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string        `mapstructure:"aws_secret_access_key"`
	PostgresDSN        string        `mapstructure:"postgres_dsn"`
	RedisAddr          string        `mapstructure:"redis_addr"`
	RedisPassword      string        `mapstructure:"redis_password"`
	RedisDB            int           `mapstructure:"redis_db"`
	StoreTimeoutMs     int64         `mapstructure:"store_timeout_ms"`
	StoreRetryAttempts int           `mapstructure:"store_retry_attempts"`
	StoreFailurePolicy string        `mapstructure:"store_failure_policy"`
	StoreTimeout       time.Duration `mapstructure:"-"`
	SendTimeoutMs      int64         `mapstructure:"send_timeout_ms"`
	SendTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadWithDefaults(nil)
}

// LoadWithDefaults is Load with entrypoint specific defaults layered over the built-in ones.
// Environment variables still take precedence.
func LoadWithDefaults(defaults map[string]any) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "hot-promos")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")

	v.SetDefault("page_depth", 3)
	v.SetDefault("fetch_timeout_ms", 3000)
	v.SetDefault("fetch_concurrency", 16)
	v.SetDefault("fetch_failure_policy", PolicyAbort)

	v.SetDefault("store_type", "bbolt")
	v.SetDefault("store_table", "promo_bot_mx_promos")
	v.SetDefault("bbolt_path", "./data/promos.db")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("dynamodb_endpoint", "")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("store_timeout_ms", 5000)
	v.SetDefault("store_retry_attempts", 3)
	v.SetDefault("store_failure_policy", PolicyReport)
	v.SetDefault("send_timeout_ms", 5000)
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.PageDepth <= 0 {
		return fmt.Errorf("invalid page_depth (must be positive)")
	}
	if c.FetchTimeoutMs <= 0 {
		return fmt.Errorf("invalid fetch_timeout_ms (must be positive milliseconds)")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("invalid fetch_concurrency (must be positive)")
	}
	if c.StoreTimeoutMs <= 0 {
		return fmt.Errorf("invalid store_timeout_ms (must be positive milliseconds)")
	}
	if c.StoreRetryAttempts <= 0 {
		return fmt.Errorf("invalid store_retry_attempts (must be positive)")
	}
	if c.SendTimeoutMs <= 0 {
		return fmt.Errorf("invalid send_timeout_ms (must be positive milliseconds)")
	}

	c.FetchFailurePolicy = strings.ToLower(strings.TrimSpace(c.FetchFailurePolicy))
	if c.FetchFailurePolicy != PolicyAbort && c.FetchFailurePolicy != PolicySkip {
		return fmt.Errorf("invalid fetch_failure_policy %q (expected %s or %s)", c.FetchFailurePolicy, PolicyAbort, PolicySkip)
	}
	c.StoreFailurePolicy = strings.ToLower(strings.TrimSpace(c.StoreFailurePolicy))
	if c.StoreFailurePolicy != PolicyAbort && c.StoreFailurePolicy != PolicyReport {
		return fmt.Errorf("invalid store_failure_policy %q (expected %s or %s)", c.StoreFailurePolicy, PolicyAbort, PolicyReport)
	}
	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))
	if c.StorageType == "" {
		return fmt.Errorf("store_type must not be empty")
	}
	if strings.TrimSpace(c.StoreTable) == "" {
		return fmt.Errorf("store_table must not be empty")
	}

	c.FetchTimeout = time.Duration(c.FetchTimeoutMs) * time.Millisecond
	c.StoreTimeout = time.Duration(c.StoreTimeoutMs) * time.Millisecond
	c.SendTimeout = time.Duration(c.SendTimeoutMs) * time.Millisecond
	return nil
}

// Summary returns the settings worth logging at startup, without credentials.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"app_name":             c.AppName,
		"env":                  c.Env,
		"log_level":            c.LogLevel,
		"providers_file":       c.ProvidersFile,
		"publishers_file":      c.PublishersFile,
		"page_depth":           c.PageDepth,
		"fetch_timeout":        c.FetchTimeout.String(),
		"fetch_concurrency":    c.FetchConcurrency,
		"fetch_failure_policy": c.FetchFailurePolicy,
		"store_type":           c.StorageType,
		"store_table":          c.StoreTable,
		"store_timeout":        c.StoreTimeout.String(),
		"store_retry_attempts": c.StoreRetryAttempts,
		"store_failure_policy": c.StoreFailurePolicy,
		"send_timeout":         c.SendTimeout.String(),
	}
}
