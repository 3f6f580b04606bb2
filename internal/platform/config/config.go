// Package config loads process configuration from an optional YAML file,
// environment overrides and defaults, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CUSTODIAN_CONFIG is unset; a missing default file is not an error.
const DefaultPath = "custodian.yaml"

// Config is the full process configuration.
type Config struct {
	Server    Server          `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Slack     SlackConfig     `yaml:"slack"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Outbox    OutboxConfig    `yaml:"outbox"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	Environment     string        `yaml:"environment"`
	LogLevel        string        `yaml:"log_level"`
	AdminToken      string        `yaml:"admin_token"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// SeedDemoData fills the in-memory store with demo accounts. Ignored with a database.
	SeedDemoData bool `yaml:"seed_demo_data"`
}

// DatabaseConfig selects PostgreSQL storage when URL is set; in-memory otherwise.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig persists the automation mode when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ModeKey      string        `yaml:"mode_key"`
}

// KafkaConfig enables the outbox relay when Brokers is set.
type KafkaConfig struct {
	Brokers         string        `yaml:"brokers"`
	Topic           string        `yaml:"topic"`
	Acks            string        `yaml:"acks"`
	Retries         int           `yaml:"retries"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
}

// SMTPConfig enables real email delivery when Host is set.
// Without it notifications are logged and reported as delivered.
type SMTPConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SlackConfig mirrors lifecycle notifications to an operations channel.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// LifecycleConfig tunes classification and policy.
type LifecycleConfig struct {
	Schedule          string        `yaml:"schedule"`
	InitialMode       string        `yaml:"initial_mode"`
	AccuracyThreshold float64       `yaml:"accuracy_threshold"`
	DeletionGrace     time.Duration `yaml:"deletion_grace"`
	AccuracyGrace     time.Duration `yaml:"accuracy_grace"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	// PortalURL is linked from notification emails.
	PortalURL string `yaml:"portal_url"`
}

// OutboxConfig tunes the relay worker.
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	Retention    time.Duration `yaml:"retention"`
}

// Load reads the YAML file (if any), applies environment overrides and
// defaults, then validates.
func Load() (Config, error) {
	var cfg Config

	path := DefaultPath
	explicit := false
	if envPath := os.Getenv("CUSTODIAN_CONFIG"); envPath != "" {
		path = envPath
		explicit = true
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.Server.Addr, "CUSTODIAN_ADDR")
	envOverride(&cfg.Server.Environment, "ENVIRONMENT")
	envOverride(&cfg.Server.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.Server.AdminToken, "ADMIN_API_TOKEN")
	envOverride(&cfg.Database.URL, "DATABASE_URL")
	envOverride(&cfg.Redis.URL, "REDIS_URL")
	envOverride(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	envOverride(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	envOverride(&cfg.SMTP.Host, "SMTP_HOST")
	envOverride(&cfg.SMTP.Username, "SMTP_USERNAME")
	envOverride(&cfg.SMTP.Password, "SMTP_PASSWORD")
	envOverride(&cfg.SMTP.From, "SMTP_FROM")
	envOverride(&cfg.Slack.BotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.Slack.ChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.Lifecycle.Schedule, "LIFECYCLE_SCHEDULE")
	envOverride(&cfg.Lifecycle.InitialMode, "AUTOMATION_MODE")
	envOverride(&cfg.Lifecycle.PortalURL, "PORTAL_URL")

	return errors.Join(
		envOverrideBool(&cfg.Server.SeedDemoData, "SEED_DEMO_DATA"),
		envOverrideInt(&cfg.SMTP.Port, "SMTP_PORT"),
		envOverrideFloat(&cfg.Lifecycle.AccuracyThreshold, "ACCURACY_THRESHOLD"),
		envOverrideDuration(&cfg.Lifecycle.DeletionGrace, "DELETION_GRACE"),
		envOverrideDuration(&cfg.Lifecycle.AccuracyGrace, "ACCURACY_GRACE"),
		envOverrideDuration(&cfg.Outbox.PollInterval, "OUTBOX_POLL_INTERVAL"),
	)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.ModeKey == "" {
		cfg.Redis.ModeKey = "custodian:automation:mode"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "custodian.lifecycle.events"
	}
	if cfg.Kafka.Acks == "" {
		cfg.Kafka.Acks = "all"
	}
	if cfg.Kafka.Retries == 0 {
		cfg.Kafka.Retries = 3
	}
	if cfg.Kafka.DeliveryTimeout == 0 {
		cfg.Kafka.DeliveryTimeout = 30 * time.Second
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.Timeout == 0 {
		cfg.SMTP.Timeout = 10 * time.Second
	}
	if cfg.Lifecycle.Schedule == "" {
		cfg.Lifecycle.Schedule = "@every 1h"
	}
	if cfg.Lifecycle.InitialMode == "" {
		cfg.Lifecycle.InitialMode = "manual"
	}
	if cfg.Lifecycle.AccuracyThreshold == 0 {
		cfg.Lifecycle.AccuracyThreshold = 0.65
	}
	if cfg.Lifecycle.DeletionGrace == 0 {
		cfg.Lifecycle.DeletionGrace = 7 * 24 * time.Hour
	}
	if cfg.Lifecycle.AccuracyGrace == 0 {
		cfg.Lifecycle.AccuracyGrace = 30 * 24 * time.Hour
	}
	if cfg.Lifecycle.RunTimeout == 0 {
		cfg.Lifecycle.RunTimeout = 10 * time.Minute
	}
	if cfg.Outbox.PollInterval == 0 {
		cfg.Outbox.PollInterval = time.Second
	}
	if cfg.Outbox.Retention == 0 {
		cfg.Outbox.Retention = 7 * 24 * time.Hour
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 100
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Lifecycle.AccuracyThreshold <= 0 || c.Lifecycle.AccuracyThreshold > 1 {
		errs = append(errs, fmt.Errorf("lifecycle.accuracy_threshold must be in (0, 1], got %v", c.Lifecycle.AccuracyThreshold))
	}
	if c.Lifecycle.DeletionGrace < 0 || c.Lifecycle.AccuracyGrace < 0 {
		errs = append(errs, errors.New("lifecycle grace periods must not be negative"))
	}
	if _, err := cron.ParseStandard(c.Lifecycle.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("lifecycle.schedule %q: %w", c.Lifecycle.Schedule, err))
	}
	switch strings.ToLower(c.Lifecycle.InitialMode) {
	case "manual", "automated":
	default:
		errs = append(errs, fmt.Errorf("lifecycle.initial_mode must be manual or automated, got %q", c.Lifecycle.InitialMode))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("smtp.from is required when smtp.host is set"))
	}
	if (c.Slack.BotToken == "") != (c.Slack.ChannelID == "") {
		errs = append(errs, errors.New("slack.bot_token and slack.channel_id must be set together"))
	}
	if c.Outbox.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("outbox.batch_size must be >= 1, got %d", c.Outbox.BatchSize))
	}
	return errors.Join(errs...)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}

func envOverrideDuration(field *time.Duration, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}

func envOverrideBool(field *bool, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
	}
	*field = parsed
	return nil
}
