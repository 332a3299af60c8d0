package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trogers1052/stock-tracker/internal/logger"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	Retention  RetentionConfig  `yaml:"retention"`
	Log        logger.Config    `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig selects the store. SQLite needs only a path; PostgreSQL uses
// the connection fields.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	DBName     string `yaml:"dbname"`
	SSLMode    string `yaml:"sslmode"`
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// RedisConfig configures the market data response cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// KafkaConfig holds Kafka configuration. No brokers disables the event bus.
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	QuoteTopic string   `yaml:"quote_topic"`
	GroupID    string   `yaml:"group_id"`
}

// Enabled reports whether any broker is configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Configured reports whether credentials are present
func (s SMTPConfig) Configured() bool {
	return s.Username != "" && s.Password != ""
}

// MarketDataConfig points at the chart API
type MarketDataConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	DefaultPeriod string        `yaml:"default_period"`
}

// AlertsConfig drives scheduled evaluation
type AlertsConfig struct {
	Cron             string `yaml:"cron"`
	DefaultRecipient string `yaml:"default_recipient"`
	HistoryPeriod    string `yaml:"history_period"`
}

// ForecastConfig holds model defaults
type ForecastConfig struct {
	Seed    uint64 `yaml:"seed"`
	Period  string `yaml:"period"`
	MaxDays int    `yaml:"max_days"`
}

// RetentionConfig sets how long cached and historical rows are kept. Zero
// keeps rows forever.
type RetentionConfig struct {
	PriceData    time.Duration `yaml:"price_data"`
	Indicators   time.Duration `yaml:"indicators"`
	AlertHistory time.Duration `yaml:"alert_history"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Host: "0.0.0.0"},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/stock_tracker.db",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Password:   "postgres",
			DBName:     "stocktracker",
			SSLMode:    "disable",
		},
		Redis: RedisConfig{TTL: 5 * time.Minute},
		Kafka: KafkaConfig{
			Topic:      "stock-events",
			QuoteTopic: "stock-quotes",
			GroupID:    "stock-tracker",
		},
		SMTP: SMTPConfig{Host: "smtp.gmail.com", Port: 587},
		MarketData: MarketDataConfig{
			BaseURL:       "https://query1.finance.yahoo.com",
			Timeout:       30 * time.Second,
			DefaultPeriod: "1y",
		},
		Alerts: AlertsConfig{
			Cron:          "0 */5 * * * *",
			HistoryPeriod: "3mo",
		},
		Forecast: ForecastConfig{Seed: 42, Period: "2y", MaxDays: 90},
		Retention: RetentionConfig{
			PriceData:  5 * 365 * 24 * time.Hour,
			Indicators: 2 * 365 * 24 * time.Hour,
		},
		Log: logger.Config{
			Level:      "info",
			Format:     "json",
			Output:     logger.OutputStdout,
			FilePath:   "logs/stock-tracker.log",
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// Load applies defaults, then the YAML file at path (a missing file is fine),
// then environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns CONFIG_PATH or the default location
func Path() string {
	return getEnv("CONFIG_PATH", DefaultPath)
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.QuoteTopic = getEnv("KAFKA_QUOTE_TOPIC", c.Kafka.QuoteTopic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.SMTP.Host = getEnv("SMTP_SERVER", c.SMTP.Host)
	c.SMTP.Username = getEnv("SMTP_USERNAME", c.SMTP.Username)
	c.SMTP.Password = getEnv("SMTP_PASSWORD", c.SMTP.Password)
	c.SMTP.From = getEnv("SMTP_FROM", c.SMTP.From)
	if v := getEnv("SMTP_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.SMTP.Port = port
	}

	c.MarketData.BaseURL = getEnv("MARKET_DATA_URL", c.MarketData.BaseURL)
	c.Alerts.Cron = getEnv("ALERTS_CRON", c.Alerts.Cron)
	c.Alerts.DefaultRecipient = getEnv("ALERTS_DEFAULT_RECIPIENT", c.Alerts.DefaultRecipient)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.Output = getEnv("LOG_OUTPUT", c.Log.Output)
	c.Log.FilePath = getEnv("LOG_FILE", c.Log.FilePath)
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("database.host and database.dbname are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	if c.SMTP.Configured() && (c.SMTP.Host == "" || c.SMTP.Port <= 0) {
		return fmt.Errorf("smtp.host and smtp.port are required when credentials are set")
	}
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("market_data.base_url is required")
	}
	if c.Alerts.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Alerts.Cron); err != nil {
			return fmt.Errorf("invalid alerts.cron: %w", err)
		}
	}
	if c.Retention.PriceData < 0 || c.Retention.Indicators < 0 || c.Retention.AlertHistory < 0 {
		return fmt.Errorf("retention windows must not be negative")
	}
	if c.Forecast.MaxDays <= 0 {
		return fmt.Errorf("forecast.max_days must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
