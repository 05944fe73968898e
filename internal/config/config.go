package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingDatabaseURL = errors.New("config: PROCESS_PAYMENT_DATABASE_URL is required")
	ErrMissingGatewayKey  = errors.New("config: GATEWAY_API_KEY is required")
)

// Config is everything a settlement invocation needs from its environment.
type Config struct {
	Service string   `mapstructure:"service"`
	Env     string   `mapstructure:"env"`
	Log     Log      `mapstructure:"log"`
	DB      Database `mapstructure:"database"`
	Gateway Gateway  `mapstructure:"gateway"`
	Metrics Metrics  `mapstructure:"metrics"`
	Lock    Lock     `mapstructure:"lock"`
	Events  Events   `mapstructure:"events"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Database struct {
	URL              string        `mapstructure:"url"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

type Gateway struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	PostbackURL string        `mapstructure:"postback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Metrics are pushed at exit; an empty URL disables pushing.
type Metrics struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// Lock is optional; without a Redis URL runs are not serialized.
type Lock struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Events is optional; without brokers no settlement event is published.
type Events struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"service":                    "SERVICE_NAME",
	"env":                        "ENV",
	"log.level":                  "LOG_LEVEL",
	"log.file":                   "LOG_FILE",
	"database.url":               "PROCESS_PAYMENT_DATABASE_URL",
	"database.statement_timeout": "STATEMENT_TIMEOUT",
	"gateway.api_key":            "GATEWAY_API_KEY",
	"gateway.base_url":           "GATEWAY_BASE_URL",
	"gateway.postback_url":       "POSTBACK_URL",
	"gateway.timeout":            "GATEWAY_TIMEOUT",
	"metrics.pushgateway_url":    "PUSHGATEWAY_URL",
	"lock.redis_url":             "REDIS_URL",
	"lock.ttl":                   "SETTLEMENT_LOCK_TTL",
	"events.brokers":             "KAFKA_BROKERS",
	"events.topic":               "KAFKA_TOPIC",
}

// durationKeys take either a Go duration ("5s") or bare milliseconds ("5000"),
// the unit Postgres uses for statement_timeout.
var durationKeys = []string{"database.statement_timeout", "gateway.timeout", "lock.ttl"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service", "payment-settler")
	v.SetDefault("env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.statement_timeout", 5*time.Second)
	v.SetDefault("gateway.base_url", "https://api.pagar.me/1")
	v.SetDefault("gateway.timeout", 60*time.Second)
	v.SetDefault("lock.ttl", 2*time.Minute)
	v.SetDefault("events.topic", "payment.settled")
}

// Load reads the environment, overlaid on an optional YAML file. Environment
// variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	for _, key := range durationKeys {
		raw := strings.TrimSpace(v.GetString(key))
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
			v.Set(key, raw+"ms")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Events.Brokers = splitList(cfg.Events.Brokers)
	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB.URL) == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if strings.TrimSpace(c.Gateway.APIKey) == "" {
		errs = append(errs, ErrMissingGatewayKey)
	}
	if c.DB.StatementTimeout < 0 || c.Gateway.Timeout < 0 || c.Lock.TTL < 0 {
		errs = append(errs, errors.New("config: timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// splitList flattens "a, b" style entries coming from a single env var.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
