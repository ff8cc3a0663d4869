// Package config centralises configuration parsing for runlog.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"example.com/runlog/internal/domain"
)

// PathEnvVar overrides the config file location when --config is not given.
const PathEnvVar = "RUNLOG_CONFIG"


// DefaultPaths are probed in order when no explicit config file is supplied.
var DefaultPaths = []string{"runlog.yaml", "runlog.yml"}

// Config captures runtime configuration values for runlog.
type Config struct {
	CredentialsPath string         `koanf:"credentials_path"`
	Timezone        string         `koanf:"timezone"`
	Postgres        PostgresConfig `koanf:"postgres"`
	Strava          StravaConfig   `koanf:"strava"`
	Sync            SyncConfig     `koanf:"sync"`
	HTTP            HTTPConfig     `koanf:"http"`
	Auth            AuthConfig     `koanf:"auth"`
	Kafka           KafkaConfig    `koanf:"kafka"`
	Logging         LoggingConfig  `koanf:"logging"`
}

// PostgresConfig selects the database. An empty URL means the DSN is built from the
// "postgres" section of the credential file.
type PostgresConfig struct {
	URL   string `koanf:"url"`
	Table string `koanf:"table"`
}

// StravaConfig tunes the activity API client.
type StravaConfig struct {
	BaseURL           string        `koanf:"base_url"`
	TokenURL          string        `koanf:"token_url"`
	PerPage           int           `koanf:"per_page"`
	MaxPages          int           `koanf:"max_pages"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerWindow int           `koanf:"requests_per_window"`
	Window            time.Duration `koanf:"window"`
}

// SyncConfig holds incremental sync settings.
type SyncConfig struct {
	DefaultStart string `koanf:"default_start"` // used when the table is empty and no manual start is given
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Address      string        `koanf:"address"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// AuthConfig holds bearer-token validation parameters for the API.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	JWTIssuer string `koanf:"jwt_issuer"`
}

// KafkaConfig enables sync event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		CredentialsPath: "credentials.json",
		Timezone:        "UTC",
		Postgres: PostgresConfig{
			Table: "runs",
		},
		Strava: StravaConfig{
			BaseURL:           "https://www.strava.com/api/v3",
			TokenURL:          "https://www.strava.com/oauth/token",
			PerPage:           200,
			MaxPages:          10,
			Timeout:           30 * time.Second,
			RequestsPerWindow: 100,
			Window:            15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret-change-me",
			JWTIssuer: "runlog",
		},
		Kafka: KafkaConfig{
			Topic: "runlog.sync_completed",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, an optional YAML file and RUNLOG_* environment variables.
// An empty path falls back to RUNLOG_CONFIG and then DefaultPaths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if explicit {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
		} else if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("RUNLOG_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if raw, ok := k.Get("kafka.brokers").(string); ok {
		if err := k.Set("kafka.brokers", splitAndTrim(raw)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envKeys = map[string]string{
	"credentials_path":           "credentials_path",
	"timezone":                   "timezone",
	"postgres_url":               "postgres.url",
	"postgres_table":             "postgres.table",
	"strava_base_url":            "strava.base_url",
	"strava_token_url":           "strava.token_url",
	"strava_per_page":            "strava.per_page",
	"strava_max_pages":           "strava.max_pages",
	"strava_timeout":             "strava.timeout",
	"strava_requests_per_window": "strava.requests_per_window",
	"strava_window":              "strava.window",
	"sync_default_start":         "sync.default_start",
	"http_address":               "http.address",
	"http_read_timeout":          "http.read_timeout",
	"http_write_timeout":         "http.write_timeout",
	"http_idle_timeout":          "http.idle_timeout",
	"jwt_secret":                 "auth.jwt_secret",
	"jwt_issuer":                 "auth.jwt_issuer",
	"kafka_brokers":              "kafka.brokers",
	"kafka_topic":                "kafka.topic",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
}

// envKey maps RUNLOG_POSTGRES_URL to postgres.url. Unknown variables are ignored.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "RUNLOG_"))
	return envKeys[key]
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if strings.TrimSpace(c.Postgres.Table) == "" {
		errs = append(errs, errors.New("postgres.table is required"))
	}
	if c.Strava.PerPage < 1 || c.Strava.PerPage > 200 {
		errs = append(errs, fmt.Errorf("strava.per_page must be within 1..200, got %d", c.Strava.PerPage))
	}
	if c.Strava.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("strava.max_pages must be >= 1, got %d", c.Strava.MaxPages))
	}
	if c.Strava.RequestsPerWindow < 1 || c.Strava.Window <= 0 {
		errs = append(errs, errors.New("strava rate limit requires requests_per_window >= 1 and a positive window"))
	}
	if c.Sync.DefaultStart != "" {
		if _, err := domain.ParseDate(c.Sync.DefaultStart); err != nil {
			errs = append(errs, fmt.Errorf("sync.default_start: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location returns the timezone used to interpret activity wall-clock times.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultStartDate returns the parsed sync.default_start, or nil when unset.
func (c *Config) DefaultStartDate() *time.Time {
	if c.Sync.DefaultStart == "" {
		return nil
	}
	d, err := domain.ParseDate(c.Sync.DefaultStart)
	if err != nil {
		return nil
	}
	return &d
}
