package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// Config captures the settings of the venue service.
type Config struct {
	HTTPAddr   string `yaml:"http_addr"`
	SQLitePath string `yaml:"database"`
	LogLevel   string `yaml:"log_level"`

	Policy PolicyConfig `yaml:"policy"`
	Kafka  KafkaConfig  `yaml:"kafka"`

	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`

	// Location is resolved from Policy.Timezone by Load.
	Location *time.Location `yaml:"-"`
}

// PolicyConfig holds the scheduling rules of the venue.
type PolicyConfig struct {
	Timezone         string        `yaml:"timezone"`
	SearchStep       time.Duration `yaml:"search_step"`
	SearchSteps      int           `yaml:"search_steps"`
	DayStart         string        `yaml:"day_start"`
	DayEnd           string        `yaml:"day_end"`
	SlotLength       time.Duration `yaml:"slot_length"`
	AllowedDurations []int         `yaml:"allowed_durations"`
}

// KafkaConfig enables the notification relay when Brokers is not empty.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	RelayCron string   `yaml:"relay_cron"`
}

// Enabled reports whether notifications should be relayed to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPAddr:   ":8080",
		SQLitePath: "venue.db",
		LogLevel:   "info",
		Policy: PolicyConfig{
			Timezone:         "UTC",
			SearchStep:       30 * time.Minute,
			SearchSteps:      16,
			DayStart:         "08:00",
			DayEnd:           "20:00",
			SlotLength:       30 * time.Minute,
			AllowedDurations: []int{30, 45, 60, 90},
		},
		Kafka: KafkaConfig{
			Topic:     "venue-notifications",
			RelayCron: "@every 30s",
		},
		IdempotencyTTL: 10 * time.Minute,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by VENUE_CONFIG_FILE and VENUE_* environment variables, in that order of
// precedence from lowest to highest. A .env file in the working directory is
// loaded first without overriding variables already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("VENUE_CONFIG_FILE")); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if addr := strings.TrimSpace(os.Getenv("VENUE_HTTP_ADDR")); addr != "" {
		cfg.HTTPAddr = addr
	}
	if path := strings.TrimSpace(os.Getenv("VENUE_DB_PATH")); path != "" {
		cfg.SQLitePath = path
	}
	if level := strings.TrimSpace(os.Getenv("VENUE_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	if tz := strings.TrimSpace(os.Getenv("VENUE_TIMEZONE")); tz != "" {
		cfg.Policy.Timezone = tz
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_SEARCH_STEP")); value != "" {
		step, err := time.ParseDuration(value)
		if err != nil || step <= 0 {
			invalid = append(invalid, "VENUE_SEARCH_STEP")
		} else {
			cfg.Policy.SearchStep = step
		}
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_SEARCH_STEPS")); value != "" {
		steps, err := strconv.Atoi(value)
		if err != nil || steps <= 0 {
			invalid = append(invalid, "VENUE_SEARCH_STEPS")
		} else {
			cfg.Policy.SearchSteps = steps
		}
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_GRID_START")); value != "" {
		cfg.Policy.DayStart = value
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_GRID_END")); value != "" {
		cfg.Policy.DayEnd = value
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_ALLOWED_DURATIONS")); value != "" {
		durations, err := parseInts(value)
		if err != nil {
			invalid = append(invalid, "VENUE_ALLOWED_DURATIONS")
		} else {
			cfg.Policy.AllowedDurations = durations
		}
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_KAFKA_BROKERS")); value != "" {
		cfg.Kafka.Brokers = splitList(value)
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_KAFKA_TOPIC")); value != "" {
		cfg.Kafka.Topic = value
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_RELAY_CRON")); value != "" {
		cfg.Kafka.RelayCron = value
	}
	if value := strings.TrimSpace(os.Getenv("VENUE_IDEMPOTENCY_TTL")); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "VENUE_IDEMPOTENCY_TTL")
		} else {
			cfg.IdempotencyTTL = ttl
		}
	}

	if cfg.Kafka.Enabled() && cfg.Kafka.Topic == "" {
		missing = append(missing, "VENUE_KAFKA_TOPIC")
	}

	location, err := time.LoadLocation(cfg.Policy.Timezone)
	if err != nil {
		invalid = append(invalid, "VENUE_TIMEZONE")
	}
	cfg.Location = location

	if _, _, err := cfg.GridLayout().Bounds(); err != nil {
		invalid = append(invalid, "VENUE_GRID_START", "VENUE_GRID_END")
	}
	if len(cfg.Policy.AllowedDurations) == 0 {
		invalid = append(invalid, "VENUE_ALLOWED_DURATIONS")
	}
	for _, minutes := range cfg.Policy.AllowedDurations {
		if minutes <= 0 {
			invalid = append(invalid, "VENUE_ALLOWED_DURATIONS")
			break
		}
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "VENUE_LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// SearchPolicy returns the forward slot search bounds.
func (c Config) SearchPolicy() scheduler.SearchPolicy {
	return scheduler.SearchPolicy{Step: c.Policy.SearchStep, Steps: c.Policy.SearchSteps}
}

// GridLayout returns the time axis of the schedule grid.
func (c Config) GridLayout() scheduler.GridLayout {
	return scheduler.GridLayout{DayStart: c.Policy.DayStart, DayEnd: c.Policy.DayEnd, Slot: c.Policy.SlotLength}
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func parseInts(value string) ([]int, error) {
	parts := splitList(value)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
