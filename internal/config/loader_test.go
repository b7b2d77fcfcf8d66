package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

var venueVariables = []string{
	"VENUE_CONFIG_FILE",
	"VENUE_HTTP_ADDR",
	"VENUE_DB_PATH",
	"VENUE_LOG_LEVEL",
	"VENUE_TIMEZONE",
	"VENUE_SEARCH_STEP",
	"VENUE_SEARCH_STEPS",
	"VENUE_GRID_START",
	"VENUE_GRID_END",
	"VENUE_ALLOWED_DURATIONS",
	"VENUE_KAFKA_BROKERS",
	"VENUE_KAFKA_TOPIC",
	"VENUE_RELAY_CRON",
	"VENUE_IDEMPOTENCY_TTL",
}

// clearEnvironment blanks every variable Load reads; empty values count as unset.
func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, key := range venueVariables {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnvironment(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPAddr != ":8080" {
			t.Fatalf("expected default address :8080, got %q", cfg.HTTPAddr)
		}
		if cfg.SQLitePath != "venue.db" {
			t.Fatalf("unexpected default database path: %q", cfg.SQLitePath)
		}
		if cfg.Location != time.UTC {
			t.Fatalf("expected UTC location, got %v", cfg.Location)
		}
		search := cfg.SearchPolicy()
		if search.Step != 30*time.Minute || search.Steps != 16 {
			t.Fatalf("unexpected search policy: %+v", search)
		}
		if cfg.Kafka.Enabled() {
			t.Fatalf("expected kafka relay to be disabled by default")
		}
		if cfg.Level() != slog.LevelInfo {
			t.Fatalf("expected info level, got %s", cfg.Level())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("VENUE_HTTP_ADDR", "127.0.0.1:9090")
		t.Setenv("VENUE_DB_PATH", "/tmp/venue.db")
		t.Setenv("VENUE_SEARCH_STEP", "15m")
		t.Setenv("VENUE_SEARCH_STEPS", "8")
		t.Setenv("VENUE_ALLOWED_DURATIONS", "30, 60")
		t.Setenv("VENUE_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
		t.Setenv("VENUE_IDEMPOTENCY_TTL", "1h")
		t.Setenv("VENUE_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPAddr != "127.0.0.1:9090" || cfg.SQLitePath != "/tmp/venue.db" {
			t.Fatalf("unexpected address or path: %q %q", cfg.HTTPAddr, cfg.SQLitePath)
		}
		if cfg.SearchPolicy().Horizon() != 2*time.Hour {
			t.Fatalf("expected two hour horizon, got %s", cfg.SearchPolicy().Horizon())
		}
		if len(cfg.Policy.AllowedDurations) != 2 || cfg.Policy.AllowedDurations[1] != 60 {
			t.Fatalf("unexpected durations: %v", cfg.Policy.AllowedDurations)
		}
		if len(cfg.Kafka.Brokers) != 2 || !cfg.Kafka.Enabled() {
			t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
		}
		if cfg.IdempotencyTTL != time.Hour {
			t.Fatalf("expected idempotency TTL 1h, got %s", cfg.IdempotencyTTL)
		}
		if cfg.Level() != slog.LevelDebug {
			t.Fatalf("expected debug level, got %s", cfg.Level())
		}
	})

	t.Run("reports invalid values", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("VENUE_SEARCH_STEPS", "-1")
		t.Setenv("VENUE_TIMEZONE", "Nowhere/Special")
		t.Setenv("VENUE_GRID_START", "21:00")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"VENUE_SEARCH_STEPS", "VENUE_TIMEZONE", "VENUE_GRID_START"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error %q", key, err.Error())
			}
		}
	})
}

func TestLoader_ConfigFile(t *testing.T) {

	t.Run("file values are overridden by the environment", func(t *testing.T) {
		clearEnvironment(t)
		path := filepath.Join(t.TempDir(), "venue.yaml")
		content := `
http_addr: ":7000"
policy:
  timezone: Asia/Riyadh
  search_step: 1h
  search_steps: 4
  day_start: "07:00"
  day_end: "22:00"
  slot_length: 30m
kafka:
  brokers: ["kafka:9092"]
  topic: bookings
  relay_cron: "@every 1m"
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Setenv("VENUE_CONFIG_FILE", path)
		t.Setenv("VENUE_HTTP_ADDR", ":7001")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPAddr != ":7001" {
			t.Fatalf("expected environment to win, got %q", cfg.HTTPAddr)
		}
		if cfg.Location == nil || cfg.Location.String() != "Asia/Riyadh" {
			t.Fatalf("unexpected location %v", cfg.Location)
		}
		if cfg.SearchPolicy().Horizon() != 4*time.Hour {
			t.Fatalf("expected four hour horizon, got %s", cfg.SearchPolicy().Horizon())
		}
		if cfg.GridLayout().DayStart != "07:00" {
			t.Fatalf("unexpected grid start %q", cfg.GridLayout().DayStart)
		}
		if cfg.Kafka.Topic != "bookings" || cfg.Kafka.RelayCron != "@every 1m" {
			t.Fatalf("unexpected kafka config %+v", cfg.Kafka)
		}
		if len(cfg.Policy.AllowedDurations) != 4 {
			t.Fatalf("expected default durations to survive, got %v", cfg.Policy.AllowedDurations)
		}
	})

	t.Run("brokers without topic are rejected", func(t *testing.T) {
		clearEnvironment(t)
		path := filepath.Join(t.TempDir(), "venue.yaml")
		if err := os.WriteFile(path, []byte("kafka:\n  brokers: [\"kafka:9092\"]\n  topic: \"\"\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Setenv("VENUE_CONFIG_FILE", path)

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "VENUE_KAFKA_TOPIC") {
			t.Fatalf("expected missing topic error, got %v", err)
		}
	})

	t.Run("empty duration list is rejected", func(t *testing.T) {
		clearEnvironment(t)
		path := filepath.Join(t.TempDir(), "venue.yaml")
		if err := os.WriteFile(path, []byte("policy:\n  allowed_durations: []\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Setenv("VENUE_CONFIG_FILE", path)

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "VENUE_ALLOWED_DURATIONS") {
			t.Fatalf("expected invalid durations error, got %v", err)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv("VENUE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})
}
