package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
environment: development
server:
  port: 8080
backend:
  type: clickhouse
clickhouse:
  host: localhost
  port: 9000
  database: powercast
backtest:
  step_length: 12
  frac: 0.5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("environment = %q", cfg.Environment)
	}
	if cfg.Backtest.StepLength != 12 || cfg.Backtest.Frac != 0.5 {
		t.Fatalf("backtest = %+v", cfg.Backtest)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: production\nbackend:\n  type: carrier-pigeon\n"))
	if err == nil {
		t.Fatalf("expected backend validation error")
	}
}

func TestLoadRejectsFracOutOfRange(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: production\nbackend:\n  type: kafka\nbacktest:\n  frac: 1.5\n"))
	if err == nil {
		t.Fatalf("expected frac validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	cfg, err := LoadWithEnv(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Type != "kafka" {
		t.Fatalf("backend = %q", cfg.Backend.Type)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestBacktestDefaults(t *testing.T) {
	var cfg Config
	cfg.BacktestDefaults()
	if cfg.Backtest.StepLength != 24 || cfg.Backtest.Horizon != 24 {
		t.Fatalf("defaults = %+v", cfg.Backtest)
	}
	if cfg.Backtest.Frac != 1 || cfg.Backtest.Seed != 42 {
		t.Fatalf("defaults = %+v", cfg.Backtest)
	}
}
