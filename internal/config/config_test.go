package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Playback.Speed != 4 || cfg.Playback.Settle().Milliseconds() != 50 {
		t.Errorf("unexpected playback: %+v", cfg.Playback)
	}
	if cfg.Playback.ReadyPollMs != 100 {
		t.Errorf("defaults should survive partial sections, got %+v", cfg.Playback)
	}
	if cfg.Strategy.BaseURL != "http://localhost:9000" || len(cfg.Strategy.Variants) != 2 || cfg.Strategy.Tool != "find_optimal_pit_window" {
		t.Errorf("unexpected strategy: %+v", cfg.Strategy)
	}
	if cfg.Sinks.Greptime.Host != "greptimedb" || cfg.Sinks.Greptime.Port != 4001 {
		t.Errorf("unexpected greptime: %+v", cfg.Sinks.Greptime)
	}
	if cfg.Log.Format != "json" || cfg.Admin.Addr != "127.0.0.1:9090" {
		t.Errorf("unexpected log/admin: %+v %+v", cfg.Log, cfg.Admin)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := Load("testdata/invalid.yaml"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if len(cfg.Strategy.Variants) != 3 || cfg.Playback.Speed != 1 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("empty file should validate, got %v", err)
	}
}
