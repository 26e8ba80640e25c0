// YAML config loader with CUE validation integration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schema string

// Playback tunes sequencer and headless surface timing.
type Playback struct {
	Speed       float64 `yaml:"speed"`
	SettleMs    int     `yaml:"settle_ms"`
	ReadyPollMs int     `yaml:"ready_poll_ms"`
}

// Settle is the headless surface rest period.
func (p Playback) Settle() time.Duration { return time.Duration(p.SettleMs) * time.Millisecond }

// ReadyPoll is the surface readiness polling interval.
func (p Playback) ReadyPoll() time.Duration { return time.Duration(p.ReadyPollMs) * time.Millisecond }

// Strategy configures the live strategy stream client.
type Strategy struct {
	BaseURL         string   `yaml:"base_url"`
	Tool            string   `yaml:"tool"`
	Variants        []string `yaml:"variants"`
	ClientName      string   `yaml:"client_name"`
	ClientVersion   string   `yaml:"client_version"`
	ProtocolVersion string   `yaml:"protocol_version"`
}

// Greptime is the optional GreptimeDB command sink.
type Greptime struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// Sinks lists where surface commands are recorded.
type Sinks struct {
	CommandLog string   `yaml:"command_log"`
	Greptime   Greptime `yaml:"greptime"`
}

// Admin configures the HTTP control server.
type Admin struct {
	Addr string `yaml:"addr"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root application configuration.
type Config struct {
	Catalogue string   `yaml:"catalogue"`
	Playback  Playback `yaml:"playback"`
	Strategy  Strategy `yaml:"strategy"`
	Sinks     Sinks    `yaml:"sinks"`
	Admin     Admin    `yaml:"admin"`
	Log       Log      `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Playback: Playback{Speed: 1, SettleMs: 300, ReadyPollMs: 100},
		Strategy: Strategy{
			BaseURL:         "https://monte-carlo-mcp-server-684569726907.us-central1.run.app",
			Tool:            "find_optimal_pit_window",
			Variants:        []string{"1-stop", "2-stop", "3-stop"},
			ClientName:      "map3d-scenarios",
			ClientVersion:   "1.0",
			ProtocolVersion: "2024-11-05",
		},
		Sinks: Sinks{Greptime: Greptime{Port: 4001, Database: "public", Table: "camera_commands"}},
		Admin: Admin{Addr: ":8080"},
		Log:   Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config, validates it against the embedded CUE schema and
// overlays it on Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := ValidateYAML(data, schema, "#Config"); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
