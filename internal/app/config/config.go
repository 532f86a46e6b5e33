package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ghalamif/DriveGuard/internal/adapters/opcua"
	"github.com/ghalamif/DriveGuard/internal/adapters/simulator"
	"github.com/ghalamif/DriveGuard/internal/adapters/thingsboard"
	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// ErrMissingCredentials is returned when the telemetry host or device token
// is not configured.
var ErrMissingCredentials = errors.New(
	"missing TB_HOST/TB_TOKEN: set thingsboard.host and thingsboard.device_token in the config file, " +
		"or create a .env file with TB_HOST=https://thingsboard.cloud and TB_TOKEN=<your device token>")

const (
	SourceSimulator = "simulator"
	SourceOPCUA     = "opcua"

	SinkThingsBoard = "thingsboard"
	SinkTimescale   = "timescale"

	EnvHost  = "TB_HOST"
	EnvToken = "TB_TOKEN"
)

type Config struct {
	Thresholds  domain.Thresholds  `yaml:"thresholds"`
	Policy      ports.Policy       `yaml:"policy"`
	Source      SourceConfig       `yaml:"source"`
	Sink        SinkConfig         `yaml:"sink"`
	ThingsBoard thingsboard.Config `yaml:"thingsboard"`
	Timescale   TimescaleConfig    `yaml:"timescale"`
	Metrics     MetricsConfig      `yaml:"metrics"`
}

type SourceConfig struct {
	Kind      string           `yaml:"kind"`
	Simulator simulator.Config `yaml:"simulator"`
	OPCUA     opcua.Config     `yaml:"opcua"`
}

type SinkConfig struct {
	Kind string `yaml:"kind"`
}

type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Disabled bool   `yaml:"disabled"`
}

// Default returns a configuration that runs the simulator against
// ThingsBoard; only the credentials are left empty.
func Default() Config {
	cfg := Config{
		Thresholds: domain.DefaultThresholds(),
		Source: SourceConfig{
			Kind:      SourceSimulator,
			Simulator: simulator.DefaultConfig(),
		},
		ThingsBoard: thingsboard.Config{Backoff: time.Second},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path loads defaults plus
// environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		c.ThingsBoard.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.ThingsBoard.DeviceToken = v
	}
}

func (c *Config) applyDefaults() {
	if c.Policy.SampleInterval == 0 {
		c.Policy.SampleInterval = time.Second
	}
	if c.Policy.Upload == "" {
		c.Policy.Upload = ports.UploadAll
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceSimulator
	}
	if c.Sink.Kind == "" {
		c.Sink.Kind = SinkThingsBoard
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "driving_events"
	}

	c.ThingsBoard.ApplyDefaults()
	if c.Source.Kind == SourceOPCUA {
		c.Source.OPCUA.ApplyDefaults()
	}
}

// Validate reports the first invalid setting, naming its key.
func (c *Config) Validate() error {
	if err := validateThresholds(c.Thresholds); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if c.Policy.SampleInterval < 0 {
		return fmt.Errorf("policy.sample_interval must be >= 0")
	}
	if c.Policy.Upload != ports.UploadAll && c.Policy.Upload != ports.UploadUnsafe {
		return fmt.Errorf("policy.upload must be %q or %q, got %q", ports.UploadAll, ports.UploadUnsafe, c.Policy.Upload)
	}
	if c.Policy.MaxSamples < 0 {
		return fmt.Errorf("policy.max_samples must be >= 0")
	}

	switch c.Source.Kind {
	case SourceSimulator:
		if err := c.Source.Simulator.Validate(); err != nil {
			return fmt.Errorf("source.simulator: %w", err)
		}
	case SourceOPCUA:
		if err := c.Source.OPCUA.Validate(); err != nil {
			return fmt.Errorf("source.opcua: %w", err)
		}
	default:
		return fmt.Errorf("source.kind %q is not supported", c.Source.Kind)
	}

	switch c.Sink.Kind {
	case SinkThingsBoard:
		if err := c.ThingsBoard.Validate(); err != nil {
			if errors.Is(err, thingsboard.ErrMissingEndpoint) {
				return ErrMissingCredentials
			}
			return fmt.Errorf("thingsboard: %w", err)
		}
	case SinkTimescale:
		if c.Timescale.ConnString == "" {
			return fmt.Errorf("timescale.conn_string is required")
		}
	default:
		return fmt.Errorf("sink.kind %q is not supported", c.Sink.Kind)
	}

	if !c.Metrics.Disabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}

func validateThresholds(t domain.Thresholds) error {
	if t.HarshBrakingAx >= 0 {
		return fmt.Errorf("harsh_braking_ax must be negative, got %v", t.HarshBrakingAx)
	}
	if t.RapidAccelAx <= 0 {
		return fmt.Errorf("rapid_accel_ax must be positive, got %v", t.RapidAccelAx)
	}
	if t.SharpTurnAy <= 0 {
		return fmt.Errorf("sharp_turn_ay must be positive, got %v", t.SharpTurnAy)
	}
	if t.SharpTurnGz <= 0 {
		return fmt.Errorf("sharp_turn_gz must be positive, got %v", t.SharpTurnGz)
	}
	if t.OverspeedKmh <= 0 {
		return fmt.Errorf("overspeed_kmh must be positive, got %v", t.OverspeedKmh)
	}
	return nil
}
