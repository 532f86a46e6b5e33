package driveguard

import (
	"github.com/ghalamif/DriveGuard/internal/adapters/opcua"
	"github.com/ghalamif/DriveGuard/internal/adapters/simulator"
	"github.com/ghalamif/DriveGuard/internal/adapters/thingsboard"
	"github.com/ghalamif/DriveGuard/internal/app/config"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls pacing and which summaries are uploaded.
	Policy = ports.Policy
	// SourceConfig selects and configures the sample source.
	SourceConfig = config.SourceConfig
	// SimulatorConfig tunes the synthetic sample generator.
	SimulatorConfig = simulator.Config
	// OPCUAConfig holds connection + node details for a real sensor feed.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps sample fields to node ids.
	OPCUANodeConfig = opcua.NodeConfig
	// SinkConfig selects the telemetry sink.
	SinkConfig = config.SinkConfig
	// ThingsBoardConfig configures the HTTP telemetry client.
	ThingsBoardConfig = thingsboard.Config
	// TimescaleConfig configures the database sink.
	TimescaleConfig = config.TimescaleConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// ErrMissingCredentials is returned when the telemetry host or token is absent.
var ErrMissingCredentials = config.ErrMissingCredentials

// DefaultConfig returns the stock configuration without credentials.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig loads YAML from disk (plus .env and TB_HOST/TB_TOKEN) using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
