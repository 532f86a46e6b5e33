package driveguard

import (
	base "github.com/ghalamif/DriveGuard/pkg/driveguard"
)

// Re-exported errors for convenience.
var (
	ErrMissingCredentials = base.ErrMissingCredentials
	ErrInvalidState       = base.ErrInvalidState
	ErrChannelSinkClosed  = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/ghalamif/DriveGuard directly.
type (
	Config            = base.Config
	Policy            = base.Policy
	SourceConfig      = base.SourceConfig
	SimulatorConfig   = base.SimulatorConfig
	OPCUAConfig       = base.OPCUAConfig
	OPCUANodeConfig   = base.OPCUANodeConfig
	SinkConfig        = base.SinkConfig
	ThingsBoardConfig = base.ThingsBoardConfig
	TimescaleConfig   = base.TimescaleConfig
	MetricsConfig     = base.MetricsConfig
	Flow              = base.Flow
	FlowOption        = base.FlowOption
	StreamInOption    = base.StreamInOption
	StreamOutOption   = base.StreamOutOption
	Runtime           = base.Runtime
	RuntimeOption     = base.RuntimeOption
	Sample            = base.Sample
	Thresholds        = base.Thresholds
	Verdict           = base.Verdict
	Summary           = base.Summary
	DeliveryOutcome   = base.DeliveryOutcome
	SummaryHandler    = base.SummaryHandler
	SampleSource      = base.SampleSource
	TelemetrySink     = base.TelemetrySink
	Observability     = base.Observability
	Field             = base.Field
	Sleeper           = base.Sleeper
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() Config {
	return base.DefaultConfig()
}

// Classification helpers.
func DefaultThresholds() Thresholds {
	return base.DefaultThresholds()
}

func Classify(s Sample, t Thresholds) Verdict {
	return base.Classify(s, t)
}

func BuildEventSummary(s Sample, v Verdict) (Summary, error) {
	return base.BuildEventSummary(s, v)
}

func BuildNormalSummary(s Sample) Summary {
	return base.BuildNormalSummary(s)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSource(src SampleSource) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInSleeper(s Sleeper) StreamInOption {
	return base.StreamInSleeper(s)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s TelemetrySink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn SummaryHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithSource(src SampleSource) RuntimeOption {
	return base.WithSource(src)
}

func WithSink(s TelemetrySink) RuntimeOption {
	return base.WithSink(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithSleeper(s Sleeper) RuntimeOption {
	return base.WithSleeper(s)
}

// Sink adapters.
func NewCallbackSink(name string, fn SummaryHandler) TelemetrySink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (TelemetrySink, <-chan Summary, func()) {
	return base.NewChannelSink(name, buffer)
}
