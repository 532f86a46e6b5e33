package driveguard

import (
	"github.com/ghalamif/DriveGuard/internal/app/delivery"
	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// Sample is one motion reading: accelerations in m/s^2, yaw rate in deg/s,
// speed in km/h, position in degrees and an ISO-8601 UTC timestamp.
type Sample = domain.Sample

// Thresholds are the classifier limits.
type Thresholds = domain.Thresholds

// Verdict is the classifier output for one sample.
type Verdict = domain.Verdict

// Summary is the telemetry payload sent to the collector.
type Summary = domain.Summary

// DeliveryOutcome reports how a delivery ended.
type DeliveryOutcome = domain.DeliveryOutcome

type (
	DrivingState = domain.DrivingState
	EventType    = domain.EventType
	Severity     = domain.Severity
)

// SampleSource yields samples for the pipeline (simulator, OPC UA, CAN bridges, replay files, etc.).
type SampleSource = ports.SampleSource

// TelemetrySink ships summaries to any downstream system.
type TelemetrySink = ports.TelemetrySink

// Observability emits logs and metrics about classification and delivery.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Sleeper paces the loop and delivery retries; swap it to run without real delays.
type Sleeper = delivery.Sleeper
