package domain

import "time"

// TimestampLayout renders sample timestamps as ISO-8601 UTC with second
// precision and an explicit +00:00 offset.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Sample is one motion reading taken from the vehicle on a single tick.
type Sample struct {
	AxMS2     float64 `json:"ax_ms2"`
	AyMS2     float64 `json:"ay_ms2"`
	GzDPS     float64 `json:"gz_dps"`
	SpeedKmh  float64 `json:"speed_kmh"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

// FormatTimestamp converts t to the wire representation used by Sample.Timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// Thresholds are the limits the classifier compares samples against.
type Thresholds struct {
	HarshBrakingAx float64 `yaml:"harsh_braking_ax"` // m/s^2, negative
	RapidAccelAx   float64 `yaml:"rapid_accel_ax"`   // m/s^2
	SharpTurnAy    float64 `yaml:"sharp_turn_ay"`    // m/s^2, magnitude
	SharpTurnGz    float64 `yaml:"sharp_turn_gz"`    // deg/s, magnitude
	OverspeedKmh   float64 `yaml:"overspeed_kmh"`
}

// DefaultThresholds returns starting points tuned for the simulator.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HarshBrakingAx: -3.5,
		RapidAccelAx:   3.0,
		SharpTurnAy:    3.0,
		SharpTurnGz:    35.0,
		OverspeedKmh:   90.0,
	}
}
