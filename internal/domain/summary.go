package domain

// Summary is the compact record shipped to the remote collector. Its JSON
// encoding is the telemetry payload.
type Summary struct {
	EventType     string  `json:"event_type"`
	SeverityLevel string  `json:"severity_level"`
	SpeedKmh      float64 `json:"speed_kmh"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timestamp     string  `json:"timestamp"`
}

// DeliveryOutcome reports how a delivery attempt sequence ended.
type DeliveryOutcome struct {
	Success  bool
	Status   int // last HTTP status seen; 0 when no response was received
	Message  string
	Attempts int
}
