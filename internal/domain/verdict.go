package domain

type DrivingState string

const (
	StateSafe   DrivingState = "Safe"
	StateUnsafe DrivingState = "Unsafe"
)

type EventType string

const (
	EventNone              EventType = "None"
	EventHarshBraking      EventType = "HarshBraking"
	EventRapidAcceleration EventType = "RapidAcceleration"
	EventSharpTurn         EventType = "SharpTurn"
	EventOverspeeding      EventType = "Overspeeding"
)

// UnsafeEvents lists every event type that marks a sample as unsafe, in
// classifier priority order.
var UnsafeEvents = []EventType{
	EventOverspeeding,
	EventHarshBraking,
	EventRapidAcceleration,
	EventSharpTurn,
}

type Severity string

const (
	SeverityNone   Severity = ""
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Verdict is the classifier output for one sample. Severity is set only
// when State is StateUnsafe, and Event is EventNone only when State is StateSafe.
type Verdict struct {
	State    DrivingState `json:"driving_state"`
	Event    EventType    `json:"event_type"`
	Severity Severity     `json:"severity,omitempty"`
}

// SafeVerdict is the verdict for a sample that trips no rule.
func SafeVerdict() Verdict {
	return Verdict{State: StateSafe, Event: EventNone}
}

// UnsafeVerdict builds a verdict for a triggered rule.
func UnsafeVerdict(ev EventType, sev Severity) Verdict {
	return Verdict{State: StateUnsafe, Event: ev, Severity: sev}
}

func (v Verdict) Unsafe() bool { return v.State == StateUnsafe }

func (v Verdict) HasSeverity() bool { return v.Severity != SeverityNone }
