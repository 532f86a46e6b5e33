package summary

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

func TestBuildEventSummaryRounds(t *testing.T) {
	s := domain.Sample{
		AxMS2:     -5,
		SpeedKmh:  55.4567,
		Latitude:  3.139012345,
		Longitude: 101.686912789,
		Timestamp: "2024-01-01T00:00:00+00:00",
	}
	v := domain.UnsafeVerdict(domain.EventHarshBraking, domain.SeverityLow)

	got, err := BuildEventSummary(s, v)
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if got.SpeedKmh != 55.46 {
		t.Fatalf("expected speed 55.46, got %v", got.SpeedKmh)
	}
	if got.Latitude != 3.139012 {
		t.Fatalf("expected latitude 3.139012, got %v", got.Latitude)
	}
	if got.Longitude != 101.686913 {
		t.Fatalf("expected longitude 101.686913, got %v", got.Longitude)
	}
	if got.EventType != "HarshBraking" || got.SeverityLevel != "Low" {
		t.Fatalf("unexpected tags: %+v", got)
	}
	if got.Timestamp != s.Timestamp {
		t.Fatalf("expected timestamp to pass through, got %s", got.Timestamp)
	}
}

func TestBuildEventSummaryRejectsSafeVerdict(t *testing.T) {
	_, err := BuildEventSummary(domain.Sample{}, domain.SafeVerdict())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	_, err = BuildEventSummary(domain.Sample{}, domain.Verdict{State: domain.StateUnsafe, Event: domain.EventSharpTurn})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for missing severity, got %v", err)
	}
}

func TestBuildNormalSummary(t *testing.T) {
	got := BuildNormalSummary(domain.Sample{SpeedKmh: 42.005, Latitude: -0.0000004})
	if got.EventType != NormalEventType || got.SeverityLevel != NormalSeverity {
		t.Fatalf("unexpected tags: %+v", got)
	}
	if got.SpeedKmh != 42.01 {
		t.Fatalf("expected speed 42.01, got %v", got.SpeedKmh)
	}
	if got.Latitude != 0 {
		t.Fatalf("expected latitude to round to 0, got %v", got.Latitude)
	}
}

func TestRoundingMatchesExactBinaryValue(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{2.675, 2.67},
		{1.005, 1.0},
		{0.125, 0.12},
		{0.375, 0.38},
		{42.005, 42.01},
		{-2.675, -2.67},
	}
	for _, tc := range cases {
		if got := BuildNormalSummary(domain.Sample{SpeedKmh: tc.in}).SpeedKmh; got != tc.want {
			t.Fatalf("speed %v: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	pos := BuildNormalSummary(domain.Sample{Latitude: 0.0000005, Longitude: 3.1390125})
	if pos.Latitude != 0 {
		t.Fatalf("expected latitude 0.0000005 to round to 0, got %v", pos.Latitude)
	}
	if pos.Longitude != 3.139013 {
		t.Fatalf("expected longitude 3.139013, got %v", pos.Longitude)
	}
}

func TestSummaryWireFields(t *testing.T) {
	raw, err := json.Marshal(BuildNormalSummary(domain.Sample{Timestamp: "2024-01-01T00:00:00+00:00"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"event_type", "severity_level", "speed_kmh", "latitude", "longitude", "timestamp"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), fields)
	}
	for _, k := range want {
		if _, ok := fields[k]; !ok {
			t.Fatalf("missing field %q in %s", k, raw)
		}
	}
}
