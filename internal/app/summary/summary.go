// Package summary builds the telemetry payload for a classified sample.
package summary

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

// ErrInvalidState is returned when an event summary is requested for a
// verdict that is not unsafe or carries no severity. It signals a caller bug.
var ErrInvalidState = errors.New("summary: event summary requires an unsafe verdict with severity")

const (
	NormalEventType = "Normal"
	NormalSeverity  = "Safe"

	speedPlaces    = 2
	positionPlaces = 6
)

// BuildEventSummary describes an unsafe event.
func BuildEventSummary(s domain.Sample, v domain.Verdict) (domain.Summary, error) {
	if !v.Unsafe() || !v.HasSeverity() {
		return domain.Summary{}, fmt.Errorf("%w: state=%s severity=%q", ErrInvalidState, v.State, v.Severity)
	}
	return build(s, string(v.Event), string(v.Severity)), nil
}

// BuildNormalSummary describes a sample with no unsafe event.
func BuildNormalSummary(s domain.Sample) domain.Summary {
	return build(s, NormalEventType, NormalSeverity)
}

func build(s domain.Sample, event, severity string) domain.Summary {
	return domain.Summary{
		EventType:     event,
		SeverityLevel: severity,
		SpeedKmh:      round(s.SpeedKmh, speedPlaces),
		Latitude:      round(s.Latitude, positionPlaces),
		Longitude:     round(s.Longitude, positionPlaces),
		Timestamp:     s.Timestamp,
	}
}

// round works on the exact binary value of v and breaks exact ties to the
// even digit, so 2.675 becomes 2.67 and 0.125 becomes 0.12.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', int(places), 64))
	if err != nil {
		return v
	}
	f, _ := d.Float64()
	return f
}
