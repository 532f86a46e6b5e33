// Package detect turns raw motion samples into driving verdicts using fixed
// threshold rules.
package detect

import (
	"math"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

// Overspeed tiers are stricter than the shared exceedance scale.
const (
	overspeedHighRatio   = 1.30
	overspeedMediumRatio = 1.15

	exceedHighRatio   = 2.0
	exceedMediumRatio = 1.5
)

// Classify evaluates the rules in priority order and returns the verdict of
// the first one that matches: overspeeding, harsh braking, rapid
// acceleration, sharp turn. A sample matching none of them is safe.
func Classify(s domain.Sample, t domain.Thresholds) domain.Verdict {
	if s.SpeedKmh > t.OverspeedKmh {
		return domain.UnsafeVerdict(domain.EventOverspeeding, overspeedSeverity(s.SpeedKmh, t.OverspeedKmh))
	}

	if s.AxMS2 <= t.HarshBrakingAx {
		return domain.UnsafeVerdict(domain.EventHarshBraking,
			SeverityFromRatio(ratio(math.Abs(s.AxMS2), math.Abs(t.HarshBrakingAx))))
	}

	if s.AxMS2 >= t.RapidAccelAx {
		return domain.UnsafeVerdict(domain.EventRapidAcceleration,
			SeverityFromRatio(ratio(s.AxMS2, t.RapidAccelAx)))
	}

	ay, gz := math.Abs(s.AyMS2), math.Abs(s.GzDPS)
	if ay >= t.SharpTurnAy || gz >= t.SharpTurnGz {
		// lateral accel and yaw rate are independent indicators; grade by the stronger one
		r := math.Max(ratio(ay, t.SharpTurnAy), ratio(gz, t.SharpTurnGz))
		return domain.UnsafeVerdict(domain.EventSharpTurn, SeverityFromRatio(r))
	}

	return domain.SafeVerdict()
}

// SeverityFromRatio maps a threshold exceedance ratio onto the shared
// Low/Medium/High scale.
func SeverityFromRatio(r float64) domain.Severity {
	switch {
	case r >= exceedHighRatio:
		return domain.SeverityHigh
	case r >= exceedMediumRatio:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func overspeedSeverity(speed, limit float64) domain.Severity {
	r := ratio(speed, limit)
	switch {
	case r >= overspeedHighRatio:
		return domain.SeverityHigh
	case r >= overspeedMediumRatio:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// ratio is 0 for a zero threshold so a misconfigured limit degrades to Low.
func ratio(value, threshold float64) float64 {
	if threshold == 0 {
		return 0
	}
	return value / threshold
}
