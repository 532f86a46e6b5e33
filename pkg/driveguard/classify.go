package driveguard

import (
	"github.com/ghalamif/DriveGuard/internal/app/detect"
	"github.com/ghalamif/DriveGuard/internal/app/summary"
	"github.com/ghalamif/DriveGuard/internal/domain"
)

// ErrInvalidState is returned by BuildEventSummary for a verdict that is not unsafe.
var ErrInvalidState = summary.ErrInvalidState

// DefaultThresholds returns the stock classifier limits.
func DefaultThresholds() Thresholds { return domain.DefaultThresholds() }

// Classify runs the threshold rules against a single sample.
func Classify(s Sample, t Thresholds) Verdict { return detect.Classify(s, t) }

// BuildEventSummary builds the payload for an unsafe verdict.
func BuildEventSummary(s Sample, v Verdict) (Summary, error) { return summary.BuildEventSummary(s, v) }

// BuildNormalSummary builds the payload for a safe sample.
func BuildNormalSummary(s Sample) Summary { return summary.BuildNormalSummary(s) }
