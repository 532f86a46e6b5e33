package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/DriveGuard/internal/app/delivery"
	"github.com/ghalamif/DriveGuard/internal/app/detect"
	"github.com/ghalamif/DriveGuard/internal/app/summary"
	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// RunDrivePipeline pulls, classifies and delivers one sample per tick until
// ctx is cancelled or pol.MaxSamples samples have been handled. A failed
// delivery or source read is logged and the loop moves on; only a broken
// summary contract stops it with an error.
func RunDrivePipeline(ctx context.Context, src ports.SampleSource, th domain.Thresholds, sink ports.TelemetrySink, pol ports.Policy, obs ports.Observability) error {
	return runDrivePipeline(ctx, src, th, sink, pol, obs, delivery.TimerSleeper{})
}

// RunDrivePipelinePaced is RunDrivePipeline with a caller-supplied pacer for
// the wait between samples. A nil pacer falls back to real timers.
func RunDrivePipelinePaced(ctx context.Context, src ports.SampleSource, th domain.Thresholds, sink ports.TelemetrySink, pol ports.Policy, obs ports.Observability, pacer delivery.Sleeper) error {
	if pacer == nil {
		pacer = delivery.TimerSleeper{}
	}
	return runDrivePipeline(ctx, src, th, sink, pol, obs, pacer)
}

func runDrivePipeline(ctx context.Context, src ports.SampleSource, th domain.Thresholds, sink ports.TelemetrySink, pol ports.Policy, obs ports.Observability, pacer delivery.Sleeper) error {
	upload := pol.Upload
	if upload == "" {
		upload = ports.UploadAll
	}
	if upload != ports.UploadAll && upload != ports.UploadUnsafe {
		return fmt.Errorf("upload policy %q is invalid", pol.Upload)
	}

	var handled int
	for {
		if ctx.Err() != nil {
			return nil
		}

		sample, err := src.Next(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			obs.IncCounter("driveguard_source_errors_total", 1)
			obs.LogError("sample_source_failed", err)
		default:
			if err := handleSample(ctx, sample, th, sink, upload, obs); err != nil {
				return err
			}
		}

		handled++
		if pol.MaxSamples > 0 && handled >= pol.MaxSamples {
			return nil
		}
		if err := pacer.Sleep(ctx, pol.SampleInterval); err != nil {
			return nil
		}
	}
}

func handleSample(ctx context.Context, s domain.Sample, th domain.Thresholds, sink ports.TelemetrySink, upload string, obs ports.Observability) error {
	v := detect.Classify(s, th)

	obs.IncCounter("driveguard_samples_total", 1)
	obs.SetGauge("driveguard_last_speed_kmh", s.SpeedKmh)
	obs.RecordVerdict(v)
	obs.LogInfo("sample_classified",
		ports.Field{Key: "ts", Value: s.Timestamp},
		ports.Field{Key: "ax", Value: s.AxMS2},
		ports.Field{Key: "ay", Value: s.AyMS2},
		ports.Field{Key: "gz", Value: s.GzDPS},
		ports.Field{Key: "speed", Value: s.SpeedKmh},
		ports.Field{Key: "state", Value: v.State},
		ports.Field{Key: "event", Value: v.Event},
	)

	if !v.Unsafe() && upload == ports.UploadUnsafe {
		return nil
	}

	sum, err := buildSummary(s, v)
	if err != nil {
		obs.LogCritical("summary_contract_violated", err)
		return fmt.Errorf("build summary: %w", err)
	}

	start := time.Now()
	out := sink.Deliver(ctx, sum)
	obs.ObserveLatency("driveguard_delivery_latency_seconds", time.Since(start).Seconds())

	if !out.Success {
		obs.RecordUndelivered(sum, out)
		return nil
	}
	obs.IncCounter("driveguard_deliveries_total", 1)
	obs.LogInfo("telemetry_delivered",
		ports.Field{Key: "sink", Value: sink.Name()},
		ports.Field{Key: "event", Value: sum.EventType},
		ports.Field{Key: "severity", Value: sum.SeverityLevel},
		ports.Field{Key: "status", Value: out.Status},
		ports.Field{Key: "attempts", Value: out.Attempts},
	)
	return nil
}

func buildSummary(s domain.Sample, v domain.Verdict) (domain.Summary, error) {
	if v.Unsafe() {
		return summary.BuildEventSummary(s, v)
	}
	return summary.BuildNormalSummary(s), nil
}
