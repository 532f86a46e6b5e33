package observability

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

func newTestObs(t *testing.T) *PromObs {
	t.Helper()
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	return NewPromObs()
}

func TestPromObsMetrics(t *testing.T) {
	obs := newTestObs(t)

	obs.IncCounter(SamplesTotal, 5)
	if got := testutil.ToFloat64(obs.counters[SamplesTotal]); got != 5 {
		t.Fatalf("expected samples counter 5, got %f", got)
	}

	obs.IncCounter(DeliveriesTotal, 2)
	if got := testutil.ToFloat64(obs.counters[DeliveriesTotal]); got != 2 {
		t.Fatalf("expected deliveries counter 2, got %f", got)
	}

	obs.SetGauge(LastSpeedKmh, 88.5)
	if got := testutil.ToFloat64(obs.gauges[LastSpeedKmh]); got != 88.5 {
		t.Fatalf("expected speed gauge 88.5, got %f", got)
	}

	obs.ObserveLatency(DeliveryLatencySeconds, 0.5)
	hCollector := obs.histos[DeliveryLatencySeconds].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.IncCounter("unknown_metric", 1)
}

func TestPromObsRecordVerdict(t *testing.T) {
	obs := newTestObs(t)

	obs.RecordVerdict(domain.UnsafeVerdict(domain.EventHarshBraking, domain.SeverityHigh))
	obs.RecordVerdict(domain.UnsafeVerdict(domain.EventHarshBraking, domain.SeverityHigh))
	obs.RecordVerdict(domain.SafeVerdict())

	if got := testutil.ToFloat64(obs.events.WithLabelValues("HarshBraking", "High")); got != 2 {
		t.Fatalf("expected 2 harsh braking events, got %f", got)
	}
	if got := testutil.ToFloat64(obs.events.WithLabelValues("None", "none")); got != 1 {
		t.Fatalf("expected 1 safe sample, got %f", got)
	}
}

func TestPromObsRecordUndelivered(t *testing.T) {
	obs := newTestObs(t)
	var buf bytes.Buffer
	obs.logger = log.New(&buf, "", 0)

	obs.RecordUndelivered(domain.Summary{EventType: "Normal", Timestamp: "t0"},
		domain.DeliveryOutcome{Status: 503, Attempts: 3, Message: "HTTP 503: busy"})

	if got := testutil.ToFloat64(obs.counters[DeliveryFailuresTotal]); got != 1 {
		t.Fatalf("expected failure counter 1, got %f", got)
	}
	if !strings.Contains(buf.String(), "status=503") {
		t.Fatalf("expected status in log line, got %q", buf.String())
	}
}

func TestPromObsLogFields(t *testing.T) {
	obs := newTestObs(t)
	var buf bytes.Buffer
	obs.logger = log.New(&buf, "", 0)

	obs.LogInfo("sample_classified", ports.Field{Key: "speed", Value: 55.4567}, ports.Field{Key: "state", Value: "Safe"})
	if got := strings.TrimSpace(buf.String()); got != "INFO: sample_classified speed=55.46 state=Safe" {
		t.Fatalf("unexpected log line %q", got)
	}

	buf.Reset()
	obs.LogError("ignored", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nil error to be skipped, got %q", buf.String())
	}
}

func TestNewPromObsReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPromObsWith(reg)
	second := NewPromObsWith(reg)

	first.IncCounter(SamplesTotal, 2)
	second.IncCounter(SamplesTotal, 3)
	if got := testutil.ToFloat64(second.counters[SamplesTotal]); got != 5 {
		t.Fatalf("expected shared samples counter 5, got %f", got)
	}

	second.RecordVerdict(domain.UnsafeVerdict(domain.EventSharpTurn, domain.SeverityLow))
	if got := testutil.ToFloat64(first.events.WithLabelValues("SharpTurn", "Low")); got != 1 {
		t.Fatalf("expected shared events vector, got %f", got)
	}
}

func TestNewPromObsOnDefaultRegistryTwice(t *testing.T) {
	newTestObs(t)
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("second NewPromObs panicked: %v", r)
		}
	}()
	NewPromObs()
}
