package observability

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

const (
	SamplesTotal           = "driveguard_samples_total"
	DeliveriesTotal        = "driveguard_deliveries_total"
	DeliveryFailuresTotal  = "driveguard_delivery_failures_total"
	SourceErrorsTotal      = "driveguard_source_errors_total"
	DeliveryLatencySeconds = "driveguard_delivery_latency_seconds"
	LastSpeedKmh           = "driveguard_last_speed_kmh"
	EventsTotal            = "driveguard_events_total"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
	events   *prometheus.CounterVec
	logger   *log.Logger
}

// NewPromObs registers the DriveGuard metrics on the default registry.
func NewPromObs() *PromObs {
	return NewPromObsWith(prometheus.DefaultRegisterer)
}

// NewPromObsWith registers on reg. Metrics already present on reg are reused,
// so several runtimes in one process share the same series.
func NewPromObsWith(reg prometheus.Registerer) *PromObs {
	samples := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SamplesTotal,
		Help: "Total samples pulled from the source and classified.",
	})
	deliveries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: DeliveriesTotal,
		Help: "Summaries accepted by the telemetry collector.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: DeliveryFailuresTotal,
		Help: "Summaries dropped after exhausting delivery retries.",
	})
	sourceErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SourceErrorsTotal,
		Help: "Ticks skipped because the sample source failed.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    DeliveryLatencySeconds,
		Help:    "Wall time of a delivery including retries and backoff.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	speed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: LastSpeedKmh,
		Help: "Speed of the most recent sample.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: EventsTotal,
		Help: "Classified samples by event type and severity.",
	}, []string{"event_type", "severity"})

	samples = register(reg, samples)
	deliveries = register(reg, deliveries)
	failures = register(reg, failures)
	sourceErrs = register(reg, sourceErrs)
	latency = register(reg, latency)
	speed = register(reg, speed)
	events = register(reg, events)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			SamplesTotal:          samples,
			DeliveriesTotal:       deliveries,
			DeliveryFailuresTotal: failures,
			SourceErrorsTotal:     sourceErrs,
		},
		gauges: map[string]prometheus.Gauge{
			LastSpeedKmh: speed,
		},
		histos: map[string]prometheus.Observer{
			DeliveryLatencySeconds: latency,
		},
		events: events,
		logger: log.Default(),
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordVerdict(v domain.Verdict) {
	sev := string(v.Severity)
	if sev == "" {
		sev = "none"
	}
	p.events.WithLabelValues(string(v.Event), sev).Inc()
}

func (p *PromObs) RecordUndelivered(s domain.Summary, out domain.DeliveryOutcome) {
	p.IncCounter(DeliveryFailuresTotal, 1)
	p.logger.Printf("UNDELIVERED: event=%s ts=%s status=%d attempts=%d msg=%s",
		s.EventType, s.Timestamp, out.Status, out.Attempts, out.Message)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		switch v := f.Value.(type) {
		case float64:
			b.WriteString(fmt.Sprintf("%.2f", v))
		default:
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
