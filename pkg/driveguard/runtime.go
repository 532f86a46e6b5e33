package driveguard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/DriveGuard/internal/adapters/observability"
	"github.com/ghalamif/DriveGuard/internal/adapters/opcua"
	"github.com/ghalamif/DriveGuard/internal/adapters/simulator"
	"github.com/ghalamif/DriveGuard/internal/adapters/sink"
	"github.com/ghalamif/DriveGuard/internal/adapters/thingsboard"
	"github.com/ghalamif/DriveGuard/internal/app/config"
	"github.com/ghalamif/DriveGuard/internal/app/delivery"
	"github.com/ghalamif/DriveGuard/internal/app/pipeline"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        SampleSource
	sink          TelemetrySink
	observability Observability
	sleeper       Sleeper
}

// WithSource injects a custom sample source (CAN bridge, replay file, test feed).
func WithSource(src SampleSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithSink injects a custom sink so summaries can be sent anywhere.
func WithSink(s TelemetrySink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithSleeper replaces the timer used for sample pacing and retry backoff.
func WithSleeper(s Sleeper) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sleeper = s
	}
}

// Runtime wires source → classifier → summary → sink and exposes lifecycle
// hooks for embedding DriveGuard inside any Go service.
type Runtime struct {
	cfg        *Config
	obs        ports.Observability
	source     ports.SampleSource
	sink       ports.TelemetrySink
	sleeper    delivery.Sleeper
	db         *sql.DB
	metricsSrv *http.Server
}

// NewRuntime bootstraps the default adapters named by cfg (simulator or OPC UA
// source, ThingsBoard or Timescale sink, Prometheus observability). Any of
// them can be replaced with RuntimeOption values.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	sleeper := overrides.sleeper
	if sleeper == nil {
		sleeper = delivery.TimerSleeper{}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	rt := &Runtime{cfg: cfg, obs: obs, sleeper: sleeper}

	snk := overrides.sink
	if snk == nil {
		var err error
		snk, err = rt.defaultSink()
		if err != nil {
			return nil, err
		}
	}

	src := overrides.source
	if src == nil {
		var err error
		src, err = defaultSource(cfg)
		if err != nil {
			rt.closeDB()
			return nil, err
		}
	}

	rt.source = src
	rt.sink = snk
	return rt, nil
}

func defaultSource(cfg *Config) (ports.SampleSource, error) {
	switch cfg.Source.Kind {
	case config.SourceSimulator, "":
		return simulator.New(cfg.Source.Simulator, cfg.Thresholds)
	case config.SourceOPCUA:
		return opcua.NewSource(cfg.Source.OPCUA)
	default:
		return nil, fmt.Errorf("source.kind %q is not supported", cfg.Source.Kind)
	}
}

func (r *Runtime) defaultSink() (ports.TelemetrySink, error) {
	switch r.cfg.Sink.Kind {
	case config.SinkThingsBoard, "":
		c, err := thingsboard.NewClient(r.cfg.ThingsBoard, thingsboard.WithSleeper(r.sleeper))
		if errors.Is(err, thingsboard.ErrMissingEndpoint) {
			return nil, config.ErrMissingCredentials
		}
		return c, err
	case config.SinkTimescale:
		db, err := sql.Open("postgres", r.cfg.Timescale.ConnString)
		if err != nil {
			return nil, err
		}
		retrier := delivery.NewRetrier(r.cfg.ThingsBoard.Retries, r.cfg.ThingsBoard.Backoff, r.sleeper)
		s, err := sink.NewTimescaleSink(db, r.cfg.Timescale.Table, retrier)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		r.db = db
		return s, nil
	default:
		return nil, fmt.Errorf("sink.kind %q is not supported", r.cfg.Sink.Kind)
	}
}

// SinkName reports which sink the runtime delivers to.
func (r *Runtime) SinkName() string {
	if r == nil || r.sink == nil {
		return ""
	}
	return r.sink.Name()
}

// Start launches the metrics server. The pipeline itself runs in Run.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if !r.cfg.Metrics.Disabled {
		r.startMetrics()
	}
	r.obs.LogInfo("pipeline_started",
		ports.Field{Key: "sink", Value: r.sink.Name()},
		ports.Field{Key: "upload", Value: r.cfg.Policy.Upload})
	return nil
}

// Run starts the runtime and blocks until ctx is cancelled or the configured
// sample limit is reached, then shuts down.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	runErr := pipeline.RunDrivePipelinePaced(ctx, r.source, r.cfg.Thresholds, r.sink, r.cfg.Policy, r.obs, r.sleeper)
	if runErr != nil {
		r.obs.LogCritical("pipeline_stopped", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(runErr, r.Shutdown(shutdownCtx))
}

// Shutdown stops the metrics server, the source and the DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}

	if r.source != nil {
		if err := r.source.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.closeDB(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Runtime) closeDB() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	srv := r.metricsSrv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}
