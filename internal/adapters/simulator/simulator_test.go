package simulator

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ghalamif/DriveGuard/internal/app/detect"
	"github.com/ghalamif/DriveGuard/internal/domain"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newTestSource(t *testing.T, cfg Config, seed int64) *Source {
	t.Helper()
	src, err := New(cfg, domain.DefaultThresholds(),
		WithRandSource(rand.NewSource(seed)),
		WithClock(fixedClock{time.Date(2024, 1, 1, 0, 0, 0, 500, time.UTC)}))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	return src
}

func TestNextWithoutInjectionStaysSafe(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnsafeInjectionProb = 0
	src := newTestSource(t, cfg, 1)
	th := domain.DefaultThresholds()

	prevLat, prevLon := cfg.BaseLat, cfg.BaseLon
	for i := 0; i < 5; i++ {
		s, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if s.Timestamp != "2024-01-01T00:00:00+00:00" {
			t.Fatalf("unexpected timestamp %s", s.Timestamp)
		}
		if math.Abs(s.Latitude-prevLat) > 0.0003 || math.Abs(s.Longitude-prevLon) > 0.0003 {
			t.Fatalf("position jumped too far: %v,%v -> %v,%v", prevLat, prevLon, s.Latitude, s.Longitude)
		}
		prevLat, prevLon = s.Latitude, s.Longitude
		if v := detect.Classify(s, th); v.Unsafe() {
			t.Fatalf("expected baseline noise to stay safe, got %+v for %+v", v, s)
		}
	}
}

func TestNextInjectsUnsafeEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnsafeInjectionProb = 1
	src := newTestSource(t, cfg, 3)
	th := domain.DefaultThresholds()

	for i := 0; i < 200; i++ {
		s, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		v := detect.Classify(s, th)
		if !v.Unsafe() {
			t.Fatalf("expected injected sample to be unsafe: %+v", s)
		}
	}
}

func TestSpeedNeverNegative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseSpeedKmh = 0
	cfg.UnsafeInjectionProb = 0
	src := newTestSource(t, cfg, 9)

	for i := 0; i < 100; i++ {
		s, _ := src.Next(context.Background())
		if s.SpeedKmh < 0 {
			t.Fatalf("negative speed %v", s.SpeedKmh)
		}
	}
}

func TestNextHonoursCancelledContext(t *testing.T) {
	src := newTestSource(t, DefaultConfig(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnsafeInjectionProb = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected probability validation error")
	}
}
