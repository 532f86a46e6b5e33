// Package simulator produces synthetic motion samples: baseline driving noise
// on a random walk of speed and position, with unsafe events injected at a
// configurable rate.
package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

type Config struct {
	BaseLat             float64 `yaml:"base_lat"`
	BaseLon             float64 `yaml:"base_lon"`
	BaseSpeedKmh        float64 `yaml:"base_speed_kmh"`
	UnsafeInjectionProb float64 `yaml:"unsafe_injection_prob"`
	Seed                int64   `yaml:"seed"` // 0 seeds from the clock
}

func DefaultConfig() Config {
	return Config{
		BaseLat:             3.1390,
		BaseLon:             101.6869,
		BaseSpeedKmh:        55.0,
		UnsafeInjectionProb: 0.20,
	}
}

func (c *Config) Validate() error {
	if c.UnsafeInjectionProb < 0 || c.UnsafeInjectionProb > 1 {
		return fmt.Errorf("unsafe_injection_prob must be within [0,1], got %v", c.UnsafeInjectionProb)
	}
	if c.BaseSpeedKmh < 0 {
		return fmt.Errorf("base_speed_kmh must be >= 0, got %v", c.BaseSpeedKmh)
	}
	if math.Abs(c.BaseLat) > 90 || math.Abs(c.BaseLon) > 180 {
		return fmt.Errorf("base position %v,%v is out of range", c.BaseLat, c.BaseLon)
	}
	return nil
}

// Clock lets tests pin sample timestamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Source is a ports.SampleSource. Injected events are sized relative to the
// thresholds so that they trip the matching rule.
type Source struct {
	cfg        Config
	thresholds domain.Thresholds
	rnd        *rand.Rand
	clock      Clock

	lat, lon, speed float64
}

type Option func(*Source)

func WithClock(c Clock) Option {
	return func(s *Source) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithRandSource(src rand.Source) Option {
	return func(s *Source) {
		if src != nil {
			s.rnd = rand.New(src)
		}
	}
}

func New(cfg Config, th domain.Thresholds, opts ...Option) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Source{
		cfg:        cfg,
		thresholds: th,
		rnd:        rand.New(rand.NewSource(seed)),
		clock:      realClock{},
		lat:        cfg.BaseLat,
		lon:        cfg.BaseLon,
		speed:      cfg.BaseSpeedKmh,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Source) Next(ctx context.Context) (domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sample{}, err
	}

	ax := s.uniform(-0.8, 0.8)
	ay := s.uniform(-0.8, 0.8)
	gz := s.uniform(-10, 10)

	s.speed = math.Max(0, s.speed+s.uniform(-2, 2))
	s.lat += s.uniform(-0.0003, 0.0003)
	s.lon += s.uniform(-0.0003, 0.0003)

	if s.rnd.Float64() < s.cfg.UnsafeInjectionProb {
		th := s.thresholds
		switch domain.UnsafeEvents[s.rnd.Intn(len(domain.UnsafeEvents))] {
		case domain.EventHarshBraking:
			ax = th.HarshBrakingAx - s.uniform(0.5, 4)
		case domain.EventRapidAcceleration:
			ax = th.RapidAccelAx + s.uniform(0.5, 4)
		case domain.EventSharpTurn:
			ay = s.sign() * (th.SharpTurnAy + s.uniform(0.5, 4))
			gz = s.sign() * (th.SharpTurnGz + s.uniform(5, 60))
		case domain.EventOverspeeding:
			s.speed = th.OverspeedKmh + s.uniform(5, 40)
		}
	}

	return domain.Sample{
		AxMS2:     ax,
		AyMS2:     ay,
		GzDPS:     gz,
		SpeedKmh:  s.speed,
		Latitude:  s.lat,
		Longitude: s.lon,
		Timestamp: domain.FormatTimestamp(s.clock.Now()),
	}, nil
}

func (s *Source) Close() error { return nil }

func (s *Source) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rnd.Float64()
}

func (s *Source) sign() float64 {
	if s.rnd.Intn(2) == 0 {
		return -1
	}
	return 1
}

var _ ports.SampleSource = (*Source)(nil)
