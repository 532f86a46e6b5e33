package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ghalamif/DriveGuard/pkg/driveguard"
)

func main() {
	cfg := driveguard.DefaultConfig()
	cfg.Metrics.Disabled = true
	cfg.Policy.MaxSamples = 20

	flow, err := driveguard.ConfFromConfig(&cfg)
	if err != nil {
		log.Fatalf("build flow: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	callback := func(s driveguard.Summary) error {
		fmt.Printf("%s event=%s severity=%s speed=%.2f at %.6f,%.6f\n",
			s.Timestamp, s.EventType, s.SeverityLevel, s.SpeedKmh, s.Latitude, s.Longitude)
		return nil
	}

	if err := flow.Run(ctx, driveguard.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
