package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/DriveGuard"
)

func main() {
	cfg := driveguard.DefaultConfig()
	cfg.Metrics.Disabled = true
	cfg.Policy.Upload = "unsafe"

	flow, err := driveguard.ConfFromConfig(&cfg)
	if err != nil {
		log.Fatalf("build flow: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, events, closeEvents := driveguard.NewChannelSink("alerts", 32)
	defer closeEvents()

	go alertWorker(events)

	if err := flow.Run(ctx, driveguard.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func alertWorker(events <-chan driveguard.Summary) {
	for ev := range events {
		fmt.Printf("[alert] %s %s at %.2f km/h (%s)\n", ev.SeverityLevel, ev.EventType, ev.SpeedKmh, ev.Timestamp)
	}
}
