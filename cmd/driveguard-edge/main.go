package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/DriveGuard"
	"github.com/ghalamif/DriveGuard/internal/domain"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "classify":
		err = classifyCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("driveguard-edge %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	upload := fs.String("upload", "", "Override policy.upload (all|unsafe)")
	maxSamples := fs.Int("max-samples", -1, "Stop after this many samples (0 = run forever)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := driveguard.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *upload != "" {
		cfg.Policy.Upload = *upload
	}
	if *maxSamples >= 0 {
		cfg.Policy.MaxSamples = *maxSamples
	}

	flow, err := driveguard.ConfFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := driveguard.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good (source=%s sink=%s upload=%s)\n",
		*cfgPath, cfg.Source.Kind, cfg.Sink.Kind, cfg.Policy.Upload)
	return nil
}

// classifyCommand runs one sample through the classifier and prints the
// summary that would be uploaded.
func classifyCommand(args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Optional config file for thresholds")
	ax := fs.Float64("ax", 0, "Longitudinal acceleration (m/s^2)")
	ay := fs.Float64("ay", 0, "Lateral acceleration (m/s^2)")
	gz := fs.Float64("gz", 0, "Yaw rate (deg/s)")
	speed := fs.Float64("speed", 0, "Speed (km/h)")
	lat := fs.Float64("lat", 0, "Latitude")
	lon := fs.Float64("lon", 0, "Longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}

	th := driveguard.DefaultThresholds()
	if *cfgPath != "" {
		cfg, err := driveguard.LoadConfig(*cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		th = cfg.Thresholds
	}

	sample := driveguard.Sample{
		AxMS2:     *ax,
		AyMS2:     *ay,
		GzDPS:     *gz,
		SpeedKmh:  *speed,
		Latitude:  *lat,
		Longitude: *lon,
		Timestamp: domain.FormatTimestamp(time.Now()),
	}

	v := driveguard.Classify(sample, th)
	sum := driveguard.BuildNormalSummary(sample)
	if v.Unsafe() {
		var err error
		if sum, err = driveguard.BuildEventSummary(sample, v); err != nil {
			return err
		}
	}

	fmt.Printf("state=%s event=%s severity=%s\n", v.State, v.Event, v.Severity)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsKeys = []string{
	"driveguard_samples_total",
	"driveguard_deliveries_total",
	"driveguard_delivery_failures_total",
	"driveguard_source_errors_total",
	"driveguard_last_speed_kmh",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets, err := parseMetrics(bufio.NewScanner(resp.Body))
	if err != nil {
		return err
	}

	fmt.Printf("[%s] samples=%.0f delivered=%.0f failed=%.0f source_errors=%.0f speed=%.2f\n",
		time.Now().Format(time.RFC3339),
		targets["driveguard_samples_total"],
		targets["driveguard_deliveries_total"],
		targets["driveguard_delivery_failures_total"],
		targets["driveguard_source_errors_total"],
		targets["driveguard_last_speed_kmh"],
	)
	return nil
}

func parseMetrics(scanner *bufio.Scanner) (map[string]float64, error) {
	targets := make(map[string]float64, len(statsKeys))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsKeys {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	return targets, scanner.Err()
}

func printUsage() {
	fmt.Printf(`DriveGuard CLI

Usage:
  driveguard-edge <command> [flags]

Commands:
  run        Start the driving-behaviour pipeline using the provided config
  validate   Load and validate a config file without starting the pipeline
  classify   Classify a single sample given on the command line
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  driveguard-edge run -config ./data/config.yaml
  driveguard-edge run -config ./data/config.yaml -upload unsafe -max-samples 100
  driveguard-edge validate -config ./data/config.yaml
  driveguard-edge classify -ax -8.2 -speed 42 -lat 3.139 -lon 101.6869
  driveguard-edge stats -url http://localhost:9100/metrics -interval 1s
`)
}
