package thingsboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ghalamif/DriveGuard/internal/app/delivery"
	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

// ErrMissingEndpoint is returned when the host or device token is empty.
var ErrMissingEndpoint = errors.New("thingsboard: host and device token are required")

const maxBodySnippet = 200

// Config holds the device endpoint and retry settings.
type Config struct {
	Host        string        `yaml:"host"`
	DeviceToken string        `yaml:"device_token"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	Backoff     time.Duration `yaml:"backoff"`
}

func (c *Config) ApplyDefaults() {
	c.Host = strings.TrimSpace(c.Host)
	c.DeviceToken = strings.TrimSpace(c.DeviceToken)
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	}
}

func (c *Config) Validate() error {
	if c.Host == "" || c.DeviceToken == "" {
		return ErrMissingEndpoint
	}
	if !strings.HasPrefix(c.Host, "http://") && !strings.HasPrefix(c.Host, "https://") {
		return fmt.Errorf("host %q must start with http:// or https://", c.Host)
	}
	return nil
}

// Client posts summaries to the device telemetry API.
type Client struct {
	cfg     Config
	url     string
	http    *http.Client
	retrier *delivery.Retrier
}

type Option func(*Client)

// WithHTTPClient replaces the default client; its Timeout is overwritten by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSleeper swaps the sleeper used between retries.
func WithSleeper(s delivery.Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.retrier.Sleeper = s
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		url:     TelemetryURL(cfg.Host, cfg.DeviceToken),
		http:    &http.Client{},
		retrier: delivery.NewRetrier(cfg.Retries, cfg.Backoff, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.http.Timeout = cfg.Timeout
	return c, nil
}

// TelemetryURL builds {host}/api/v1/{token}/telemetry.
func TelemetryURL(host, token string) string {
	return strings.TrimRight(host, "/") + "/api/v1/" + token + "/telemetry"
}

func (c *Client) Name() string { return "thingsboard" }

func (c *Client) URL() string { return c.url }

func (c *Client) Deliver(ctx context.Context, s domain.Summary) domain.DeliveryOutcome {
	body, err := json.Marshal(s)
	if err != nil {
		return domain.DeliveryOutcome{Message: fmt.Sprintf("encode summary: %v", err)}
	}
	requestID := uuid.NewString()

	return c.retrier.Do(ctx, func(ctx context.Context, _ int) delivery.Result {
		return c.post(ctx, body, requestID)
	})
}

func (c *Client) post(ctx context.Context, body []byte, requestID string) delivery.Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return delivery.Result{Message: fmt.Sprintf("request error: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return delivery.Result{Message: fmt.Sprintf("request error: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return delivery.Result{OK: true, Status: resp.StatusCode}
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet*utf8.UTFMax))
	return delivery.Result{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(bodySnippet(raw))),
	}
}

// bodySnippet keeps the first maxBodySnippet characters of raw.
func bodySnippet(raw []byte) string {
	var n int
	for i := range string(raw) {
		if n == maxBodySnippet {
			return string(raw[:i])
		}
		n++
	}
	return string(raw)
}

var _ ports.TelemetrySink = (*Client)(nil)
