package thingsboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

type recordingSleeper struct {
	slept []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return nil
}

func testSummary() domain.Summary {
	return domain.Summary{
		EventType:     "HarshBraking",
		SeverityLevel: "Low",
		SpeedKmh:      50,
		Latitude:      3,
		Longitude:     101,
		Timestamp:     "2024-01-01T00:00:00+00:00",
	}
}

func TestDeliverRetriesUntilOK(t *testing.T) {
	var calls int32
	var gotPath, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sl := &recordingSleeper{}
	c, err := NewClient(Config{Host: srv.URL + "/", DeviceToken: "tok", Retries: 3, Backoff: time.Second}, WithSleeper(sl))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out := c.Deliver(context.Background(), testSummary())
	if !out.Success || out.Status != http.StatusOK || out.Message != "OK" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 requests, got %d", calls)
	}
	if len(sl.slept) != 2 || sl.slept[0] != time.Second || sl.slept[1] != 2*time.Second {
		t.Fatalf("expected sleeps [1s 2s], got %v", sl.slept)
	}
	if gotPath != "/api/v1/tok/telemetry" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotType != "application/json" {
		t.Fatalf("unexpected content type %s", gotType)
	}
	if gotBody["event_type"] != "HarshBraking" || len(gotBody) != 6 {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestDeliverExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	}))
	defer srv.Close()

	sl := &recordingSleeper{}
	c, err := NewClient(Config{Host: srv.URL, DeviceToken: "tok", Retries: 3, Backoff: time.Second}, WithSleeper(sl))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out := c.Deliver(context.Background(), testSummary())
	if out.Success || out.Status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if atomic.LoadInt32(&calls) != 3 || out.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(sl.slept) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", sl.slept)
	}
	if want := "HTTP 503: " + strings.Repeat("x", maxBodySnippet); out.Message != want {
		t.Fatalf("expected truncated body in message, got %q", out.Message)
	}
}

func TestDeliverTruncatesBodyByCharacter(t *testing.T) {
	body := strings.Repeat("é", 150) + strings.Repeat("ü", 150)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Host: srv.URL, DeviceToken: "tok", Retries: 1}, WithSleeper(&recordingSleeper{}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out := c.Deliver(context.Background(), testSummary())
	want := "HTTP 400: " + strings.Repeat("é", 150) + strings.Repeat("ü", 50)
	if out.Message != want {
		t.Fatalf("expected 200 characters of body, got %q", out.Message)
	}
	if !utf8.ValidString(out.Message) {
		t.Fatalf("expected message to stay valid UTF-8")
	}
}

func TestBodySnippetShortBody(t *testing.T) {
	if got := bodySnippet([]byte("not found")); got != "not found" {
		t.Fatalf("expected short body untouched, got %q", got)
	}
}

func TestDeliverTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	sl := &recordingSleeper{}
	c, err := NewClient(Config{Host: url, DeviceToken: "tok", Retries: 2}, WithSleeper(sl))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out := c.Deliver(context.Background(), testSummary())
	if out.Success || out.Status != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if !strings.HasPrefix(out.Message, "request error:") {
		t.Fatalf("expected request error message, got %q", out.Message)
	}
	if len(sl.slept) != 1 {
		t.Fatalf("expected 1 sleep, got %v", sl.slept)
	}
}

func TestDeliverReusesRequestIDAcrossAttempts(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(Config{Host: srv.URL, DeviceToken: "tok", Retries: 2}, WithSleeper(&recordingSleeper{}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.Deliver(context.Background(), testSummary())

	if len(ids) != 2 || ids[0] == "" || ids[0] != ids[1] {
		t.Fatalf("expected one stable request id, got %v", ids)
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{Host: "  ", DeviceToken: "tok"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("expected ErrMissingEndpoint, got %v", err)
	}
	if _, err := NewClient(Config{Host: "https://thingsboard.cloud"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("expected ErrMissingEndpoint, got %v", err)
	}
	if _, err := NewClient(Config{Host: "thingsboard.cloud", DeviceToken: "tok"}); err == nil {
		t.Fatalf("expected scheme validation error")
	}
}

func TestTelemetryURL(t *testing.T) {
	if got := TelemetryURL("https://tb.example.com//", "abc"); got != "https://tb.example.com/api/v1/abc/telemetry" {
		t.Fatalf("unexpected url %s", got)
	}
}
