package driveguard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("driveguard: channel sink closed")

// SummaryHandler receives each summary the pipeline decides to upload.
type SummaryHandler func(Summary) error

// NewCallbackSink adapts a SummaryHandler into a full TelemetrySink so callers
// can plug arbitrary functions without defining structs. A handler error
// becomes a failed outcome; there are no retries.
func NewCallbackSink(name string, fn SummaryHandler) TelemetrySink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes summaries via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (TelemetrySink, <-chan Summary, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Summary, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   SummaryHandler
}

func (s *callbackSink) Deliver(_ context.Context, sum Summary) DeliveryOutcome {
	if s.fn == nil {
		return failed(fmt.Errorf("callback sink %q: nil handler", s.name))
	}
	if err := s.fn(sum); err != nil {
		return failed(err)
	}
	return delivered()
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan Summary
	closed chan struct{}
	once   sync.Once
	mu     sync.RWMutex
}

func (s *channelSink) Deliver(ctx context.Context, sum Summary) DeliveryOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return failed(ErrChannelSinkClosed)
	default:
	}

	select {
	case <-s.closed:
		return failed(ErrChannelSinkClosed)
	case <-ctx.Done():
		return failed(ctx.Err())
	case s.ch <- sum:
		return delivered()
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		// wait for in-flight sends to observe closed before closing ch
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}

func delivered() DeliveryOutcome {
	return DeliveryOutcome{Success: true, Message: "OK", Attempts: 1}
}

func failed(err error) DeliveryOutcome {
	return DeliveryOutcome{Message: err.Error(), Attempts: 1}
}
