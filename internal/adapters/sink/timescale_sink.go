package sink

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/ghalamif/DriveGuard/internal/app/delivery"
	"github.com/ghalamif/DriveGuard/internal/domain"
	"github.com/ghalamif/DriveGuard/internal/ports"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// TimescaleSink delivers summaries as rows into a remote TimescaleDB
// collector, reusing the same bounded retry policy as the HTTP client.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
	insert    string
	timeout   time.Duration
	retrier   *delivery.Retrier
}

func NewTimescaleSink(db *sql.DB, table string, retrier *delivery.Retrier) (*TimescaleSink, error) {
	if db == nil {
		return nil, fmt.Errorf("timescale sink: db is nil")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("timescale sink: invalid table name %q", table)
	}
	if retrier == nil {
		retrier = delivery.NewRetrier(1, 0, nil)
	}
	return &TimescaleSink{
		db:        db,
		tableName: table,
		insert: "INSERT INTO " + table +
			" (event_type, severity_level, speed_kmh, latitude, longitude, ts) VALUES ($1,$2,$3,$4,$5,$6)",
		timeout: 10 * time.Second,
		retrier: retrier,
	}, nil
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) Deliver(ctx context.Context, s domain.Summary) domain.DeliveryOutcome {
	ts, err := time.Parse(domain.TimestampLayout, s.Timestamp)
	if err != nil {
		return domain.DeliveryOutcome{Message: fmt.Sprintf("parse timestamp %q: %v", s.Timestamp, err)}
	}

	return t.retrier.Do(ctx, func(ctx context.Context, _ int) delivery.Result {
		execCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()

		_, err := t.db.ExecContext(execCtx, t.insert,
			s.EventType,
			s.SeverityLevel,
			s.SpeedKmh,
			s.Latitude,
			s.Longitude,
			ts,
		)
		if err != nil {
			return delivery.Result{Message: fmt.Sprintf("insert error: %v", err)}
		}
		return delivery.Result{OK: true}
	})
}

var _ ports.TelemetrySink = (*TimescaleSink)(nil)
