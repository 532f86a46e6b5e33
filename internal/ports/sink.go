package ports

import (
	"context"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

// TelemetrySink ships a summary to a remote collector. Failures are
// reported through the outcome, never as a panic or error return.
type TelemetrySink interface {
	Deliver(ctx context.Context, s domain.Summary) domain.DeliveryOutcome
	Name() string
}
