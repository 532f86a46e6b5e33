package ports

import (
	"context"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

// SampleSource yields one motion sample per call. Implementations own any
// state carried between samples.
type SampleSource interface {
	Next(ctx context.Context) (domain.Sample, error)
	Close() error
}
