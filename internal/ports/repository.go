package ports

import (
	"context"

	"github.com/hujadis/geraship/internal/domain"
)

// SnapshotRepository stores the raw input snapshot so that an analysis can be
// re-run offline. Analysis results are never stored.
type SnapshotRepository interface {
	PositionSource
	// SaveSnapshot replaces the stored snapshot with positions, preserving order.
	SaveSnapshot(ctx context.Context, positions []domain.Position) error
	// CountPositions returns the number of stored positions.
	CountPositions(ctx context.Context) (int, error)
}
