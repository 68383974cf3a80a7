package ports

import (
	"context"

	"github.com/hujadis/geraship/internal/domain"
)

// PositionSource supplies a complete, ordered snapshot of positions.
// Implementations must return either every position or an error; a partial
// snapshot would silently under-count every aggregate.
type PositionSource interface {
	// Name identifies the source in logs.
	Name() string
	// FetchPositions returns the full snapshot.
	FetchPositions(ctx context.Context) ([]domain.Position, error)
}
