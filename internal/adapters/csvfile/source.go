package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/ports"
	"github.com/hujadis/geraship/internal/utils"
)

var _ ports.PositionSource = (*Source)(nil)

// Source reads a position snapshot from a CSV file on every fetch.
type Source struct {
	path   string
	logger ports.Logger
}

// NewSource creates a CSV-backed position source.
func NewSource(path string, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("csv path is required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV source: %w", ports.ErrConfigurationError)
	}
	return &Source{path: path, logger: logger}, nil
}

// Name identifies the source in logs.
func (s *Source) Name() string { return "csv" }

// FetchPositions parses the whole file.
func (s *Source) FetchPositions(ctx context.Context) ([]domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", s.path, ports.ErrContextCanceled, err)
	}
	positions, err := utils.ReadPositionsFromCSV(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", ports.ErrNotFound, err)
		}
		s.logger.Error(ctx, err, "Failed to read CSV snapshot", map[string]interface{}{"path": s.path})
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	s.logger.Debug(ctx, "CSV snapshot loaded", map[string]interface{}{"path": s.path, "positions": len(positions)})
	return positions, nil
}
