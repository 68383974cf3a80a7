package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hujadis/geraship/config"
	"github.com/hujadis/geraship/internal/analytics"
	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/ports"
)

// AnalysisService loads one complete snapshot from the configured position
// sources and runs a single analysis pass over it.
type AnalysisService struct {
	cfg     *config.Config
	logger  ports.Logger
	sources []ports.PositionSource
	clock   func() time.Time
}

// NewAnalysisService creates a new application service instance. Sources are
// concatenated in the order given.
func NewAnalysisService(cfg *config.Config, logger ports.Logger, sources ...ports.PositionSource) (*AnalysisService, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for AnalysisService: %w", ports.ErrConfigurationError)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one position source is required: %w", ports.ErrConfigurationError)
	}
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("position source %d is nil: %w", i, ports.ErrConfigurationError)
		}
	}
	return &AnalysisService{
		cfg:     cfg,
		logger:  logger,
		sources: sources,
		clock:   time.Now,
	}, nil
}

// FetchSnapshot fetches every source concurrently and merges the results in
// source order. Positions with a non-zero ID that was already seen are
// dropped; the first occurrence wins. Any source failure fails the whole
// fetch, so callers never see a partial snapshot.
func (s *AnalysisService) FetchSnapshot(ctx context.Context) ([]domain.Position, error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	results := make([][]domain.Position, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		i, src := i, src
		g.Go(func() error {
			start := time.Now()
			positions, err := src.FetchPositions(gctx)
			if err != nil {
				s.logger.Error(gctx, err, "Position source failed", map[string]interface{}{"source": src.Name()})
				return fmt.Errorf("source %s: %w", src.Name(), err)
			}
			s.logger.Debug(gctx, "Position source fetched", map[string]interface{}{
				"source":    src.Name(),
				"positions": len(positions),
				"elapsed":   time.Since(start).String(),
			})
			results[i] = positions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ports.ErrTimeout) {
			err = fmt.Errorf("%w: %w", ports.ErrTimeout, err)
		}
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}

	merged, duplicates := mergeSnapshots(results)
	if duplicates > 0 {
		s.logger.Warn(ctx, "Dropped duplicate positions across sources", map[string]interface{}{"duplicates": duplicates})
	}
	return merged, nil
}

func mergeSnapshots(results [][]domain.Position) ([]domain.Position, int) {
	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]domain.Position, 0, total)
	seen := make(map[int64]bool, total)
	duplicates := 0
	for _, r := range results {
		for _, p := range r {
			if p.ID != 0 {
				if seen[p.ID] {
					duplicates++
					continue
				}
				seen[p.ID] = true
			}
			merged = append(merged, p)
		}
	}
	return merged, duplicates
}

// Options builds the analysis options from configuration. A zero configured
// time is resolved to the service clock so every metric in one pass uses the
// same reference time.
func (s *AnalysisService) Options() analytics.Options {
	now := s.cfg.Now
	if now.IsZero() {
		now = s.clock()
	}
	return analytics.Options{
		Now:                    now,
		IncludePatterns:        s.cfg.IncludePatterns,
		IncludeRecommendations: s.cfg.IncludeRecommendations,
		SampleLimit:            s.cfg.PatternSampleLimit,
	}
}

// Run fetches a snapshot and analyzes it.
func (s *AnalysisService) Run(ctx context.Context) (analytics.Report, error) {
	s.logger.Info(ctx, "Starting analysis", map[string]interface{}{"sources": len(s.sources)})

	positions, err := s.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Analysis aborted")
		return analytics.Report{}, err
	}
	if len(positions) == 0 {
		s.logger.Warn(ctx, "Snapshot is empty, all aggregates will be empty")
	}

	start := time.Now()
	report := analytics.Analyze(positions, s.Options())
	s.logger.Info(ctx, "Analysis complete", map[string]interface{}{
		"reportID":  report.ID,
		"positions": report.PositionCount,
		"wallets":   len(report.Wallets),
		"assets":    len(report.Assets),
		"sentiment": string(report.Portfolio.Sentiment),
		"elapsed":   time.Since(start).String(),
	})
	return report, nil
}
