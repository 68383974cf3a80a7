package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/hujadis/geraship/internal/domain"
)

// Options selects the optional sub-reports of an analysis pass.
type Options struct {
	// Now is the reference time for every time-windowed metric. Zero means
	// time.Now().
	Now                    time.Time
	IncludePatterns        bool
	IncludeRecommendations bool
	SampleLimit            int
}

// DefaultOptions enables every sub-report.
func DefaultOptions() Options {
	return Options{
		IncludePatterns:        true,
		IncludeRecommendations: true,
		SampleLimit:            DefaultSampleLimit,
	}
}

// Report is the read-only result of one analysis pass.
type Report struct {
	ID              string                `json:"id"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Now             time.Time             `json:"now"`
	PositionCount   int                   `json:"position_count"`
	Wallets         []WalletSummary       `json:"wallets"`
	Assets          []AssetSummary        `json:"assets"`
	Portfolio       PortfolioSnapshot     `json:"portfolio"`
	Patterns        *PatternReport        `json:"patterns,omitempty"`
	Recommendations *RecommendationReport `json:"recommendations,omitempty"`
}

// Analyze runs a full pass over the snapshot. The input slice is not
// modified.
func Analyze(positions []domain.Position, opts Options) Report {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if positions == nil {
		positions = []domain.Position{}
	}

	wallets := AggregateWallets(positions)
	assets := AggregateAssets(positions, now)
	portfolio := ComputePortfolio(positions, assets, wallets, now)

	report := Report{
		ID:            uuid.New().String(),
		GeneratedAt:   time.Now().UTC(),
		Now:           now,
		PositionCount: len(positions),
		Wallets:       wallets,
		Assets:        assets,
		Portfolio:     portfolio,
	}
	if opts.IncludePatterns {
		patterns := DetectPatterns(positions, assets, portfolio.Sentiment, now, opts.SampleLimit)
		report.Patterns = &patterns
	}
	if opts.IncludeRecommendations {
		recs := Recommend(assets)
		report.Recommendations = &recs
	}
	return report
}
