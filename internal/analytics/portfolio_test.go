package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hujadis/geraship/internal/domain"
)

func computeAll(positions []domain.Position) PortfolioSnapshot {
	assets := AggregateAssets(positions, testNow)
	wallets := AggregateWallets(positions)
	return ComputePortfolio(positions, assets, wallets, testNow)
}

func TestComputePortfolio_Empty(t *testing.T) {
	snap := computeAll(nil)

	assert.Equal(t, 0, snap.TotalPositions)
	assert.Equal(t, domain.SentimentNeutral, snap.Sentiment)
	assert.Equal(t, 0.0, snap.Performance.WinRate)
	assert.Equal(t, 0.0, snap.Performance.ProfitFactor)
	assert.Equal(t, 0.0, snap.Performance.SharpeRatio)
	assert.Equal(t, 0.0, snap.Risk.Score)
	assert.Nil(t, snap.Performance.BestPerformer)
	assert.Len(t, snap.Leverage, 5)
	assert.Len(t, snap.Time.Hourly, 24)
	assert.Len(t, snap.Windows, 3)
	for _, v := range []float64{
		snap.AverageLeverage, snap.Performance.Expectancy, snap.Risk.Diversification,
		snap.Wallets.DiversityScore, snap.Advanced.KellyCriterion, snap.Advanced.TreynorRatio,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestComputePortfolio_Performance(t *testing.T) {
	best := position("BTC", "A", true, 1, 100, 5, 400)
	closed := position("ETH", "B", false, 2, 50, 10, -100)
	closed.Status = "closed"
	closed.CreatedAt = domain.Time(testNow.Add(-48 * time.Hour))
	closed.UpdatedAt = domain.Time(testNow)

	positions := []domain.Position{
		position("BTC", "A", true, 1, 100, 5, 200),
		best,
		closed,
		position("BTC", "A", true, 1, 100, 5, -100),
	}
	snap := computeAll(positions)

	assert.Equal(t, 4, snap.TotalPositions)
	assert.Equal(t, 3, snap.ActiveCount)
	assert.Equal(t, 1, snap.ClosedCount)
	assert.Equal(t, 3, snap.LongCount)
	assert.Equal(t, 1, snap.ShortCount)
	assert.Equal(t, domain.SentimentBullish, snap.Sentiment)
	assert.Equal(t, 2, snap.UniqueAssets)
	assert.Equal(t, 2, snap.UniqueWallets)

	perf := snap.Performance
	assert.InDelta(t, 400.0, perf.TotalPnL, 1e-9)
	assert.InDelta(t, 50.0, perf.WinRate, 1e-9)
	assert.InDelta(t, 3.0, perf.ProfitFactor, 1e-9)
	assert.Equal(t, 2, perf.MaxConsecutiveWins)
	assert.Equal(t, 2, perf.MaxConsecutiveLosses)
	assert.InDelta(t, 300.0, perf.AverageWin, 1e-9)
	assert.InDelta(t, 100.0, perf.AverageLoss, 1e-9)
	assert.InDelta(t, 100.0, perf.Expectancy, 1e-9)
	assert.InDelta(t, 2.0, perf.AverageHoldingDays, 1e-9)
	require.NotNil(t, perf.BestPerformer)
	require.NotNil(t, perf.WorstPerformer)
	assert.InDelta(t, 400.0, *perf.BestPerformer.PnL, 1e-9)
	assert.InDelta(t, -100.0, *perf.WorstPerformer.PnL, 1e-9)
	// peak 600 after two wins, running 400 after both losses
	assert.InDelta(t, 200.0/600*100, perf.MaxDrawdown, 1e-9)

	assert.Equal(t, "A", snap.Wallets.TopWallet)
	assert.InDelta(t, 500.0, snap.Wallets.TopWalletPnL, 1e-9)
	assert.InDelta(t, 125.0, snap.Wallets.Concentration, 1e-9)
}

func TestComputePortfolio_ProfitFactorCap(t *testing.T) {
	snap := computeAll([]domain.Position{
		position("BTC", "A", true, 1, 100, 5, 10),
		position("BTC", "A", true, 1, 100, 5, 20),
	})
	assert.Equal(t, ProfitFactorCap, snap.Performance.ProfitFactor)
	assert.Equal(t, 0.0, snap.Advanced.KellyCriterion)
}

func TestComputePortfolio_LeverageAndTime(t *testing.T) {
	p1 := position("BTC", "A", true, 1, 100, 3, 10)
	p1.CreatedAt = domain.Time(time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)) // Monday
	p2 := position("BTC", "A", true, 1, 100, 60, -10)
	p2.CreatedAt = domain.Time(time.Date(2025, 7, 12, 23, 0, 0, 0, time.FixedZone("X", 3600)))

	snap := computeAll([]domain.Position{p1, p2, position("BTC", "A", true, 1, 100, 15, 5)})

	assert.Equal(t, 1, snap.Leverage[0].Count)
	assert.Equal(t, 1, snap.Leverage[2].Count)
	assert.Equal(t, 1, snap.Leverage[4].Count)
	assert.InDelta(t, 100.0, snap.Leverage[0].WinRate, 1e-9)

	assert.Equal(t, 1, snap.Time.Hourly[9].Count)
	assert.Equal(t, 1, snap.Time.Hourly[22].Count, "buckets use UTC")
	assert.Equal(t, 1, snap.Time.Weekday[int(time.Monday)].Count)
	assert.Equal(t, 1, snap.Time.Monthly[0].Count)
	assert.Equal(t, "Winter", snap.Time.Seasonal[0].Label)
	assert.Equal(t, 1, snap.Time.Seasonal[0].Count)
	assert.Equal(t, 1, snap.Time.Seasonal[2].Count)
}

func TestComputePortfolio_ActivityWindows(t *testing.T) {
	snap := computeAll([]domain.Position{
		createdDaysAgo(position("BTC", "A", true, 1, 100, 5, 100), 3),
		createdDaysAgo(position("BTC", "A", true, 1, 100, 5, -50), 20),
		createdDaysAgo(position("BTC", "A", true, 1, 100, 5, 10), 200),
		position("BTC", "A", true, 1, 100, 5, 1),
	})
	require.Len(t, snap.Windows, 3)
	assert.Equal(t, 7, snap.Windows[0].Days)
	assert.Equal(t, 1, snap.Windows[0].Count)
	assert.Equal(t, 2, snap.Windows[1].Count)
	assert.InDelta(t, 50.0, snap.Windows[1].TotalPnL, 1e-9)
	assert.Equal(t, 3, snap.Windows[2].Count)
}

func TestComputePortfolio_RiskScoreClamped(t *testing.T) {
	extreme := []domain.Position{
		position("XYZ", "A", true, 1e9, 1e6, 1000, 1e9),
		position("XYZ", "A", true, 1e9, 1e6, 1000, -1e9),
		position("XYZ", "A", false, 1e9, 1e6, 1000, 1e9),
	}
	snap := computeAll(extreme)
	assert.GreaterOrEqual(t, snap.Risk.Score, 0.0)
	assert.LessOrEqual(t, snap.Risk.Score, 100.0)
	assert.Equal(t, 3, snap.Risk.HighRiskPositions)
	assert.InDelta(t, 100.0, snap.Risk.HighRiskRatio, 1e-9)
	assert.Equal(t, "XYZ", snap.Risk.TopAsset)
	assert.InDelta(t, 100.0, snap.Risk.TopAssetConcentration, 1e-9)

	calm := computeAll([]domain.Position{
		position("BTC", "A", true, 1, 100, 2, 10),
		position("ETH", "B", true, 1, 100, 2, 10),
	})
	assert.GreaterOrEqual(t, calm.Risk.Score, 0.0)
	assert.InDelta(t, 15.0, calm.Risk.Score, 1e-9)
}
