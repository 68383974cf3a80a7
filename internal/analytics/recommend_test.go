package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hujadis/geraship/internal/domain"
)

// bullishAsset has 10 positions: 7 wins, 80% long, leverage 8 and a
// smart-money average PnL of +3000.
func bullishAsset(asset string) []domain.Position {
	pnls := []float64{6000, 6000, 6000, 6000, 6000, 1500, 1500, -1000, -1000, -1000}
	positions := make([]domain.Position, 0, len(pnls))
	for i, pnl := range pnls {
		positions = append(positions, position(asset, "W", i < 8, 10, 150, 8, pnl))
	}
	return positions
}

func TestScoreAsset_StrongLong(t *testing.T) {
	rec := ScoreAsset("BTC", bullishAsset("BTC"))

	assert.Equal(t, domain.ActionLong, rec.Action)
	// 0.8 win rate + 0.9 smart money + 0.7 long share + 0.3 leverage + 0.4 count
	assert.InDelta(t, 3.1, rec.Metrics.BullishScore, 1e-9)
	assert.Equal(t, 0.0, rec.Metrics.BearishScore)
	assert.Equal(t, 95, rec.Confidence)
	assert.InDelta(t, 70.0, rec.Metrics.WinRate, 1e-9)
	assert.InDelta(t, 3000.0, rec.Metrics.SmartMoneyAvgPnL, 1e-9)
	assert.InDelta(t, 80.0, rec.Metrics.LongShare, 1e-9)
	assert.InDelta(t, 8.0, rec.Metrics.AverageLeverage, 1e-9)
	require.Len(t, rec.Reasons, 5)
	assert.Contains(t, rec.Reasons[0], "Smart money", "reasons are ranked by strength")
	assert.Contains(t, rec.Reasons[4], "Conservative leverage")
}

func TestScoreAsset_Short(t *testing.T) {
	positions := []domain.Position{
		position("ETH", "W", false, 1, 2000, 12, -3000),
		position("ETH", "W", false, 1, 2000, 12, -3000),
		position("ETH", "W", false, 1, 2000, 12, -3000),
		position("ETH", "W", true, 1, 2000, 12, 1000),
	}
	rec := ScoreAsset("ETH", positions)

	// 0.8 low win rate + 0.7 short share; smart money average is exactly -2000
	assert.InDelta(t, 1.5, rec.Metrics.BearishScore, 1e-9)
	assert.Equal(t, domain.ActionShort, rec.Action)
	assert.Equal(t, 60, rec.Confidence)
}

func TestScoreAsset_Hold(t *testing.T) {
	rec := ScoreAsset("SOL", []domain.Position{
		position("SOL", "W", true, 1, 150, 15, 500),
		position("SOL", "W", false, 1, 150, 15, -500),
	})
	assert.Equal(t, domain.ActionHold, rec.Action)
	assert.Equal(t, 40, rec.Confidence)
	assert.Empty(t, rec.Reasons)
}

func TestScoreAsset_HighLeverageAndCheapEntry(t *testing.T) {
	rec := ScoreAsset("PEPE", []domain.Position{
		position("PEPE", "W", true, 1e6, 0.01, 30, 100),
		position("PEPE", "W", false, 1e6, 0.01, 30, 100),
	})
	// bullish 0.8 win rate + 0.6 cheap entry, bearish 0.5 leverage
	assert.InDelta(t, 1.4, rec.Metrics.BullishScore, 1e-9)
	assert.InDelta(t, 0.5, rec.Metrics.BearishScore, 1e-9)
	assert.Equal(t, domain.ActionLong, rec.Action)
	assert.Equal(t, 36, rec.Confidence)
}

func TestSmartMoney(t *testing.T) {
	assert.True(t, IsExtreme(position("A", "W", true, 1, 1, 1, 50000)))
	assert.False(t, IsExtreme(position("A", "W", true, 1, 1, 1, 49999)))
	assert.True(t, IsExtreme(position("A", "W", true, 1, 1, 1, -25000)))
	assert.False(t, IsExtreme(position("A", "W", true, 1, 1, 1, -24999)))

	positions := append(bullishAsset("BTC"), position("BTC", "W", true, 10, 150, 8, 90000))
	assert.Len(t, SmartMoney(positions), 10)

	rec := ScoreAsset("BTC", positions)
	assert.Equal(t, 11, rec.Metrics.PositionCount)
	assert.Equal(t, 10, rec.Metrics.SmartMoneyCount)
	assert.InDelta(t, 3000.0, rec.Metrics.SmartMoneyAvgPnL, 1e-9, "the outlier is excluded from the smart-money average")
}

func TestRecommend_Suggestions(t *testing.T) {
	var positions []domain.Position
	positions = append(positions, bullishAsset("BTC")...)
	for i := 0; i < 4; i++ {
		positions = append(positions, position("XYZ", "W", true, 1, 150, 12, -2000))
	}
	positions = append(positions,
		position("DOT", "W", true, 1, 5, 12, 100),
		position("DOT", "W", true, 1, 5, 12, 100),
	)

	report := Recommend(AggregateAssets(positions, testNow))

	require.Len(t, report.AI, 3)
	assert.Equal(t, "BTC", report.AI[0].Asset)

	require.Len(t, report.Long, 1)
	long := report.Long[0]
	assert.Equal(t, "BTC", long.Asset)
	assert.Equal(t, TierHigh, long.Tier)
	assert.False(t, long.Contrarian)
	assert.Equal(t, 10, long.ProfessionalCount)
	assert.InDelta(t, 4.0, long.Score, 1e-9)

	require.Len(t, report.Short, 1, "DOT has fewer than three smart-money positions")
	contrarian := report.Short[0]
	assert.Equal(t, "XYZ", contrarian.Asset)
	assert.True(t, contrarian.Contrarian)
	assert.Equal(t, TierLow, contrarian.Tier)
	assert.InDelta(t, 1.4, contrarian.Score, 1e-9)
}

func TestRecommend_MomentumAndArbitrage(t *testing.T) {
	positions := []domain.Position{
		createdDaysAgo(position("BTC", "W", true, 1, 100, 5, 3000), 2),
		createdDaysAgo(position("BTC", "W", false, 1, 100, 5, -500), 90),
		createdDaysAgo(position("ETH", "W", true, 1, 100, 5, 100), 2),
		createdDaysAgo(position("ETH", "W", true, 1, 100, 5, 50), 90),
	}
	report := Recommend(AggregateAssets(positions, testNow))

	require.Len(t, report.Momentum, 1)
	assert.Equal(t, "BTC", report.Momentum[0].Asset)
	assert.Equal(t, domain.ActionLong, report.Momentum[0].Direction)
	assert.InDelta(t, 3500.0, report.Momentum[0].Value, 1e-9)

	require.Len(t, report.Arbitrage, 1)
	assert.Equal(t, "BTC", report.Arbitrage[0].Asset)
	assert.Equal(t, domain.ActionLong, report.Arbitrage[0].Direction)
	assert.InDelta(t, 3500.0, report.Arbitrage[0].Value, 1e-9)
}

func TestRecommend_Empty(t *testing.T) {
	report := Recommend(nil)
	assert.NotNil(t, report.AI)
	assert.Empty(t, report.AI)
	assert.Empty(t, report.Long)
	assert.Empty(t, report.Short)
	assert.Empty(t, report.Momentum)
	assert.Empty(t, report.Arbitrage)
}
