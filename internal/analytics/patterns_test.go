package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hujadis/geraship/internal/domain"
)

func findPattern(patterns []Pattern, kind string) (Pattern, int) {
	var found Pattern
	n := 0
	for _, p := range patterns {
		if p.Type == kind {
			found = p
			n++
		}
	}
	return found, n
}

func TestDetectPatterns_LeverageTiersOverlap(t *testing.T) {
	positions := []domain.Position{
		{Asset: "XYZ", Leverage: domain.Float(80)},
		{Asset: "XYZ", Leverage: domain.Float(90)},
	}
	report := DetectPatterns(positions, nil, domain.SentimentNeutral, testNow, 0)

	ultra, n := findPattern(report.Unusual, "ultra_high_leverage")
	require.Equal(t, 1, n)
	assert.Equal(t, 2, ultra.Count)
	assert.Equal(t, domain.SignificanceHigh, ultra.Significance)
	assert.Len(t, ultra.Samples, 2)

	extreme, n := findPattern(report.Unusual, "extreme_leverage")
	require.Equal(t, 1, n)
	assert.Equal(t, 2, extreme.Count)
}

func TestDetectPatterns_Rules(t *testing.T) {
	contrarian := position("BTC", "W", false, 1, 60000, 5, 1500)
	whale := position("ETH", "W", true, -2_000_000, 3000, 5, 0)
	cheap := position("DOGE", "W", true, 1000, 0.2, 5, 12000)
	recent := createdDaysAgo(position("SOL", "W", true, 10, 150, 5, 6000), 3)
	obscure := createdDaysAgo(position("FOOBAR", "W", true, 2_000_000, 0.01, 5, 11000), 10)

	positions := []domain.Position{contrarian, whale, cheap, recent, obscure}
	report := DetectPatterns(positions, nil, domain.SentimentBullish, testNow, 1)

	counts := map[string]int{}
	for _, p := range report.Unusual {
		counts[p.Type] = p.Count
		assert.LessOrEqual(t, len(p.Samples), 1)
		assert.NotEmpty(t, p.Description)
	}
	assert.Equal(t, 2, counts["whale_activity"], "whale size uses the absolute value")
	assert.Equal(t, 2, counts["high_pnl_low_entry"])
	assert.Equal(t, 1, counts["perfect_market_timing"])
	assert.Equal(t, 1, counts["successful_contrarian"])
	assert.Equal(t, 1, counts["obscure_high_conviction"])
	assert.Equal(t, 1, counts["obscure_million_dollar"])
	assert.Equal(t, 1, counts["obscure_perfect_timing"])
	assert.NotContains(t, counts, "ultra_high_leverage", "rules without matches are omitted")
}

func TestDetectPatterns_UsualAlwaysEmitted(t *testing.T) {
	report := DetectPatterns(nil, nil, domain.SentimentNeutral, testNow, 0)
	assert.Empty(t, report.Unusual)
	assert.Empty(t, report.Correlations)
	require.Len(t, report.Usual, 2)
	assert.Equal(t, "moderate_leverage", report.Usual[0].Type)
	assert.Equal(t, 0, report.Usual[0].Count)
	assert.Equal(t, "trend_following", report.Usual[1].Type)

	positions := []domain.Position{
		position("BTC", "W", true, 1, 100, 5, 10),
		position("BTC", "W", true, 1, 100, 20, 10),
		position("BTC", "W", false, 1, 100, 21, 10),
	}
	report = DetectPatterns(positions, nil, domain.SentimentBullish, testNow, 0)
	assert.Equal(t, 2, report.Usual[0].Count)
	assert.Equal(t, 2, report.Usual[1].Count)
}

func TestIsMajorAsset(t *testing.T) {
	assert.True(t, IsMajorAsset("BTC"))
	assert.True(t, IsMajorAsset("btc-perp"))
	assert.True(t, IsMajorAsset("kPEPE"))
	assert.False(t, IsMajorAsset("XYZ"))
	assert.False(t, IsMajorAsset(""))
	assert.Len(t, MajorAssets, 30)
}

func TestCorrelateAssets(t *testing.T) {
	var positions []domain.Position
	for i, pnl := range []float64{100, 200, 300, 400} {
		positions = append(positions,
			position("AAA", "W", true, 1, 10, 2, pnl),
			position("BBB", "W", true, 1, 10, 2, pnl*2+5),
			position("CCC", "W", true, 1, 10, 2, float64(i%2)*50),
		)
	}
	positions = append(positions, position("DDD", "W", true, 1, 10, 2, 1))

	assets := AggregateAssets(positions, testNow)
	corr := CorrelateAssets(assets)
	require.NotEmpty(t, corr)
	assert.InDelta(t, 1.0, corr[0].Coefficient, 1e-9)
	assert.ElementsMatch(t, []string{"AAA", "BBB"}, []string{corr[0].AssetA, corr[0].AssetB})
	assert.Equal(t, 4, corr[0].Samples)
	for _, c := range corr {
		assert.NotEqual(t, "DDD", c.AssetA, "too few samples")
		assert.NotEqual(t, "DDD", c.AssetB, "too few samples")
	}

	report := DetectPatterns(positions, assets, domain.SentimentBullish, testNow, 0)
	correlated, n := findPattern(report.Unusual, "correlated_assets")
	require.Equal(t, 1, n)
	assert.GreaterOrEqual(t, correlated.Count, 1)
}
