package analytics

import (
	"sort"
	"time"

	"github.com/hujadis/geraship/internal/domain"
)

// momentumWindow separates "recent" positions from older ones.
const momentumWindow = 30 * 24 * time.Hour

// AssetSummary holds per-asset statistics for one snapshot.
type AssetSummary struct {
	Asset              string            `json:"asset"`
	Positions          []domain.Position `json:"-"`
	PositionCount      int               `json:"position_count"`
	LongCount          int               `json:"long_count"`
	ShortCount         int               `json:"short_count"`
	UnknownCount       int               `json:"unknown_count"`
	ActiveCount        int               `json:"active_count"`
	Wins               int               `json:"wins"`
	TotalPnL           float64           `json:"total_pnl"`
	AveragePnL         float64           `json:"average_pnl"`
	AverageEntryPrice  float64           `json:"average_entry_price"`
	TotalVolume        float64           `json:"total_volume"`
	Sentiment          domain.Sentiment  `json:"sentiment"`
	WinRate            float64           `json:"win_rate"`
	AverageLeverage    float64           `json:"average_leverage"`
	Volatility         float64           `json:"volatility"`
	SharpeRatio        float64           `json:"sharpe_ratio"`
	MaxDrawdown        float64           `json:"max_drawdown"`
	Momentum           float64           `json:"momentum"`
	CurrentPrice       float64           `json:"current_price"`
	PriceChangePercent float64           `json:"price_change_percent"`
}

// assetAccumulator is the raw group for one asset: the positions in snapshot
// order plus the sums that need no second pass.
type assetAccumulator struct {
	asset         string
	positions     []domain.Position
	longs         int
	shorts        int
	unknown       int
	active        int
	wins          int
	totalPnL      float64
	entrySum      float64
	entryCount    int
	leverageSum   float64
	leverageCount int
	volume        float64
}

// AggregateAssets groups positions by asset symbol and returns one summary
// per distinct non-empty symbol, ordered by position count (largest first).
// now anchors the 30-day momentum window.
func AggregateAssets(positions []domain.Position, now time.Time) []AssetSummary {
	accs := make(map[string]*assetAccumulator)
	order := make([]string, 0)

	for _, p := range positions {
		if p.Asset == "" {
			continue
		}
		acc, ok := accs[p.Asset]
		if !ok {
			acc = &assetAccumulator{asset: p.Asset}
			accs[p.Asset] = acc
			order = append(order, p.Asset)
		}
		acc.add(p)
	}

	summaries := make([]AssetSummary, 0, len(order))
	for _, asset := range order {
		summaries = append(summaries, finalizeAsset(accs[asset], now))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].PositionCount > summaries[j].PositionCount
	})
	return summaries
}

func (acc *assetAccumulator) add(p domain.Position) {
	acc.positions = append(acc.positions, p)
	switch p.Direction() {
	case domain.DirectionLong:
		acc.longs++
	case domain.DirectionShort:
		acc.shorts++
	default:
		acc.unknown++
	}
	if p.IsActive() {
		acc.active++
	}
	pnl := p.PnLOrZero()
	if pnl > 0 {
		acc.wins++
	}
	acc.totalPnL += pnl
	if p.EntryPrice != nil {
		acc.entrySum += *p.EntryPrice
		acc.entryCount++
	}
	if lev := p.LeverageOrZero(); lev > 0 {
		acc.leverageSum += lev
		acc.leverageCount++
	}
	acc.volume += p.Notional()
}

func finalizeAsset(acc *assetAccumulator, now time.Time) AssetSummary {
	n := len(acc.positions)
	pnls := make([]float64, 0, n)
	for _, p := range acc.positions {
		pnls = append(pnls, p.PnLOrZero())
	}

	var avgEntry, avgLeverage float64
	if acc.entryCount > 0 {
		avgEntry = acc.entrySum / float64(acc.entryCount)
	}
	if acc.leverageCount > 0 {
		avgLeverage = acc.leverageSum / float64(acc.leverageCount)
	}

	current, change := derivedAssetPrice(acc.positions, avgEntry)

	return AssetSummary{
		Asset:              acc.asset,
		Positions:          acc.positions,
		PositionCount:      n,
		LongCount:          acc.longs,
		ShortCount:         acc.shorts,
		UnknownCount:       acc.unknown,
		ActiveCount:        acc.active,
		Wins:               acc.wins,
		TotalPnL:           acc.totalPnL,
		AveragePnL:         mean(pnls),
		AverageEntryPrice:  avgEntry,
		TotalVolume:        acc.volume,
		Sentiment:          sentimentOf(acc.longs, acc.shorts, n),
		WinRate:            percent(float64(acc.wins), float64(n)),
		AverageLeverage:    avgLeverage,
		Volatility:         stdDev(pnls),
		SharpeRatio:        sharpe(pnls),
		MaxDrawdown:        maxDrawdown(pnls),
		Momentum:           momentum(acc.positions, now),
		CurrentPrice:       current,
		PriceChangePercent: change,
	}
}

// sentimentOf is bullish only when longs strictly outnumber shorts; ties are
// bearish. An empty group is neutral.
func sentimentOf(longs, shorts, total int) domain.Sentiment {
	if total == 0 {
		return domain.SentimentNeutral
	}
	if longs > shorts {
		return domain.SentimentBullish
	}
	return domain.SentimentBearish
}

// momentum is the average PnL of positions created in the last 30 days minus
// the average PnL of older ones. Positions without a creation time belong to
// neither window. It is 0 when there is nothing older to compare against.
func momentum(positions []domain.Position, now time.Time) float64 {
	cutoff := now.Add(-momentumWindow)
	var recent, older []float64
	for _, p := range positions {
		if p.CreatedAt == nil {
			continue
		}
		if p.CreatedAt.After(cutoff) {
			recent = append(recent, p.PnLOrZero())
		} else {
			older = append(older, p.PnLOrZero())
		}
	}
	if len(older) == 0 {
		return 0
	}
	return mean(recent) - mean(older)
}

// derivedAssetPrice averages the per-position derived current price and price
// change. Without any derivable position it falls back to the average entry
// price and no change.
func derivedAssetPrice(positions []domain.Position, avgEntry float64) (float64, float64) {
	var prices, changes []float64
	for _, p := range positions {
		current, ok := CurrentPrice(p)
		if !ok {
			continue
		}
		prices = append(prices, current)
		if change, ok := PriceChangePercent(p); ok {
			changes = append(changes, change)
		}
	}
	if len(prices) == 0 {
		return avgEntry, 0
	}
	return mean(prices), mean(changes)
}
