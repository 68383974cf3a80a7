package analytics

import (
	"math"
	"time"

	"github.com/hujadis/geraship/internal/domain"
)

const (
	// ProfitFactorCap is reported when there are winning trades and no losses.
	ProfitFactorCap = 999.0

	highRiskLeverage = 20
	highRiskPnL      = 10000

	riskWeightHighRisk      = 40
	riskWeightConcentration = 30
	riskCapVolatility       = 20
	riskCapDrawdown         = 10
)

// PortfolioSnapshot aggregates the whole snapshot. Exactly one is produced per
// analysis pass.
type PortfolioSnapshot struct {
	TotalPositions  int                 `json:"total_positions"`
	ActiveCount     int                 `json:"active_count"`
	ClosedCount     int                 `json:"closed_count"`
	LongCount       int                 `json:"long_count"`
	ShortCount      int                 `json:"short_count"`
	UnknownCount    int                 `json:"unknown_count"`
	Sentiment       domain.Sentiment    `json:"sentiment"`
	UniqueAssets    int                 `json:"unique_assets"`
	UniqueWallets   int                 `json:"unique_wallets"`
	TotalVolume     float64             `json:"total_volume"`
	AverageLeverage float64             `json:"average_leverage"`
	Performance     PerformanceMetrics  `json:"performance"`
	Risk            RiskMetrics         `json:"risk"`
	Wallets         WalletConcentration `json:"wallets"`
	Time            TimeDistribution    `json:"time"`
	Leverage        []Bucket            `json:"leverage"`
	Windows         []ActivityWindow    `json:"windows"`
	Advanced        AdvancedRatios      `json:"advanced"`
}

// PerformanceMetrics holds whole-snapshot performance figures.
type PerformanceMetrics struct {
	TotalPnL             float64          `json:"total_pnl"`
	Wins                 int              `json:"wins"`
	Losses               int              `json:"losses"`
	WinRate              float64          `json:"win_rate"`
	WinningPnL           float64          `json:"winning_pnl"`
	LosingPnL            float64          `json:"losing_pnl"` // absolute value
	ProfitFactor         float64          `json:"profit_factor"`
	SharpeRatio          float64          `json:"sharpe_ratio"`
	MaxDrawdown          float64          `json:"max_drawdown"`
	AverageHoldingDays   float64          `json:"average_holding_days"`
	AverageWin           float64          `json:"average_win"`
	AverageLoss          float64          `json:"average_loss"` // absolute value
	Expectancy           float64          `json:"expectancy"`
	MaxConsecutiveWins   int              `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int              `json:"max_consecutive_losses"`
	BestPerformer        *domain.Position `json:"best_performer,omitempty"`
	WorstPerformer       *domain.Position `json:"worst_performer,omitempty"`
}

// RiskMetrics holds the composite risk score and its four inputs.
// Ratios are percentages (0-100).
type RiskMetrics struct {
	Score                 float64 `json:"score"`
	HighRiskPositions     int     `json:"high_risk_positions"`
	HighRiskRatio         float64 `json:"high_risk_ratio"`
	TopAsset              string  `json:"top_asset"`
	TopAssetConcentration float64 `json:"top_asset_concentration"`
	VolatilityIndex       float64 `json:"volatility_index"`
	MaxAssetDrawdown      float64 `json:"max_asset_drawdown"`
	Diversification       float64 `json:"diversification"`
}

// WalletConcentration describes how PnL is spread across wallets.
type WalletConcentration struct {
	TopWallet      string  `json:"top_wallet"`
	TopWalletPnL   float64 `json:"top_wallet_pnl"`
	Concentration  float64 `json:"concentration"`
	DiversityScore float64 `json:"diversity_score"`
}

// Bucket is one cell of a distribution.
type Bucket struct {
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Wins     int     `json:"wins"`
	TotalPnL float64 `json:"total_pnl"`
	WinRate  float64 `json:"win_rate"`
}

// TimeDistribution buckets positions by their creation time (UTC).
type TimeDistribution struct {
	Hourly   []Bucket `json:"hourly"`   // 0-23
	Weekday  []Bucket `json:"weekday"`  // Sunday first
	Monthly  []Bucket `json:"monthly"`  // January first
	Seasonal []Bucket `json:"seasonal"` // Winter, Spring, Summer, Autumn
}

// ActivityWindow summarizes positions created in the trailing window.
type ActivityWindow struct {
	Days     int     `json:"days"`
	Count    int     `json:"count"`
	TotalPnL float64 `json:"total_pnl"`
	WinRate  float64 `json:"win_rate"`
}

// AdvancedRatios are simplified proxies built from the same PnL primitives.
// Sortino reuses the Sharpe formula and Treynor is the mean PnL with no beta
// factor.
type AdvancedRatios struct {
	KellyCriterion   float64 `json:"kelly_criterion"`
	InformationRatio float64 `json:"information_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	TreynorRatio     float64 `json:"treynor_ratio"`
}

var (
	seasonLabels   = []string{"Winter", "Spring", "Summer", "Autumn"}
	leverageLabels = []string{"<=5x", "5-10x", "10-20x", "20-50x", ">50x"}
	windowDays     = []int{7, 30, 365}
)

// ComputePortfolio derives the portfolio snapshot from the positions and the
// already computed asset and wallet summaries.
func ComputePortfolio(positions []domain.Position, assets []AssetSummary, wallets []WalletSummary, now time.Time) PortfolioSnapshot {
	snap := PortfolioSnapshot{
		TotalPositions: len(positions),
		UniqueAssets:   len(assets),
		UniqueWallets:  len(wallets),
		Time:           newTimeDistribution(),
		Leverage:       newBuckets(leverageLabels),
	}

	pnls := make([]float64, 0, len(positions))
	returns := make([]float64, 0, len(positions))
	var leverageSum float64
	var leverageCount, highRisk int
	var holdingSum time.Duration
	var holdingCount int

	perf := &snap.Performance
	var winStreak, lossStreak int

	for i := range positions {
		p := positions[i]
		pnl := p.PnLOrZero()
		pnls = append(pnls, pnl)
		if r, ok := CorrectedPnLPercentage(p); ok {
			returns = append(returns, r)
		}

		if p.IsActive() {
			snap.ActiveCount++
		} else {
			snap.ClosedCount++
		}
		switch p.Direction() {
		case domain.DirectionLong:
			snap.LongCount++
		case domain.DirectionShort:
			snap.ShortCount++
		default:
			snap.UnknownCount++
		}
		snap.TotalVolume += p.Notional()

		lev := p.LeverageOrZero()
		if lev > 0 {
			leverageSum += lev
			leverageCount++
			snap.Leverage[leverageBucket(lev)].add(pnl)
		}
		if lev > highRiskLeverage || math.Abs(pnl) > highRiskPnL {
			highRisk++
		}

		perf.TotalPnL += pnl
		switch {
		case pnl > 0:
			perf.Wins++
			perf.WinningPnL += pnl
			winStreak++
			lossStreak = 0
		case pnl < 0:
			perf.Losses++
			perf.LosingPnL -= pnl
			lossStreak++
			winStreak = 0
		default:
			winStreak, lossStreak = 0, 0
		}
		if winStreak > perf.MaxConsecutiveWins {
			perf.MaxConsecutiveWins = winStreak
		}
		if lossStreak > perf.MaxConsecutiveLosses {
			perf.MaxConsecutiveLosses = lossStreak
		}

		if p.PnL != nil {
			if perf.BestPerformer == nil || *p.PnL > *perf.BestPerformer.PnL {
				perf.BestPerformer = &positions[i]
			}
			if perf.WorstPerformer == nil || *p.PnL < *perf.WorstPerformer.PnL {
				perf.WorstPerformer = &positions[i]
			}
		}

		if d, ok := p.HoldingDuration(); ok && d >= 0 {
			holdingSum += d
			holdingCount++
		}

		if p.CreatedAt != nil {
			snap.Time.add(p.CreatedAt.UTC(), pnl)
		}
	}

	n := len(positions)
	snap.Sentiment = sentimentOf(snap.LongCount, snap.ShortCount, n)
	if leverageCount > 0 {
		snap.AverageLeverage = leverageSum / float64(leverageCount)
	}

	perf.WinRate = percent(float64(perf.Wins), float64(n))
	perf.ProfitFactor = profitFactor(perf.WinningPnL, perf.LosingPnL)
	perf.SharpeRatio = sharpe(pnls)
	perf.MaxDrawdown = maxDrawdown(pnls)
	if holdingCount > 0 {
		perf.AverageHoldingDays = (holdingSum / time.Duration(holdingCount)).Hours() / 24
	}
	if perf.Wins > 0 {
		perf.AverageWin = perf.WinningPnL / float64(perf.Wins)
	}
	if perf.Losses > 0 {
		perf.AverageLoss = perf.LosingPnL / float64(perf.Losses)
	}
	if n > 0 {
		winShare := float64(perf.Wins) / float64(n)
		lossShare := float64(perf.Losses) / float64(n)
		perf.Expectancy = winShare*perf.AverageWin - lossShare*perf.AverageLoss
	}

	snap.Risk = computeRisk(n, highRisk, assets)
	snap.Wallets = walletConcentration(wallets, perf.TotalPnL, n)
	snap.Windows = activityWindows(positions, now)
	snap.Advanced = advancedRatios(*perf, pnls, returns, n)

	snap.Time.finalize()
	finalizeBuckets(snap.Leverage)
	return snap
}

func profitFactor(winning, losing float64) float64 {
	switch {
	case losing > 0:
		return winning / losing
	case winning > 0:
		return ProfitFactorCap
	default:
		return 0
	}
}

// computeRisk blends four bounded factors into a 0-100 score: high-risk
// position share (weight 40), top-asset concentration (weight 30), mean
// asset volatility / 1000 (capped at 20) and max asset drawdown / 10 (capped
// at 10). It is a rough composite, not a VaR.
func computeRisk(total, highRisk int, assets []AssetSummary) RiskMetrics {
	risk := RiskMetrics{HighRiskPositions: highRisk}
	if total == 0 {
		return risk
	}
	risk.HighRiskRatio = percent(float64(highRisk), float64(total))

	var volSum float64
	for _, a := range assets {
		volSum += a.Volatility
		if a.MaxDrawdown > risk.MaxAssetDrawdown {
			risk.MaxAssetDrawdown = a.MaxDrawdown
		}
	}
	// assets are ordered by position count, so the first one is the top asset
	if len(assets) > 0 {
		risk.TopAsset = assets[0].Asset
		risk.TopAssetConcentration = percent(float64(assets[0].PositionCount), float64(total))
		risk.VolatilityIndex = volSum / float64(len(assets))
	}
	risk.Diversification = math.Min(100, float64(len(assets))/math.Sqrt(float64(total))*100)

	score := risk.HighRiskRatio/100*riskWeightHighRisk +
		risk.TopAssetConcentration/100*riskWeightConcentration +
		math.Min(risk.VolatilityIndex/1000, riskCapVolatility) +
		math.Min(risk.MaxAssetDrawdown/10, riskCapDrawdown)
	risk.Score = clamp(score, 0, 100)
	return risk
}

// walletConcentration uses wallets ordered by total PnL, so the first one is
// the top wallet.
func walletConcentration(wallets []WalletSummary, totalPnL float64, total int) WalletConcentration {
	var wc WalletConcentration
	if total == 0 {
		return wc
	}
	if len(wallets) > 0 {
		wc.TopWallet = wallets[0].Address
		wc.TopWalletPnL = wallets[0].TotalPnL
		wc.Concentration = percent(wallets[0].TotalPnL, math.Abs(totalPnL))
	}
	wc.DiversityScore = math.Min(100, float64(len(wallets))/math.Sqrt(float64(total))*100)
	return wc
}

func activityWindows(positions []domain.Position, now time.Time) []ActivityWindow {
	windows := make([]ActivityWindow, 0, len(windowDays))
	for _, days := range windowDays {
		cutoff := now.AddDate(0, 0, -days)
		w := ActivityWindow{Days: days}
		var wins int
		for _, p := range positions {
			if p.CreatedAt == nil || !p.CreatedAt.After(cutoff) {
				continue
			}
			pnl := p.PnLOrZero()
			w.Count++
			w.TotalPnL += pnl
			if pnl > 0 {
				wins++
			}
		}
		w.WinRate = percent(float64(wins), float64(w.Count))
		windows = append(windows, w)
	}
	return windows
}

func advancedRatios(perf PerformanceMetrics, pnls, returns []float64, total int) AdvancedRatios {
	var adv AdvancedRatios
	if total == 0 {
		return adv
	}
	if perf.Wins > 0 && perf.Losses > 0 && perf.AverageLoss > 0 {
		w := float64(perf.Wins) / float64(total)
		r := perf.AverageWin / perf.AverageLoss
		adv.KellyCriterion = w - (1-w)/r
	}
	adv.InformationRatio = sharpe(returns)
	if perf.MaxDrawdown > 0 {
		adv.CalmarRatio = perf.TotalPnL / perf.MaxDrawdown
	}
	adv.SortinoRatio = perf.SharpeRatio
	adv.TreynorRatio = mean(pnls)
	return adv
}

func newBuckets(labels []string) []Bucket {
	buckets := make([]Bucket, len(labels))
	for i, l := range labels {
		buckets[i].Label = l
	}
	return buckets
}

func (b *Bucket) add(pnl float64) {
	b.Count++
	b.TotalPnL += pnl
	if pnl > 0 {
		b.Wins++
	}
}

func finalizeBuckets(buckets []Bucket) {
	for i := range buckets {
		buckets[i].WinRate = percent(float64(buckets[i].Wins), float64(buckets[i].Count))
	}
}

func leverageBucket(lev float64) int {
	switch {
	case lev <= 5:
		return 0
	case lev <= 10:
		return 1
	case lev <= 20:
		return 2
	case lev <= 50:
		return 3
	default:
		return 4
	}
}

func newTimeDistribution() TimeDistribution {
	hours := make([]string, 24)
	for h := range hours {
		hours[h] = time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("15:00")
	}
	days := make([]string, 7)
	for d := range days {
		days[d] = time.Weekday(d).String()
	}
	months := make([]string, 12)
	for m := range months {
		months[m] = time.Month(m + 1).String()
	}
	return TimeDistribution{
		Hourly:   newBuckets(hours),
		Weekday:  newBuckets(days),
		Monthly:  newBuckets(months),
		Seasonal: newBuckets(seasonLabels),
	}
}

func (td *TimeDistribution) add(t time.Time, pnl float64) {
	td.Hourly[t.Hour()].add(pnl)
	td.Weekday[int(t.Weekday())].add(pnl)
	td.Monthly[int(t.Month())-1].add(pnl)
	td.Seasonal[seasonOf(t.Month())].add(pnl)
}

func (td *TimeDistribution) finalize() {
	finalizeBuckets(td.Hourly)
	finalizeBuckets(td.Weekday)
	finalizeBuckets(td.Monthly)
	finalizeBuckets(td.Seasonal)
}

// seasonOf maps a month onto meteorological seasons: Winter is Dec/Jan/Feb.
func seasonOf(m time.Month) int {
	switch m {
	case time.December, time.January, time.February:
		return 0
	case time.March, time.April, time.May:
		return 1
	case time.June, time.July, time.August:
		return 2
	default:
		return 3
	}
}
