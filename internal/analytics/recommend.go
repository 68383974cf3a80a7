package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/hujadis/geraship/internal/domain"
)

const (
	// Positions at or beyond these PnL levels are outliers and are excluded
	// from the smart-money subset.
	extremeProfit = 50_000
	extremeLoss   = -25_000

	minSmartMoneyPositions = 3

	decisionMargin  = 0.3
	confidenceScale = 2.5
	maxConfidence   = 95
	holdConfidence  = 40

	momentumPlayThreshold  = 1000
	arbitrageSpread        = 1000
	maxMomentumPlays       = 10
	suggestionShareGate    = 60
	suggestionMinAvgPnL    = -1000
	suggestionMinWinRate   = 45
	contrarianFloorAvgPnL  = -5000
	highConfidenceTier     = 75
	mediumConfidenceTier   = 55
	professionalCountBonus = 0.1
)

// Signal is one weighted bullish or bearish observation.
type Signal struct {
	Bullish  bool    `json:"bullish"`
	Strength float64 `json:"strength"`
	Reason   string  `json:"reason"`
}

// SignalMetrics is the metrics snapshot a recommendation was scored from.
type SignalMetrics struct {
	PositionCount    int     `json:"position_count"`
	SmartMoneyCount  int     `json:"smart_money_count"`
	WinRate          float64 `json:"win_rate"`
	AveragePnL       float64 `json:"average_pnl"`
	SmartMoneyAvgPnL float64 `json:"smart_money_avg_pnl"`
	LongShare        float64 `json:"long_share"`
	ShortShare       float64 `json:"short_share"`
	Volume           float64 `json:"volume"`
	AverageLeverage  float64 `json:"average_leverage"`
	AverageEntry     float64 `json:"average_entry"`
	BullishScore     float64 `json:"bullish_score"`
	BearishScore     float64 `json:"bearish_score"`
}

// Recommendation is a per-asset directional call.
type Recommendation struct {
	Asset      string        `json:"asset"`
	Action     domain.Action `json:"action"`
	Confidence int           `json:"confidence"` // 0-100
	Reasons    []string      `json:"reasons"`    // strongest first
	Signals    []Signal      `json:"signals"`
	Metrics    SignalMetrics `json:"metrics"`
}

// Tier labels the confidence of a trade suggestion.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

func (t Tier) weight() float64 {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	default:
		return 1
	}
}

// Suggestion is a long or short trade idea derived from the smart-money
// subset of an asset.
type Suggestion struct {
	Asset             string        `json:"asset"`
	Direction         domain.Action `json:"direction"`
	Tier              Tier          `json:"tier"`
	Contrarian        bool          `json:"contrarian"`
	ProfessionalCount int           `json:"professional_count"`
	Score             float64       `json:"score"`
	Reasons           []string      `json:"reasons"`
	Metrics           SignalMetrics `json:"metrics"`
}

// Play is a momentum or arbitrage candidate.
type Play struct {
	Asset     string        `json:"asset"`
	Direction domain.Action `json:"direction"`
	Value     float64       `json:"value"`
	Reason    string        `json:"reason"`
}

// RecommendationReport groups every recommendation output.
type RecommendationReport struct {
	AI        []Recommendation `json:"ai"`
	Long      []Suggestion     `json:"long"`
	Short     []Suggestion     `json:"short"`
	Momentum  []Play           `json:"momentum"`
	Arbitrage []Play           `json:"arbitrage"`
}

// IsExtreme reports whether a position is an outlier excluded from smart money.
func IsExtreme(p domain.Position) bool {
	pnl := p.PnLOrZero()
	return pnl >= extremeProfit || pnl <= extremeLoss
}

// SmartMoney returns the positions that are not extreme outliers.
func SmartMoney(positions []domain.Position) []domain.Position {
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if !IsExtreme(p) {
			out = append(out, p)
		}
	}
	return out
}

// Recommend builds the full recommendation report from asset summaries.
func Recommend(assets []AssetSummary) RecommendationReport {
	report := RecommendationReport{
		AI:        make([]Recommendation, 0, len(assets)),
		Long:      make([]Suggestion, 0),
		Short:     make([]Suggestion, 0),
		Momentum:  momentumPlays(assets),
		Arbitrage: arbitrageCandidates(assets),
	}
	for _, a := range assets {
		if a.PositionCount == 0 {
			continue
		}
		report.AI = append(report.AI, ScoreAsset(a.Asset, a.Positions))

		smart := SmartMoney(a.Positions)
		if len(smart) < minSmartMoneyPositions {
			continue
		}
		for _, s := range suggest(a.Asset, smart) {
			if s.Direction == domain.ActionLong {
				report.Long = append(report.Long, s)
			} else {
				report.Short = append(report.Short, s)
			}
		}
	}

	sort.SliceStable(report.AI, func(i, j int) bool {
		if report.AI[i].Confidence != report.AI[j].Confidence {
			return report.AI[i].Confidence > report.AI[j].Confidence
		}
		return report.AI[i].Asset < report.AI[j].Asset
	})
	sortSuggestions(report.Long)
	sortSuggestions(report.Short)
	return report
}

// signalMetrics computes the scoring inputs. Win rate, shares, volume and
// leverage use all positions; the smart-money average excludes outliers.
func signalMetrics(positions []domain.Position) SignalMetrics {
	m := SignalMetrics{PositionCount: len(positions)}
	if len(positions) == 0 {
		return m
	}
	var wins, longs, shorts, levCount, entryCount int
	var pnlSum, levSum, entrySum float64
	for _, p := range positions {
		pnl := p.PnLOrZero()
		pnlSum += pnl
		if pnl > 0 {
			wins++
		}
		switch p.Direction() {
		case domain.DirectionLong:
			longs++
		case domain.DirectionShort:
			shorts++
		}
		m.Volume += p.Notional()
		if lev := p.LeverageOrZero(); lev > 0 {
			levSum += lev
			levCount++
		}
		if p.EntryPrice != nil {
			entrySum += *p.EntryPrice
			entryCount++
		}
	}
	n := float64(len(positions))
	m.WinRate = percent(float64(wins), n)
	m.AveragePnL = pnlSum / n
	m.LongShare = percent(float64(longs), n)
	m.ShortShare = percent(float64(shorts), n)
	if levCount > 0 {
		m.AverageLeverage = levSum / float64(levCount)
	}
	if entryCount > 0 {
		m.AverageEntry = entrySum / float64(entryCount)
	}

	smart := SmartMoney(positions)
	m.SmartMoneyCount = len(smart)
	var smartSum float64
	for _, p := range smart {
		smartSum += p.PnLOrZero()
	}
	if len(smart) > 0 {
		m.SmartMoneyAvgPnL = smartSum / float64(len(smart))
	}
	return m
}

// collectSignals applies the fixed rule set to the metrics.
func collectSignals(m SignalMetrics) []Signal {
	signals := make([]Signal, 0)
	add := func(bullish bool, strength float64, format string, args ...interface{}) {
		signals = append(signals, Signal{Bullish: bullish, Strength: strength, Reason: fmt.Sprintf(format, args...)})
	}

	switch {
	case m.WinRate > 65:
		add(true, 0.8, "High win rate of %.1f%%", m.WinRate)
	case m.WinRate < 35:
		add(false, 0.8, "Low win rate of %.1f%%", m.WinRate)
	}
	switch {
	case m.SmartMoneyAvgPnL > 2000:
		add(true, 0.9, "Smart money averaging %.0f profit per position", m.SmartMoneyAvgPnL)
	case m.SmartMoneyAvgPnL < -2000:
		add(false, 0.9, "Smart money averaging %.0f loss per position", -m.SmartMoneyAvgPnL)
	}
	switch {
	case m.LongShare > 70:
		add(true, 0.7, "%.0f%% of positions are long", m.LongShare)
	case m.ShortShare > 70:
		add(false, 0.7, "%.0f%% of positions are short", m.ShortShare)
	}
	if m.Volume > 5_000_000 {
		add(true, 0.6, "Heavy notional volume of %.0f", m.Volume)
	}
	switch {
	case m.AverageLeverage > 25:
		add(false, 0.5, "Crowded high leverage averaging %.1fx", m.AverageLeverage)
	case m.AverageLeverage > 0 && m.AverageLeverage < 10:
		add(true, 0.3, "Conservative leverage averaging %.1fx", m.AverageLeverage)
	}
	if m.AverageEntry > 0 && m.AverageEntry < 100 && m.SmartMoneyAvgPnL > 0 {
		add(true, 0.6, "Profitable entries at a low average price of %.2f", m.AverageEntry)
	}
	if m.PositionCount >= 10 {
		add(true, 0.4, "Strong participation with %d positions", m.PositionCount)
	}
	return signals
}

// decide turns weighted signals into an action and a 0-100 confidence.
func decide(bullish, bearish float64) (domain.Action, int) {
	switch {
	case bullish > bearish+decisionMargin:
		return domain.ActionLong, roundConfidence(bullish - bearish)
	case bearish > bullish+decisionMargin:
		return domain.ActionShort, roundConfidence(bearish - bullish)
	default:
		return domain.ActionHold, holdConfidence
	}
}

func roundConfidence(edge float64) int {
	return int(math.Round(math.Min(edge/confidenceScale*100, maxConfidence)))
}

// ScoreAsset scores one asset's positions.
func ScoreAsset(asset string, positions []domain.Position) Recommendation {
	m := signalMetrics(positions)
	signals := collectSignals(m)
	for _, s := range signals {
		if s.Bullish {
			m.BullishScore += s.Strength
		} else {
			m.BearishScore += s.Strength
		}
	}
	action, confidence := decide(m.BullishScore, m.BearishScore)

	ranked := make([]Signal, len(signals))
	copy(ranked, signals)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Strength > ranked[j].Strength })
	reasons := make([]string, 0, len(ranked))
	for _, s := range ranked {
		reasons = append(reasons, s.Reason)
	}

	return Recommendation{
		Asset:      asset,
		Action:     action,
		Confidence: confidence,
		Reasons:    reasons,
		Signals:    signals,
		Metrics:    m,
	}
}

func tierFor(confidence int) Tier {
	switch {
	case confidence >= highConfidenceTier:
		return TierHigh
	case confidence >= mediumConfidenceTier:
		return TierMedium
	default:
		return TierLow
	}
}

// suggest runs the primary and contrarian emitters independently over the
// smart-money subset of one asset.
func suggest(asset string, smart []domain.Position) []Suggestion {
	rec := ScoreAsset(asset, smart)
	m := rec.Metrics
	out := make([]Suggestion, 0, 2)

	primary := func(dir domain.Action, share float64, side string) {
		if share <= suggestionShareGate || m.SmartMoneyAvgPnL <= suggestionMinAvgPnL || m.WinRate <= suggestionMinWinRate {
			return
		}
		tier := tierFor(rec.Confidence)
		out = append(out, Suggestion{
			Asset:             asset,
			Direction:         dir,
			Tier:              tier,
			ProfessionalCount: m.SmartMoneyCount,
			Score:             tier.weight() + professionalCountBonus*float64(m.SmartMoneyCount),
			Reasons: append([]string{
				fmt.Sprintf("%.0f%% of smart money is %s with a %.1f%% win rate", share, side, m.WinRate),
			}, rec.Reasons...),
			Metrics: m,
		})
	}
	primary(domain.ActionLong, m.LongShare, "long")
	primary(domain.ActionShort, m.ShortShare, "short")

	contrarian := func(dir domain.Action, share float64, side string) {
		if share <= suggestionShareGate || m.SmartMoneyAvgPnL > suggestionMinAvgPnL || m.SmartMoneyAvgPnL <= contrarianFloorAvgPnL {
			return
		}
		out = append(out, Suggestion{
			Asset:             asset,
			Direction:         dir,
			Tier:              TierLow,
			Contrarian:        true,
			ProfessionalCount: m.SmartMoneyCount,
			Score:             TierLow.weight() + professionalCountBonus*float64(m.SmartMoneyCount),
			Reasons: []string{
				fmt.Sprintf("Contrarian: %.0f%% of smart money is %s but losing %.0f per position on average", share, side, -m.SmartMoneyAvgPnL),
			},
			Metrics: m,
		})
	}
	contrarian(domain.ActionShort, m.LongShare, "long")
	contrarian(domain.ActionLong, m.ShortShare, "short")
	return out
}

func sortSuggestions(s []Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Asset < s[j].Asset
	})
}

// momentumPlays lists assets whose recent average PnL diverges from the older
// average by more than 1000, strongest first.
func momentumPlays(assets []AssetSummary) []Play {
	plays := make([]Play, 0)
	for _, a := range assets {
		if math.Abs(a.Momentum) <= momentumPlayThreshold {
			continue
		}
		dir := domain.ActionLong
		if a.Momentum < 0 {
			dir = domain.ActionShort
		}
		plays = append(plays, Play{
			Asset:     a.Asset,
			Direction: dir,
			Value:     a.Momentum,
			Reason:    fmt.Sprintf("Recent positions average %.0f versus older ones", a.Momentum),
		})
	}
	sort.SliceStable(plays, func(i, j int) bool { return math.Abs(plays[i].Value) > math.Abs(plays[j].Value) })
	if len(plays) > maxMomentumPlays {
		plays = plays[:maxMomentumPlays]
	}
	return plays
}

// arbitrageCandidates lists assets where longs and shorts are both present
// and their average PnL diverges by more than 1000; the suggested direction
// is the more profitable side.
func arbitrageCandidates(assets []AssetSummary) []Play {
	plays := make([]Play, 0)
	for _, a := range assets {
		var longSum, shortSum float64
		var longs, shorts int
		for _, p := range a.Positions {
			switch p.Direction() {
			case domain.DirectionLong:
				longSum += p.PnLOrZero()
				longs++
			case domain.DirectionShort:
				shortSum += p.PnLOrZero()
				shorts++
			}
		}
		if longs == 0 || shorts == 0 {
			continue
		}
		spread := longSum/float64(longs) - shortSum/float64(shorts)
		if math.Abs(spread) <= arbitrageSpread {
			continue
		}
		dir := domain.ActionLong
		if spread < 0 {
			dir = domain.ActionShort
		}
		plays = append(plays, Play{
			Asset:     a.Asset,
			Direction: dir,
			Value:     math.Abs(spread),
			Reason:    fmt.Sprintf("Long and short sides diverge by %.0f average PnL", math.Abs(spread)),
		})
	}
	sort.SliceStable(plays, func(i, j int) bool { return plays[i].Value > plays[j].Value })
	return plays
}
