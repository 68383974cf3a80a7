package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hujadis/geraship/internal/domain"
)

// MajorAssets is the fixed allow-list of major symbols. An asset is "major"
// when its upper-cased symbol contains any of these as a substring; every
// other asset counts as obscure. Pattern output depends on this exact list.
var MajorAssets = []string{
	"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "DOT", "MATIC",
	"LINK", "UNI", "LTC", "BCH", "ATOM", "XLM", "ETC", "FIL", "TRX", "NEAR",
	"APT", "ARB", "OP", "SUI", "TON", "SHIB", "PEPE", "AAVE", "INJ", "HYPE",
}

// DefaultSampleLimit caps the sample positions attached to a Pattern.
const DefaultSampleLimit = 5

const (
	// minCorrelationPairs is the number of aligned PnL pairs a correlation needs.
	minCorrelationPairs = 3
	// correlationThreshold is the |r| at which an asset pair is reported.
	correlationThreshold = 0.7
)

// Pattern is one detected anomaly or norm.
type Pattern struct {
	Type         string              `json:"type"`
	Description  string              `json:"description"`
	Count        int                 `json:"count"`
	Significance domain.Significance `json:"significance"`
	Samples      []domain.Position   `json:"samples,omitempty"`
}

// Correlation is the Pearson coefficient between two assets' PnL series.
type Correlation struct {
	AssetA      string  `json:"asset_a"`
	AssetB      string  `json:"asset_b"`
	Coefficient float64 `json:"coefficient"`
	Samples     int     `json:"samples"`
}

// PatternReport splits detected patterns into unusual and usual behavior.
type PatternReport struct {
	Unusual      []Pattern     `json:"unusual"`
	Usual        []Pattern     `json:"usual"`
	Correlations []Correlation `json:"correlations"`
}

// patternRule is one predicate of the fixed battery.
type patternRule struct {
	kind         string
	significance domain.Significance
	describe     func(count int) string
	match        func(p domain.Position, ctx patternContext) bool
}

type patternContext struct {
	now       time.Time
	sentiment domain.Sentiment
}

// IsMajorAsset reports whether asset matches the allow-list (case-insensitive
// substring match).
func IsMajorAsset(asset string) bool {
	upper := strings.ToUpper(asset)
	for _, major := range MajorAssets {
		if strings.Contains(upper, major) {
			return true
		}
	}
	return false
}

func isObscure(p domain.Position) bool {
	return p.Asset != "" && !IsMajorAsset(p.Asset)
}

func createdWithin(p domain.Position, now time.Time, days int) bool {
	return p.CreatedAt != nil && p.CreatedAt.After(now.AddDate(0, 0, -days))
}

func againstSentiment(p domain.Position, s domain.Sentiment) bool {
	switch s {
	case domain.SentimentBullish:
		return p.Direction() == domain.DirectionShort
	case domain.SentimentBearish:
		return p.Direction() == domain.DirectionLong
	default:
		return false
	}
}

func withSentiment(p domain.Position, s domain.Sentiment) bool {
	switch s {
	case domain.SentimentBullish:
		return p.Direction() == domain.DirectionLong
	case domain.SentimentBearish:
		return p.Direction() == domain.DirectionShort
	default:
		return false
	}
}

// unusualRules are evaluated in order; rules are independent and may match
// the same positions.
var unusualRules = []patternRule{
	{
		kind:         "ultra_high_leverage",
		significance: domain.SignificanceHigh,
		describe:     func(n int) string { return fmt.Sprintf("%d positions using ultra high leverage (>75x)", n) },
		match:        func(p domain.Position, _ patternContext) bool { return p.LeverageOrZero() > 75 },
	},
	{
		kind:         "extreme_leverage",
		significance: domain.SignificanceHigh,
		describe:     func(n int) string { return fmt.Sprintf("%d positions using extreme leverage (>50x)", n) },
		match:        func(p domain.Position, _ patternContext) bool { return p.LeverageOrZero() > 50 },
	},
	{
		kind:         "whale_activity",
		significance: domain.SignificanceHigh,
		describe:     func(n int) string { return fmt.Sprintf("%d whale positions larger than 1,000,000 units", n) },
		match:        func(p domain.Position, _ patternContext) bool { return math.Abs(p.SizeOrZero()) > 1_000_000 },
	},
	{
		kind:         "high_pnl_low_entry",
		significance: domain.SignificanceMedium,
		describe:     func(n int) string { return fmt.Sprintf("%d positions with high PnL (>10,000) from a low entry price (<100)", n) },
		match: func(p domain.Position, _ patternContext) bool {
			return p.PnLOrZero() > 10_000 && p.EntryPrice != nil && *p.EntryPrice < 100
		},
	},
	{
		kind:         "perfect_market_timing",
		significance: domain.SignificanceMedium,
		describe:     func(n int) string { return fmt.Sprintf("%d positions with perfect market timing (>5,000 PnL within 7 days)", n) },
		match: func(p domain.Position, c patternContext) bool {
			return p.PnLOrZero() > 5_000 && createdWithin(p, c.now, 7)
		},
	},
	{
		kind:         "successful_contrarian",
		significance: domain.SignificanceMedium,
		describe:     func(n int) string { return fmt.Sprintf("%d successful contrarian plays against overall sentiment", n) },
		match: func(p domain.Position, c patternContext) bool {
			return againstSentiment(p, c.sentiment) && p.PnLOrZero() > 1_000
		},
	},
	{
		kind:         "obscure_high_conviction",
		significance: domain.SignificanceHigh,
		describe:     func(n int) string { return fmt.Sprintf("%d high confidence bets on obscure coins", n) },
		match: func(p domain.Position, _ patternContext) bool {
			conviction := p.LeverageOrZero() > 30 || p.SizeOrZero() > 500_000 || math.Abs(p.PnLOrZero()) > 25_000
			return conviction && isObscure(p)
		},
	},
	{
		kind:         "obscure_million_dollar",
		significance: domain.SignificanceHigh,
		describe:     func(n int) string { return fmt.Sprintf("%d million-dollar bets on obscure coins", n) },
		match: func(p domain.Position, _ patternContext) bool {
			return p.SizeOrZero() > 1_000_000 && isObscure(p)
		},
	},
	{
		kind:         "obscure_perfect_timing",
		significance: domain.SignificanceHigh,
		describe:     func(n int) string { return fmt.Sprintf("%d positions with perfect timing on obscure coins (>10,000 PnL within 14 days)", n) },
		match: func(p domain.Position, c patternContext) bool {
			return p.PnLOrZero() > 10_000 && createdWithin(p, c.now, 14) && isObscure(p)
		},
	},
}

// usualRules are always emitted, even with a zero count.
var usualRules = []patternRule{
	{
		kind:         "moderate_leverage",
		significance: domain.SignificanceLow,
		describe:     func(n int) string { return fmt.Sprintf("%d positions using moderate leverage (5-20x)", n) },
		match: func(p domain.Position, _ patternContext) bool {
			lev := p.LeverageOrZero()
			return lev >= 5 && lev <= 20
		},
	},
	{
		kind:         "trend_following",
		significance: domain.SignificanceLow,
		describe:     func(n int) string { return fmt.Sprintf("%d positions following the overall market sentiment", n) },
		match:        func(p domain.Position, c patternContext) bool { return withSentiment(p, c.sentiment) },
	},
}

// DetectPatterns runs the rule battery over the full snapshot. sentiment is
// the overall computed sentiment, assets the per-asset summaries used for the
// cross-asset correlation section. sampleLimit <= 0 means DefaultSampleLimit.
func DetectPatterns(positions []domain.Position, assets []AssetSummary, sentiment domain.Sentiment, now time.Time, sampleLimit int) PatternReport {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}
	ctx := patternContext{now: now, sentiment: sentiment}

	report := PatternReport{
		Unusual:      make([]Pattern, 0),
		Usual:        make([]Pattern, 0, len(usualRules)),
		Correlations: CorrelateAssets(assets),
	}
	for _, rule := range unusualRules {
		if pattern := rule.evaluate(positions, ctx, sampleLimit); pattern.Count > 0 {
			report.Unusual = append(report.Unusual, pattern)
		}
	}
	if strong := strongCorrelations(report.Correlations); len(strong) > 0 {
		report.Unusual = append(report.Unusual, Pattern{
			Type:         "correlated_assets",
			Description:  fmt.Sprintf("%d asset pairs with strongly correlated PnL (|r| >= %.1f)", len(strong), correlationThreshold),
			Count:        len(strong),
			Significance: domain.SignificanceMedium,
		})
	}
	for _, rule := range usualRules {
		report.Usual = append(report.Usual, rule.evaluate(positions, ctx, sampleLimit))
	}
	return report
}

func (r patternRule) evaluate(positions []domain.Position, ctx patternContext, sampleLimit int) Pattern {
	pattern := Pattern{Type: r.kind, Significance: r.significance}
	for _, p := range positions {
		if !r.match(p, ctx) {
			continue
		}
		pattern.Count++
		if len(pattern.Samples) < sampleLimit {
			pattern.Samples = append(pattern.Samples, p)
		}
	}
	pattern.Description = r.describe(pattern.Count)
	return pattern
}

// CorrelateAssets computes the Pearson correlation for every asset pair,
// aligning the two PnL series by snapshot order and truncating to the shorter
// one. Pairs with fewer than three aligned samples or no variance are skipped.
// The result is ordered by |coefficient|, strongest first.
func CorrelateAssets(assets []AssetSummary) []Correlation {
	series := make([][]float64, len(assets))
	for i, a := range assets {
		s := make([]float64, 0, len(a.Positions))
		for _, p := range a.Positions {
			s = append(s, p.PnLOrZero())
		}
		series[i] = s
	}

	out := make([]Correlation, 0)
	for i := 0; i < len(assets); i++ {
		for j := i + 1; j < len(assets); j++ {
			n := len(series[i])
			if len(series[j]) < n {
				n = len(series[j])
			}
			if n < minCorrelationPairs {
				continue
			}
			r, ok := pearson(series[i][:n], series[j][:n])
			if !ok {
				continue
			}
			out = append(out, Correlation{
				AssetA:      assets[i].Asset,
				AssetB:      assets[j].Asset,
				Coefficient: r,
				Samples:     n,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Coefficient) > math.Abs(out[j].Coefficient)
	})
	return out
}

func strongCorrelations(all []Correlation) []Correlation {
	strong := make([]Correlation, 0)
	for _, c := range all {
		if math.Abs(c.Coefficient) >= correlationThreshold {
			strong = append(strong, c)
		}
	}
	return strong
}
