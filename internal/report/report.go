package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hujadis/geraship/internal/analytics"
)

// Formats understood by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write renders r in the given format. topN limits table rows in text output.
func Write(w io.Writer, r analytics.Report, format string, topN int) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatText, "":
		return WriteText(w, r, topN)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, r analytics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a human-readable summary. Every table shows at most topN
// rows; topN <= 0 shows all rows.
func WriteText(w io.Writer, r analytics.Report, topN int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := r.Portfolio
	perf := p.Performance

	fmt.Fprintf(tw, "Report %s (as of %s)\n", r.ID, r.Now.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(tw, "Positions: %d (active %d, closed %d) | long %d, short %d, unknown %d | sentiment %s\n",
		r.PositionCount, p.ActiveCount, p.ClosedCount, p.LongCount, p.ShortCount, p.UnknownCount, p.Sentiment)

	fmt.Fprintln(tw, "\n## Portfolio")
	fmt.Fprintln(tw, "Total PnL\tWin Rate\tProfit Factor\tSharpe\tMax DD%\tAvg Hold (d)\tAvg Lev\tVolume\t")
	fmt.Fprintf(tw, "%.2f\t%.1f%%\t%.2f\t%.3f\t%.2f\t%.2f\t%.1fx\t%.0f\t\n",
		perf.TotalPnL, perf.WinRate, perf.ProfitFactor, perf.SharpeRatio, perf.MaxDrawdown,
		perf.AverageHoldingDays, p.AverageLeverage, p.TotalVolume)

	risk := p.Risk
	fmt.Fprintln(tw, "\n## Risk")
	fmt.Fprintln(tw, "Score\tHigh Risk\tTop Asset\tConcentration\tVolatility\tMax Asset DD%\t")
	fmt.Fprintf(tw, "%.1f\t%d (%.1f%%)\t%s\t%.1f%%\t%.2f\t%.2f\t\n",
		risk.Score, risk.HighRiskPositions, risk.HighRiskRatio, dash(risk.TopAsset),
		risk.TopAssetConcentration, risk.VolatilityIndex, risk.MaxAssetDrawdown)

	fmt.Fprintln(tw, "\n## Wallets")
	fmt.Fprintln(tw, "Address\tTrades\tWin Rate\tTotal PnL\tAvg PnL\tRating\tRisk\t")
	for _, wlt := range limit(r.Wallets, topN) {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%.2f\t%.2f\t%s\t%.1f\t\n",
			wlt.Address, wlt.TotalTrades, wlt.WinRate, wlt.TotalPnL, wlt.AveragePnL, wlt.Rating, wlt.RiskScore)
	}

	fmt.Fprintln(tw, "\n## Assets")
	fmt.Fprintln(tw, "Asset\tPositions\tL/S\tSentiment\tWin Rate\tTotal PnL\tAvg Lev\tVolatility\tSharpe\tMomentum\tPrice\tChange%\t")
	for _, a := range limit(r.Assets, topN) {
		fmt.Fprintf(tw, "%s\t%d\t%d/%d\t%s\t%.1f%%\t%.2f\t%.1fx\t%.2f\t%.3f\t%.2f\t%.4f\t%.2f\t\n",
			a.Asset, a.PositionCount, a.LongCount, a.ShortCount, a.Sentiment, a.WinRate, a.TotalPnL,
			a.AverageLeverage, a.Volatility, a.SharpeRatio, a.Momentum, a.CurrentPrice, a.PriceChangePercent)
	}

	if r.Patterns != nil {
		fmt.Fprintln(tw, "\n## Patterns")
		fmt.Fprintln(tw, "Kind\tType\tCount\tSignificance\tDescription\t")
		for _, pt := range r.Patterns.Unusual {
			fmt.Fprintf(tw, "unusual\t%s\t%d\t%s\t%s\t\n", pt.Type, pt.Count, pt.Significance, pt.Description)
		}
		for _, pt := range r.Patterns.Usual {
			fmt.Fprintf(tw, "usual\t%s\t%d\t%s\t%s\t\n", pt.Type, pt.Count, pt.Significance, pt.Description)
		}
	}

	if recs := r.Recommendations; recs != nil {
		fmt.Fprintln(tw, "\n## Recommendations")
		fmt.Fprintln(tw, "Asset\tAction\tConfidence\tTop Reason\t")
		for _, rec := range limit(recs.AI, topN) {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", rec.Asset, rec.Action, rec.Confidence, dash(first(rec.Reasons)))
		}

		fmt.Fprintln(tw, "\n## Suggestions")
		fmt.Fprintln(tw, "Asset\tDirection\tTier\tScore\tContrarian\tReason\t")
		for _, s := range limit(append(append([]analytics.Suggestion{}, recs.Long...), recs.Short...), topN) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%t\t%s\t\n", s.Asset, s.Direction, s.Tier, s.Score, s.Contrarian, dash(first(s.Reasons)))
		}

		if len(recs.Momentum) > 0 || len(recs.Arbitrage) > 0 {
			fmt.Fprintln(tw, "\n## Plays")
			fmt.Fprintln(tw, "Kind\tAsset\tDirection\tValue\tReason\t")
			for _, pl := range limit(recs.Momentum, topN) {
				fmt.Fprintf(tw, "momentum\t%s\t%s\t%.2f\t%s\t\n", pl.Asset, pl.Direction, pl.Value, pl.Reason)
			}
			for _, pl := range limit(recs.Arbitrage, topN) {
				fmt.Fprintf(tw, "arbitrage\t%s\t%s\t%.2f\t%s\t\n", pl.Asset, pl.Direction, pl.Value, pl.Reason)
			}
		}
	}

	return tw.Flush()
}

func limit[T any](rows []T, n int) []T {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[:n]
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
