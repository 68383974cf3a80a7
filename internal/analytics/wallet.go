package analytics

import (
	"math"
	"sort"

	"github.com/hujadis/geraship/internal/domain"
)

// WalletSummary holds per-wallet performance for one snapshot.
type WalletSummary struct {
	Address      string  `json:"address"`
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TotalPnL     float64 `json:"total_pnl"`
	WinRate      float64 `json:"win_rate"` // 0-100
	AveragePnL   float64 `json:"average_pnl"`
	Rating       string  `json:"rating"`     // A-F
	RiskScore    float64 `json:"risk_score"` // 0-100 heuristic
	ActiveCount  int     `json:"active_count"`
	ClosedCount  int     `json:"closed_count"`
	ClosedPnL    float64 `json:"closed_pnl"`
}

// walletAccumulator holds raw sums and counts for one address.
type walletAccumulator struct {
	address   string
	trades    int
	wins      int
	losses    int
	totalPnL  float64
	active    int
	closed    int
	closedPnL float64
}

// AggregateWallets groups positions by address and returns one summary per
// distinct non-empty address, ordered by total PnL (highest first).
func AggregateWallets(positions []domain.Position) []WalletSummary {
	accs := make(map[string]*walletAccumulator)
	order := make([]string, 0)

	for _, p := range positions {
		if p.Address == "" {
			continue
		}
		acc, ok := accs[p.Address]
		if !ok {
			acc = &walletAccumulator{address: p.Address}
			accs[p.Address] = acc
			order = append(order, p.Address)
		}
		pnl := p.PnLOrZero()
		acc.trades++
		acc.totalPnL += pnl
		switch {
		case pnl > 0:
			acc.wins++
		case pnl < 0:
			acc.losses++
		}
		if p.IsActive() {
			acc.active++
		} else {
			acc.closed++
			acc.closedPnL += pnl
		}
	}

	summaries := make([]WalletSummary, 0, len(order))
	for _, addr := range order {
		summaries = append(summaries, finalizeWallet(*accs[addr]))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].TotalPnL != summaries[j].TotalPnL {
			return summaries[i].TotalPnL > summaries[j].TotalPnL
		}
		return summaries[i].Address < summaries[j].Address
	})
	return summaries
}

func finalizeWallet(acc walletAccumulator) WalletSummary {
	winRate := percent(float64(acc.wins), float64(acc.trades))
	var avg float64
	if acc.trades > 0 {
		avg = acc.totalPnL / float64(acc.trades)
	}
	return WalletSummary{
		Address:     acc.address,
		TotalTrades: acc.trades,
		Wins:        acc.wins,
		Losses:      acc.losses,
		TotalPnL:    acc.totalPnL,
		WinRate:     winRate,
		AveragePnL:  avg,
		Rating:      WalletRating(winRate, acc.totalPnL),
		RiskScore:   WalletRiskScore(winRate, avg, acc.totalPnL),
		ActiveCount: acc.active,
		ClosedCount: acc.closed,
		ClosedPnL:   acc.closedPnL,
	}
}

// WalletRating grades a wallet from A to F. The first matching tier wins.
func WalletRating(winRate, totalPnL float64) string {
	switch {
	case winRate >= 80 && totalPnL > 10000:
		return "A"
	case winRate >= 70 && totalPnL > 5000:
		return "B"
	case winRate >= 60 && totalPnL > 0:
		return "C"
	case winRate >= 40:
		return "D"
	default:
		return "F"
	}
}

// WalletRiskScore is a bounded heuristic in [0, 100], not a calibrated risk
// measure. For most realistic wallets the win-rate term dominates and the
// volatility term is close to zero.
func WalletRiskScore(winRate, avgPnL, totalPnL float64) float64 {
	volatility := math.Abs(avgPnL) / math.Max(totalPnL, 1)
	return clamp(50+volatility*30-winRate*0.3, 0, 100)
}
