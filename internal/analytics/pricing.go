package analytics

import "github.com/hujadis/geraship/internal/domain"

// The raw pnl_percentage reported by the API has its sign inverted for
// leveraged shorts, so every consumer reconstructs prices and percentages
// from margin, leverage, entry price and PnL instead.

// marginInputs returns |size|, entry price, leverage and pnl when all of them
// are present and non-zero (pnl only needs to be present).
func marginInputs(p domain.Position) (size, entry, leverage, pnl float64, ok bool) {
	if p.Size == nil || p.EntryPrice == nil || p.Leverage == nil || p.PnL == nil {
		return 0, 0, 0, 0, false
	}
	size, entry, leverage, pnl = *p.Size, *p.EntryPrice, *p.Leverage, *p.PnL
	if size == 0 || entry == 0 || leverage == 0 {
		return 0, 0, 0, 0, false
	}
	if size < 0 {
		size = -size
	}
	return size, entry, leverage, pnl, true
}

// InitialValue returns the margin committed to the position:
// |size| × entry price / leverage.
func InitialValue(p domain.Position) (float64, bool) {
	size, entry, leverage, _, ok := marginInputs(p)
	if !ok {
		return 0, false
	}
	return size * entry / leverage, true
}

// ReturnPercentage returns pnl / initial value as a fraction.
func ReturnPercentage(p domain.Position) (float64, bool) {
	initial, ok := InitialValue(p)
	if !ok || initial == 0 {
		return 0, false
	}
	return *p.PnL / initial, true
}

// CurrentPrice reconstructs the market price implied by the position's PnL.
// It needs a known direction in addition to the margin inputs.
func CurrentPrice(p domain.Position) (float64, bool) {
	ret, ok := ReturnPercentage(p)
	if !ok {
		return 0, false
	}
	entry, leverage := *p.EntryPrice, *p.Leverage
	switch p.Direction() {
	case domain.DirectionLong:
		return entry * (1 + ret/leverage), true
	case domain.DirectionShort:
		return entry * (1 - ret/leverage), true
	default:
		return 0, false
	}
}

// CorrectedPnLPercentage returns pnl / initial value × 100. It replaces the
// raw pnl_percentage field everywhere.
func CorrectedPnLPercentage(p domain.Position) (float64, bool) {
	ret, ok := ReturnPercentage(p)
	if !ok {
		return 0, false
	}
	return ret * 100, true
}

// PriceChangePercent returns the move from entry to the derived current price
// in percent.
func PriceChangePercent(p domain.Position) (float64, bool) {
	current, ok := CurrentPrice(p)
	if !ok {
		return 0, false
	}
	return (current - *p.EntryPrice) / *p.EntryPrice * 100, true
}
