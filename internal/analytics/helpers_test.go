package analytics

import (
	"time"

	"github.com/hujadis/geraship/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// position builds a fully populated active position.
func position(asset, address string, isLong bool, size, entry, leverage, pnl float64) domain.Position {
	return domain.Position{
		Asset:      asset,
		Address:    address,
		Size:       domain.Float(size),
		EntryPrice: domain.Float(entry),
		Leverage:   domain.Float(leverage),
		IsLong:     domain.Bool(isLong),
		PnL:        domain.Float(pnl),
		Status:     domain.StatusActive,
	}
}

func createdDaysAgo(p domain.Position, days int) domain.Position {
	p.CreatedAt = domain.Time(testNow.AddDate(0, 0, -days))
	return p
}
