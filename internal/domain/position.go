package domain

import "time"

// Position is one leveraged-trading position record from a snapshot.
// Optional fields are pointers; nil means the source did not supply a value.
// A Position is never mutated once it has been ingested.
type Position struct {
	ID            int64      `json:"id"`
	Asset         string     `json:"asset,omitempty"`          // e.g. "BTC-PERP"; empty excludes it from asset aggregation
	Size          *float64   `json:"size,omitempty"`           // signed contract units
	EntryPrice    *float64   `json:"entry_price,omitempty"`    // price at which the position was opened
	Leverage      *float64   `json:"leverage,omitempty"`       // positive multiplier
	IsLong        *bool      `json:"is_long,omitempty"`        // nil means unknown direction
	PnL           *float64   `json:"pnl,omitempty"`            // realized/unrealized PnL in quote currency
	PnLPercentage *float64   `json:"pnl_percentage,omitempty"` // raw API value, unreliable for shorts
	Status        string     `json:"status,omitempty"`         // "active" or anything else (closed)
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	Address       string     `json:"address,omitempty"` // wallet; empty excludes it from wallet aggregation
}

// IsActive reports whether the position is open.
func (p Position) IsActive() bool {
	return p.Status == StatusActive
}

// Direction returns the tri-state side of the position.
func (p Position) Direction() Direction {
	return DirectionFromIsLong(p.IsLong)
}

// PnLOrZero returns the PnL, treating a missing value as 0 as summation
// accumulators do.
func (p Position) PnLOrZero() float64 {
	if p.PnL == nil {
		return 0
	}
	return *p.PnL
}

// LeverageOrZero returns the leverage, or 0 when absent.
func (p Position) LeverageOrZero() float64 {
	if p.Leverage == nil {
		return 0
	}
	return *p.Leverage
}

// SizeOrZero returns the signed size, or 0 when absent.
func (p Position) SizeOrZero() float64 {
	if p.Size == nil {
		return 0
	}
	return *p.Size
}

// HoldingDuration returns UpdatedAt - CreatedAt when both timestamps exist.
func (p Position) HoldingDuration() (time.Duration, bool) {
	if p.CreatedAt == nil || p.UpdatedAt == nil {
		return 0, false
	}
	return p.UpdatedAt.Sub(*p.CreatedAt), true
}

// Notional returns |size| × entry price, or 0 when either is missing.
func (p Position) Notional() float64 {
	if p.Size == nil || p.EntryPrice == nil {
		return 0
	}
	size := *p.Size
	if size < 0 {
		size = -size
	}
	return size * *p.EntryPrice
}

// Float returns a pointer to v. It is a convenience for building optional fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
