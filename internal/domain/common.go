package domain

// Direction is the side of a position. Positions whose source omits the side
// are Unknown and are never counted as long or short.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionLong
	DirectionShort
)

// String returns the lower-case name of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "unknown"
	}
}

// DirectionFromIsLong maps the optional is_long flag onto a Direction.
func DirectionFromIsLong(isLong *bool) Direction {
	if isLong == nil {
		return DirectionUnknown
	}
	if *isLong {
		return DirectionLong
	}
	return DirectionShort
}

// StatusActive is the only status value that marks a position as open.
// Every other value, including an empty one, is treated as closed.
const StatusActive = "active"

// Sentiment is the directional bias of a group of positions.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Significance tiers a detected pattern.
type Significance string

const (
	SignificanceLow    Significance = "low"
	SignificanceMedium Significance = "medium"
	SignificanceHigh   Significance = "high"
)

// Action is the directional call of a recommendation.
type Action string

const (
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
	ActionHold  Action = "HOLD"
)
