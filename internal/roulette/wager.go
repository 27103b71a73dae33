package roulette

// WagerType is the closed set of bets a player can place on the table.
type WagerType string

const (
	WagerStraight WagerType = "straight"
	WagerRed      WagerType = "red"
	WagerBlack    WagerType = "black"
	WagerEven     WagerType = "even"
	WagerOdd      WagerType = "odd"
	WagerHigh     WagerType = "high"
	WagerLow      WagerType = "low"
	WagerDozens   WagerType = "dozens"
	WagerColumn   WagerType = "column"
)

// WagerTypes lists every supported wager type in table order.
var WagerTypes = []WagerType{
	WagerStraight,
	WagerRed,
	WagerBlack,
	WagerEven,
	WagerOdd,
	WagerHigh,
	WagerLow,
	WagerDozens,
	WagerColumn,
}

// Valid reports whether t is one of the supported wager types.
func (t WagerType) Valid() bool {
	for _, wt := range WagerTypes {
		if wt == t {
			return true
		}
	}
	return false
}

// Range selectors accepted for dozens and column wagers.
var (
	DozenSelectors  = []string{"1-12", "13-24", "25-36"}
	ColumnSelectors = []string{"1", "2", "3"}
)

// Wager is a single bet as submitted by a player.
//
// StraightNumber is only meaningful for straight bets and RangeSelector only
// for dozens and column bets; other types ignore them.
type Wager struct {
	Type           WagerType `json:"wager_type"`
	StraightNumber *int      `json:"straight_number,omitempty"`
	RangeSelector  string    `json:"range_selector,omitempty"`
	Stake          int64     `json:"stake"`
}

// Normalized returns a copy of w carrying only the companion field its type
// uses, which is what gets written to the settlement record.
func (w Wager) Normalized() Wager {
	out := Wager{Type: w.Type, Stake: w.Stake}
	switch w.Type {
	case WagerStraight:
		if w.StraightNumber != nil {
			n := *w.StraightNumber
			out.StraightNumber = &n
		}
	case WagerDozens, WagerColumn:
		out.RangeSelector = w.RangeSelector
	}
	return out
}

// Straight is a convenience constructor for a straight-up bet.
func Straight(number int, stake int64) Wager {
	return Wager{Type: WagerStraight, StraightNumber: &number, Stake: stake}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
