package roulette

import "math"

// Multipliers are the amounts paid per unit staked on top of the returned
// stake.
const (
	STRAIGHT_MULTIPLIER     int64 = 35
	EVEN_MONEY_MULTIPLIER   int64 = 1
	DOZEN_COLUMN_MULTIPLIER int64 = 2
)

// MaxStake is the largest stake whose straight-up return still fits in an
// int64.
const MaxStake = math.MaxInt64 / (STRAIGHT_MULTIPLIER + 1)

// Multiplier returns the payout multiplier for a wager type, or 0 for an
// unknown type.
func Multiplier(t WagerType) int64 {
	switch t {
	case WagerStraight:
		return STRAIGHT_MULTIPLIER
	case WagerRed, WagerBlack, WagerEven, WagerOdd, WagerHigh, WagerLow:
		return EVEN_MONEY_MULTIPLIER
	case WagerDozens, WagerColumn:
		return DOZEN_COLUMN_MULTIPLIER
	}
	return 0
}

// Result is the evaluation of one wager against one outcome.
type Result struct {
	Won        bool  `json:"won"`
	Multiplier int64 `json:"multiplier"`
	Payout     int64 `json:"payout"`
}

// Evaluate decides a validated wager against an outcome. On a win the payout
// is the full return, stake × (multiplier+1), which gives back the reserved
// stake; on a loss it is zero.
func Evaluate(w Wager, o Outcome) Result {
	mult := Multiplier(w.Type)
	if !Wins(w, o.Number) {
		return Result{Won: false, Multiplier: mult}
	}
	return Result{Won: true, Multiplier: mult, Payout: w.Stake * (mult + 1)}
}

// Wins reports whether w wins when the ball lands on n. Zero satisfies none of
// the even-money bets.
func Wins(w Wager, n int) bool {
	switch w.Type {
	case WagerStraight:
		return w.StraightNumber != nil && *w.StraightNumber == n
	case WagerRed:
		return colorOf(n) == ColorRed
	case WagerBlack:
		return colorOf(n) == ColorBlack
	case WagerEven:
		return parityOf(n) == ParityEven
	case WagerOdd:
		return parityOf(n) == ParityOdd
	case WagerHigh:
		return rangeOf(n) == RangeHigh
	case WagerLow:
		return rangeOf(n) == RangeLow
	case WagerDozens:
		d := selectorIndex(DozenSelectors, w.RangeSelector)
		return d != 0 && Dozen(n) == d
	case WagerColumn:
		c := selectorIndex(ColumnSelectors, w.RangeSelector)
		return c != 0 && Column(n) == c
	}
	return false
}

// selectorIndex maps a selector to its 1-based position, 0 when unknown.
func selectorIndex(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i + 1
		}
	}
	return 0
}
