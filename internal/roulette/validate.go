package roulette

// Limits bounds what the table accepts. A zero MaxStake means the table has no
// limit of its own; stakes are still capped at the overflow bound.
type Limits struct {
	MaxStake int64
}

// Validate runs the structural checks in order and returns the first failure:
// wager type, companion field, then stake. It never looks at the balance.
func Validate(w Wager, limits Limits) error {
	if !w.Type.Valid() {
		return Errorf(CodeInvalidWagerType, "unknown wager type %q", w.Type)
	}

	switch w.Type {
	case WagerStraight:
		if w.StraightNumber == nil {
			return NewError(CodeInvalidStraightNumber, "straight bet requires a number")
		}
		if n := *w.StraightNumber; n < MIN_POCKET || n > MAX_POCKET {
			return Errorf(CodeInvalidStraightNumber, "straight number %d must be between %d and %d", n, MIN_POCKET, MAX_POCKET)
		}
	case WagerDozens:
		if !contains(DozenSelectors, w.RangeSelector) {
			return Errorf(CodeInvalidRangeSelector, "invalid dozens range %q", w.RangeSelector)
		}
	case WagerColumn:
		if !contains(ColumnSelectors, w.RangeSelector) {
			return Errorf(CodeInvalidRangeSelector, "invalid column selection %q", w.RangeSelector)
		}
	}

	if w.Stake <= 0 {
		return Errorf(CodeInvalidStake, "stake must be positive, got %d", w.Stake)
	}
	if w.Stake > MaxStake {
		return Errorf(CodeInvalidStake, "stake %d exceeds the largest payable stake", w.Stake)
	}
	if limits.MaxStake > 0 && w.Stake > limits.MaxStake {
		return Errorf(CodeInvalidStake, "stake %d exceeds table maximum %d", w.Stake, limits.MaxStake)
	}
	return nil
}

// CheckFunds is the last validation step. The ledger re-checks atomically when
// the stake is reserved, so passing here is advisory only.
func CheckFunds(w Wager, balance int64) error {
	if w.Stake > balance {
		return Errorf(CodeInsufficientFunds, "stake %d exceeds balance %d", w.Stake, balance)
	}
	return nil
}
