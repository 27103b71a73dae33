package roulette

import (
	"testing"
)

func TestEvaluate_Table(t *testing.T) {
	seven := 7
	zero := 0

	tests := []struct {
		name     string
		wager    Wager
		outcome  int
		wantWon  bool
		wantMult int64
	}{
		{"straight hit", Wager{Type: WagerStraight, StraightNumber: &seven, Stake: 10}, 7, true, 35},
		{"straight miss", Wager{Type: WagerStraight, StraightNumber: &seven, Stake: 10}, 8, false, 35},
		{"straight on zero", Wager{Type: WagerStraight, StraightNumber: &zero, Stake: 10}, 0, true, 35},
		{"red on red", Wager{Type: WagerRed, Stake: 10}, 1, true, 1},
		{"red on black", Wager{Type: WagerRed, Stake: 10}, 2, false, 1},
		{"red on zero", Wager{Type: WagerRed, Stake: 10}, 0, false, 1},
		{"black on black", Wager{Type: WagerBlack, Stake: 10}, 2, true, 1},
		{"black on zero", Wager{Type: WagerBlack, Stake: 10}, 0, false, 1},
		{"even on 2", Wager{Type: WagerEven, Stake: 10}, 2, true, 1},
		{"even on zero", Wager{Type: WagerEven, Stake: 10}, 0, false, 1},
		{"odd on 35", Wager{Type: WagerOdd, Stake: 10}, 35, true, 1},
		{"odd on zero", Wager{Type: WagerOdd, Stake: 10}, 0, false, 1},
		{"high on 19", Wager{Type: WagerHigh, Stake: 10}, 19, true, 1},
		{"high on 18", Wager{Type: WagerHigh, Stake: 10}, 18, false, 1},
		{"low on 1", Wager{Type: WagerLow, Stake: 10}, 1, true, 1},
		{"low on zero", Wager{Type: WagerLow, Stake: 10}, 0, false, 1},
		{"first dozen on 12", Wager{Type: WagerDozens, RangeSelector: "1-12", Stake: 10}, 12, true, 2},
		{"second dozen on 12", Wager{Type: WagerDozens, RangeSelector: "13-24", Stake: 10}, 12, false, 2},
		{"third dozen on 25", Wager{Type: WagerDozens, RangeSelector: "25-36", Stake: 10}, 25, true, 2},
		{"dozen on zero", Wager{Type: WagerDozens, RangeSelector: "1-12", Stake: 10}, 0, false, 2},
		{"column 1 on 34", Wager{Type: WagerColumn, RangeSelector: "1", Stake: 10}, 34, true, 2},
		{"column 2 on 35", Wager{Type: WagerColumn, RangeSelector: "2", Stake: 10}, 35, true, 2},
		{"column 3 on 36", Wager{Type: WagerColumn, RangeSelector: "3", Stake: 10}, 36, true, 2},
		{"column 3 on 35", Wager{Type: WagerColumn, RangeSelector: "3", Stake: 10}, 35, false, 2},
		{"column on zero", Wager{Type: WagerColumn, RangeSelector: "1", Stake: 10}, 0, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.wager, NewOutcome(tt.outcome))
			if got.Won != tt.wantWon {
				t.Errorf("Won = %v, want %v", got.Won, tt.wantWon)
			}
			if got.Multiplier != tt.wantMult {
				t.Errorf("Multiplier = %d, want %d", got.Multiplier, tt.wantMult)
			}
			wantPayout := int64(0)
			if tt.wantWon {
				wantPayout = tt.wager.Stake * (tt.wantMult + 1)
			}
			if got.Payout != wantPayout {
				t.Errorf("Payout = %d, want %d", got.Payout, wantPayout)
			}
		})
	}
}

func TestEvaluate_WinReturnsStake(t *testing.T) {
	tests := []struct {
		name  string
		wager Wager
		n     int
		want  int64
	}{
		{"straight 35 to 1", Straight(7, 10), 7, 360},
		{"red even money", Wager{Type: WagerRed, Stake: 20}, 1, 40},
		{"column 2 to 1", Wager{Type: WagerColumn, RangeSelector: "2", Stake: 5}, 35, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.wager, NewOutcome(tt.n))
			if !got.Won || got.Payout != tt.want {
				t.Errorf("got %+v, want won with payout %d", got, tt.want)
			}
			if net := got.Payout - tt.wager.Stake; net != tt.wager.Stake*got.Multiplier {
				t.Errorf("net gain = %d, want stake × multiplier = %d", net, tt.wager.Stake*got.Multiplier)
			}
		})
	}
}

func TestRedBlackPartition(t *testing.T) {
	red := Wager{Type: WagerRed, Stake: 1}
	black := Wager{Type: WagerBlack, Stake: 1}

	for n := MIN_POCKET; n <= MAX_POCKET; n++ {
		r, b := Wins(red, n), Wins(black, n)
		if n == 0 {
			if r || b {
				t.Errorf("zero: red=%v black=%v, want both false", r, b)
			}
			continue
		}
		if r == b {
			t.Errorf("%d: red=%v black=%v, want exactly one", n, r, b)
		}
	}

	reds := 0
	for n := 1; n <= MAX_POCKET; n++ {
		if colorOf(n) == ColorRed {
			reds++
		}
	}
	if reds != 18 {
		t.Errorf("red pockets = %d, want 18", reds)
	}
}

func TestEvenOddPartition(t *testing.T) {
	even := Wager{Type: WagerEven, Stake: 1}
	odd := Wager{Type: WagerOdd, Stake: 1}

	for n := MIN_POCKET; n <= MAX_POCKET; n++ {
		e, o := Wins(even, n), Wins(odd, n)
		if n == 0 {
			if e || o {
				t.Errorf("zero: even=%v odd=%v, want both false", e, o)
			}
			continue
		}
		if e == o {
			t.Errorf("%d: even=%v odd=%v, want exactly one", n, e, o)
		}
	}
}

func TestHighLowPartition(t *testing.T) {
	high := Wager{Type: WagerHigh, Stake: 1}
	low := Wager{Type: WagerLow, Stake: 1}

	for n := MIN_POCKET; n <= MAX_POCKET; n++ {
		h, l := Wins(high, n), Wins(low, n)
		if n == 0 {
			if h || l {
				t.Errorf("zero: high=%v low=%v, want both false", h, l)
			}
			continue
		}
		if h == l {
			t.Errorf("%d: high=%v low=%v, want exactly one", n, h, l)
		}
	}
}

func TestRangeBetsPartitionTable(t *testing.T) {
	groups := []struct {
		name      string
		wagerType WagerType
		selectors []string
	}{
		{"dozens", WagerDozens, DozenSelectors},
		{"columns", WagerColumn, ColumnSelectors},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			seen := make(map[int]string)
			for _, sel := range g.selectors {
				w := Wager{Type: g.wagerType, RangeSelector: sel, Stake: 1}
				count := 0
				for n := 1; n <= MAX_POCKET; n++ {
					if !Wins(w, n) {
						continue
					}
					count++
					if prev, dup := seen[n]; dup {
						t.Errorf("%d covered by both %q and %q", n, prev, sel)
					}
					seen[n] = sel
				}
				if count != 12 {
					t.Errorf("selector %q covers %d numbers, want 12", sel, count)
				}
				if Wins(w, 0) {
					t.Errorf("selector %q wins on zero", sel)
				}
			}
			if len(seen) != MAX_POCKET {
				t.Errorf("covered %d numbers, want %d", len(seen), MAX_POCKET)
			}
		})
	}
}

func TestNewOutcome_Classification(t *testing.T) {
	tests := []struct {
		n      int
		color  Color
		parity Parity
		rng    Range
	}{
		{0, ColorGreen, ParityNone, RangeNone},
		{1, ColorRed, ParityOdd, RangeLow},
		{2, ColorBlack, ParityEven, RangeLow},
		{18, ColorRed, ParityEven, RangeLow},
		{19, ColorRed, ParityOdd, RangeHigh},
		{29, ColorBlack, ParityOdd, RangeHigh},
		{36, ColorRed, ParityEven, RangeHigh},
	}

	for _, tt := range tests {
		o := NewOutcome(tt.n)
		if o.Color != tt.color || o.Parity != tt.parity || o.Range != tt.rng {
			t.Errorf("NewOutcome(%d) = %+v, want %s/%s/%s", tt.n, o, tt.color, tt.parity, tt.rng)
		}
	}
}

func TestMultiplier_UnknownType(t *testing.T) {
	if m := Multiplier(WagerType("split")); m != 0 {
		t.Errorf("Multiplier(split) = %d, want 0", m)
	}
}
