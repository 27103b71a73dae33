package roulette

const (
	MIN_POCKET   = 0
	MAX_POCKET   = 36
	POCKET_COUNT = MAX_POCKET - MIN_POCKET + 1
)

type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGreen Color = "green"
)

type Parity string

const (
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
	ParityNone Parity = "none"
)

type Range string

const (
	RangeLow  Range = "low"
	RangeHigh Range = "high"
	RangeNone Range = "none"
)

var redPockets = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true,
	12: true, 14: true, 16: true, 18: true, 19: true,
	21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

// Outcome is the pocket the ball landed in, with its derived classification.
type Outcome struct {
	Number int    `json:"number"`
	Color  Color  `json:"color"`
	Parity Parity `json:"parity"`
	Range  Range  `json:"range"`
}

// NewOutcome classifies a pocket number. Numbers outside [0,36] are the
// generator's bug, not the caller's, and are classified as green.
func NewOutcome(number int) Outcome {
	return Outcome{
		Number: number,
		Color:  colorOf(number),
		Parity: parityOf(number),
		Range:  rangeOf(number),
	}
}

func inTable(n int) bool {
	return n >= 1 && n <= MAX_POCKET
}

func colorOf(n int) Color {
	if !inTable(n) {
		return ColorGreen
	}
	if redPockets[n] {
		return ColorRed
	}
	return ColorBlack
}

func parityOf(n int) Parity {
	if !inTable(n) {
		return ParityNone
	}
	if n%2 == 0 {
		return ParityEven
	}
	return ParityOdd
}

func rangeOf(n int) Range {
	switch {
	case n >= 1 && n <= 18:
		return RangeLow
	case n >= 19 && n <= MAX_POCKET:
		return RangeHigh
	default:
		return RangeNone
	}
}

// Column returns the column (1, 2 or 3) holding n, or 0 for the zero pocket.
func Column(n int) int {
	if !inTable(n) {
		return 0
	}
	if c := n % 3; c != 0 {
		return c
	}
	return 3
}

// Dozen returns the dozen (1, 2 or 3) holding n, or 0 for the zero pocket.
func Dozen(n int) int {
	if !inTable(n) {
		return 0
	}
	return (n-1)/12 + 1
}
