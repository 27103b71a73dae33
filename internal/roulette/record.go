package roulette

import "time"

// Record is the immutable audit entry written once per resolved wager.
type Record struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"player_id"`
	Wager        Wager     `json:"wager"`
	Outcome      Outcome   `json:"outcome"`
	Won          bool      `json:"won"`
	Payout       int64     `json:"payout"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
