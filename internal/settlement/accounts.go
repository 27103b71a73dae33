package settlement

import (
	"context"

	"roulette/internal/roulette"
)

const MAX_HISTORY_LIMIT = 500

// OpenAccount creates the player's account with startingBalance unless it
// already exists, and returns the current balance either way.
func (e *Engine) OpenAccount(ctx context.Context, playerID string, startingBalance int64) (int64, error) {
	if playerID == "" {
		return 0, roulette.NewError(roulette.CodeAccountNotFound, "player id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, e.storageTimeout)
	defer cancel()

	balance, err := e.store.Open(ctx, playerID, startingBalance)
	if err != nil {
		return 0, ledgerError(err, "open account")
	}
	return balance, nil
}

func (e *Engine) Balance(ctx context.Context, playerID string) (int64, error) {
	balance, err := e.balance(ctx, playerID)
	if err != nil {
		return 0, ledgerError(err, "read balance")
	}
	return balance, nil
}

// History returns the player's most recent settlements, oldest first. The
// limit is clamped to MAX_HISTORY_LIMIT; zero or less means the maximum.
func (e *Engine) History(ctx context.Context, playerID string, limit int) ([]roulette.Record, error) {
	if limit <= 0 || limit > MAX_HISTORY_LIMIT {
		limit = MAX_HISTORY_LIMIT
	}
	ctx, cancel := context.WithTimeout(ctx, e.storageTimeout)
	defer cancel()

	recs, err := e.store.History(ctx, playerID, limit)
	if err != nil {
		return nil, ledgerError(err, "read history")
	}
	return recs, nil
}
