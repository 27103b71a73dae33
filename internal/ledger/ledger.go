package ledger

import (
	"context"
	"errors"

	"roulette/internal/roulette"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("amount must not be negative")
	ErrBalanceOverflow    = errors.New("balance would overflow")
	ErrInvariantViolation = errors.New("ledger invariant violated")
)

// Store owns player balances and their settlement history.
//
// Reserve and Grant are atomic and linearizable per player: a concurrent
// reader sees the balance either before or after the call, never in between,
// and the balance never goes below zero. Calls for different players do not
// serialize on each other.
type Store interface {
	// Open creates the account with the starting balance if it does not exist
	// yet and returns the current balance.
	Open(ctx context.Context, playerID string, startingBalance int64) (int64, error)
	Balance(ctx context.Context, playerID string) (int64, error)
	// Reserve takes amount from the balance if the balance covers it,
	// otherwise it returns ErrInsufficientFunds and leaves the balance alone.
	Reserve(ctx context.Context, playerID string, amount int64) (int64, error)
	// Grant adds amount to the balance. A zero amount is a no-op. A credit
	// that would overflow the balance returns ErrBalanceOverflow and changes
	// nothing.
	Grant(ctx context.Context, playerID string, amount int64) (int64, error)
	// AppendHistory is idempotent on the record id, so a retried append
	// never duplicates an entry.
	AppendHistory(ctx context.Context, rec roulette.Record) error
	// History returns up to limit most recent records, oldest first. A
	// non-positive limit returns everything.
	History(ctx context.Context, playerID string, limit int) ([]roulette.Record, error)
}

func checkAmount(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func checkBalance(playerID string, balance int64) (int64, error) {
	if balance < 0 {
		return balance, &InvariantError{PlayerID: playerID, Balance: balance}
	}
	return balance, nil
}

// InvariantError reports a negative balance read back from storage.
type InvariantError struct {
	PlayerID string
	Balance  int64
}

func (e *InvariantError) Error() string {
	return "ledger invariant violated: player " + e.PlayerID + " has a negative balance"
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }
