package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"roulette/internal/roulette"
)

// PostgresStore keeps balances in the players table. Every balance change is
// a single conditional UPDATE, so the row lock taken by postgres is the
// per-player serialization point and the CHECK constraint backs the floor.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const (
	// pgForeignKeyViolation is raised when a settlement names a missing player.
	pgForeignKeyViolation = "23503"
	// pgNumericOutOfRange is raised when a credit would overflow bigint.
	pgNumericOutOfRange = "22003"
)

const (
	sqlOpenPlayer = `INSERT INTO players (id, balance) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`

	sqlBalance = `SELECT balance FROM players WHERE id = $1`

	sqlReserve = `UPDATE players SET balance = balance - $2, updated_at = now()
		WHERE id = $1 AND balance >= $2
		RETURNING balance`

	sqlGrant = `UPDATE players SET balance = balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING balance`

	sqlAppendHistory = `INSERT INTO settlements
		(id, player_id, wager_type, straight_number, range_selector, stake, outcome, won, payout, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`

	sqlHistory = `SELECT id::text, player_id, wager_type, straight_number, range_selector, stake, outcome, won, payout, balance_after, created_at
		FROM settlements
		WHERE player_id = $1
		ORDER BY seq DESC
		LIMIT $2`
)

func (s *PostgresStore) Open(ctx context.Context, playerID string, startingBalance int64) (int64, error) {
	if err := checkAmount(startingBalance); err != nil {
		return 0, err
	}
	if _, err := s.pool.Exec(ctx, sqlOpenPlayer, playerID, startingBalance); err != nil {
		return 0, fmt.Errorf("open account %s: %w", playerID, err)
	}
	return s.Balance(ctx, playerID)
}

func (s *PostgresStore) Balance(ctx context.Context, playerID string) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx, sqlBalance, playerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", playerID, err)
	}
	return checkBalance(playerID, balance)
}

func (s *PostgresStore) Reserve(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}

	var balance int64
	err := s.pool.QueryRow(ctx, sqlReserve, playerID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the player is missing or the floor check refused the debit.
		current, berr := s.Balance(ctx, playerID)
		if berr != nil {
			return 0, berr
		}
		return current, ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("reserve %s: %w", playerID, err)
	}
	return checkBalance(playerID, balance)
}

func (s *PostgresStore) Grant(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	if amount == 0 {
		return s.Balance(ctx, playerID)
	}

	var balance int64
	err := s.pool.QueryRow(ctx, sqlGrant, playerID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange {
		return 0, ErrBalanceOverflow
	}
	if err != nil {
		return 0, fmt.Errorf("grant %s: %w", playerID, err)
	}
	return checkBalance(playerID, balance)
}

func (s *PostgresStore) AppendHistory(ctx context.Context, rec roulette.Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("append history %s: record id: %w", rec.PlayerID, err)
	}

	var selector *string
	if rec.Wager.RangeSelector != "" {
		selector = &rec.Wager.RangeSelector
	}

	_, err = s.pool.Exec(ctx, sqlAppendHistory,
		id,
		rec.PlayerID,
		string(rec.Wager.Type),
		rec.Wager.StraightNumber,
		selector,
		rec.Wager.Stake,
		rec.Outcome.Number,
		rec.Won,
		rec.Payout,
		rec.BalanceAfter,
		rec.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("append history %s: %w", rec.PlayerID, err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, playerID string, limit int) ([]roulette.Record, error) {
	if _, err := s.Balance(ctx, playerID); err != nil {
		return nil, err
	}

	var lim *int
	if limit > 0 {
		lim = &limit
	}

	rows, err := s.pool.Query(ctx, sqlHistory, playerID, lim)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", playerID, err)
	}
	defer rows.Close()

	records := make([]roulette.Record, 0)
	for rows.Next() {
		var (
			rec       roulette.Record
			wagerType string
			selector  *string
			outcome   int
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.PlayerID,
			&wagerType,
			&rec.Wager.StraightNumber,
			&selector,
			&rec.Wager.Stake,
			&outcome,
			&rec.Won,
			&rec.Payout,
			&rec.BalanceAfter,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history %s: %w", playerID, err)
		}
		rec.Wager.Type = roulette.WagerType(wagerType)
		if selector != nil {
			rec.Wager.RangeSelector = *selector
		}
		rec.Outcome = roulette.NewOutcome(outcome)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", playerID, err)
	}

	slices.Reverse(records)
	return records, nil
}
