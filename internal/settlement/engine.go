package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"roulette/internal/ledger"
	"roulette/internal/roulette"
)

const (
	DEFAULT_STORAGE_TIMEOUT = 3 * time.Second
	DEFAULT_LOCK_TIMEOUT    = 10 * time.Second
	DEFAULT_APPEND_BUDGET   = 5 * time.Second
)

// Publisher receives every recorded settlement, e.g. for a live feed. It must
// not block.
type Publisher interface {
	Publish(rec roulette.Record)
}

// Receipt is what the caller gets back for a recorded settlement.
type Receipt struct {
	SettlementID string
	PlayerID     string
	Wager        roulette.Wager
	Outcome      roulette.Outcome
	Won          bool
	Multiplier   int64
	Payout       int64
	NewBalance   int64
	SettledAt    time.Time
}

// Engine settles one wager at a time per player. Settlements for different
// players run in parallel; the ledger keeps each balance consistent on its
// own, and the per-player lock here makes every reported NewBalance equal to
// the previous balance minus stake plus payout.
type Engine struct {
	store     ledger.Store
	generator roulette.Generator
	publisher Publisher
	observe   func(Transition)
	locks     *playerLocks

	limits         roulette.Limits
	storageTimeout time.Duration
	lockTimeout    time.Duration
	appendBudget   time.Duration
	now            func() time.Time
	newID          func() string
}

type Option func(*Engine)

func WithLimits(l roulette.Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithStorageTimeout bounds every single ledger call.
func WithStorageTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.storageTimeout = d
		}
	}
}

// WithLockTimeout bounds how long a request waits behind other settlements of
// the same player.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lockTimeout = d
		}
	}
}

// WithAppendBudget bounds the total time spent retrying the history append.
func WithAppendBudget(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.appendBudget = d
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithObserver registers a callback run synchronously on every transition.
func WithObserver(fn func(Transition)) Option {
	return func(e *Engine) { e.observe = fn }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store ledger.Store, generator roulette.Generator, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		generator:      generator,
		locks:          newPlayerLocks(),
		storageTimeout: DEFAULT_STORAGE_TIMEOUT,
		lockTimeout:    DEFAULT_LOCK_TIMEOUT,
		appendBudget:   DEFAULT_APPEND_BUDGET,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settle validates the wager, reserves the stake, resolves an outcome, pays
// out and records the settlement. Any returned error is a *roulette.Error.
//
// From the reserve on the caller's cancellation is ignored: the settlement
// either completes or the stake is returned.
//
// A receipt returned together with an error means the balance was settled
// but the history record could not be written. The error is an
// InternalError and the wager must not be sent again.
func (e *Engine) Settle(ctx context.Context, playerID string, w roulette.Wager) (*Receipt, error) {
	r := &run{playerID: playerID, state: StateIdle, observe: e.observe}

	r.to(StateValidating, nil)
	if err := roulette.Validate(w, e.limits); err != nil {
		return nil, e.reject(r, err)
	}
	w = w.Normalized()

	lockCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	unlock, err := e.locks.acquire(lockCtx, playerID)
	cancel()
	if err != nil {
		return nil, e.reject(r, roulette.Wrap(roulette.CodeStorageError, err, "player is busy with another settlement"))
	}
	defer unlock()

	balance, err := e.balance(ctx, playerID)
	if err != nil {
		return nil, e.reject(r, ledgerError(err, "read balance"))
	}
	if err := roulette.CheckFunds(w, balance); err != nil {
		return nil, e.reject(r, err)
	}

	// A debit may still commit after the caller has gone, so the caller's
	// cancellation stops here.
	ctx = context.WithoutCancel(ctx)

	r.to(StateReserving, nil)
	afterStake, err := e.reserve(ctx, playerID, w.Stake)
	if err != nil {
		return nil, e.reject(r, ledgerError(err, "reserve stake"))
	}

	r.to(StateResolving, nil)
	number, err := e.generator.Next(ctx)
	if err == nil && (number < roulette.MIN_POCKET || number > roulette.MAX_POCKET) {
		err = roulette.Errorf(roulette.CodeGeneratorUnavailable, "generator produced pocket %d", number)
	}
	if err != nil {
		return nil, e.fail(r, e.compensate(ctx, playerID, w.Stake, err))
	}
	outcome := roulette.NewOutcome(number)
	result := roulette.Evaluate(w, outcome)

	r.to(StateSettling, nil)
	newBalance := afterStake
	if result.Won {
		newBalance, err = e.grant(ctx, playerID, result.Payout)
		if err != nil {
			log.Printf("[SETTLE] payout of %d to player %s on pocket %d failed after stake was taken: %v",
				result.Payout, playerID, number, err)
			return nil, e.fail(r, roulette.Wrap(roulette.CodeInternalError, err, "payout could not be credited"))
		}
	}

	rec := roulette.Record{
		ID:           e.newID(),
		PlayerID:     playerID,
		Wager:        w,
		Outcome:      outcome,
		Won:          result.Won,
		Payout:       result.Payout,
		BalanceAfter: newBalance,
		CreatedAt:    e.now().UTC(),
	}
	receipt := &Receipt{
		SettlementID: rec.ID,
		PlayerID:     playerID,
		Wager:        w,
		Outcome:      outcome,
		Won:          result.Won,
		Multiplier:   result.Multiplier,
		Payout:       result.Payout,
		NewBalance:   newBalance,
		SettledAt:    rec.CreatedAt,
	}

	if err := e.appendHistory(ctx, rec); err != nil {
		data, _ := json.Marshal(rec)
		log.Printf("[SETTLE] settlement applied but not recorded, reconcile: %s: %v", data, err)
		return receipt, e.fail(r, roulette.Wrap(roulette.CodeInternalError, err, "settlement applied but not recorded"))
	}

	r.to(StateRecorded, nil)
	log.Printf("[SETTLE] player %s %s stake %d -> pocket %d (%s) won=%t payout %d balance %d",
		playerID, w.Type, w.Stake, number, outcome.Color, result.Won, result.Payout, newBalance)

	if e.publisher != nil {
		e.publisher.Publish(rec)
	}

	return receipt, nil
}

// compensate returns a reserved stake after the outcome could not be
// resolved. The original cause is kept unless the refund itself fails.
func (e *Engine) compensate(ctx context.Context, playerID string, stake int64, cause error) error {
	if _, err := e.grant(ctx, playerID, stake); err != nil {
		log.Printf("[SETTLE] refund of stake %d to player %s failed: %v (generator: %v)", stake, playerID, err, cause)
		return roulette.Wrap(roulette.CodeInternalError, errors.Join(cause, err), "stake could not be refunded")
	}
	log.Printf("[SETTLE] generator failed for player %s, stake %d refunded: %v", playerID, stake, cause)
	if re, ok := roulette.AsError(cause); ok && re.Code == roulette.CodeGeneratorUnavailable {
		return re
	}
	return roulette.Wrap(roulette.CodeGeneratorUnavailable, cause, "outcome generator unavailable")
}

func (e *Engine) reject(r *run, err error) error {
	r.to(StateRejected, err)
	return err
}

func (e *Engine) fail(r *run, err error) error {
	r.to(StateErrored, err)
	return err
}

func (e *Engine) balance(ctx context.Context, playerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storageTimeout)
	defer cancel()
	return e.store.Balance(ctx, playerID)
}

func (e *Engine) reserve(ctx context.Context, playerID string, amount int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storageTimeout)
	defer cancel()
	return e.store.Reserve(ctx, playerID, amount)
}

// grant is attempted once. A timed out credit may still have been applied,
// so retrying it could pay twice.
func (e *Engine) grant(ctx context.Context, playerID string, amount int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storageTimeout)
	defer cancel()
	return e.store.Grant(ctx, playerID, amount)
}

// appendHistory retries with backoff; stores dedupe on the record id.
func (e *Engine) appendHistory(ctx context.Context, rec roulette.Record) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = e.appendBudget

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, e.storageTimeout)
		defer cancel()
		err := e.store.AppendHistory(actx, rec)
		if err == nil {
			return nil
		}
		if permanent(err) {
			return backoff.Permanent(err)
		}
		log.Printf("[SETTLE] append of settlement %s failed (attempt %d): %v", rec.ID, attempt, err)
		return err
	}, backoff.WithContext(b, ctx))
}

func permanent(err error) bool {
	return errors.Is(err, ledger.ErrAccountNotFound) ||
		errors.Is(err, ledger.ErrInvariantViolation) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrBalanceOverflow) ||
		errors.Is(err, ledger.ErrInsufficientFunds)
}

// ledgerError maps a ledger failure onto the settlement error codes.
func ledgerError(err error, op string) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return roulette.Wrap(roulette.CodeInsufficientFunds, err, "insufficient balance")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return roulette.Wrap(roulette.CodeAccountNotFound, err, "account not found")
	case errors.Is(err, ledger.ErrInvariantViolation), errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrBalanceOverflow):
		log.Printf("[SETTLE] %s: %v", op, err)
		return roulette.Wrap(roulette.CodeInternalError, err, op+" failed")
	}
	return roulette.Wrap(roulette.CodeStorageError, err, op+" failed")
}
