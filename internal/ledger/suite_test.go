package ledger

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"roulette/internal/roulette"
)

// runStoreSuite exercises the behaviour every Store backend must share.
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()
	player := func() string { return "player-" + uuid.NewString() }

	t.Run("open is idempotent", func(t *testing.T) {
		id := player()
		b, err := store.Open(ctx, id, 100)
		if err != nil || b != 100 {
			t.Fatalf("Open() = %d, %v; want 100", b, err)
		}
		b, err = store.Open(ctx, id, 500)
		if err != nil || b != 100 {
			t.Fatalf("second Open() = %d, %v; want 100", b, err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		id := player()
		if _, err := store.Balance(ctx, id); !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("Balance() error = %v, want ErrAccountNotFound", err)
		}
		if _, err := store.Reserve(ctx, id, 1); !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("Reserve() error = %v, want ErrAccountNotFound", err)
		}
		if _, err := store.Grant(ctx, id, 1); !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("Grant() error = %v, want ErrAccountNotFound", err)
		}
		if _, err := store.History(ctx, id, 0); !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("History() error = %v, want ErrAccountNotFound", err)
		}
	})

	t.Run("reserve checks the floor", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 100)

		b, err := store.Reserve(ctx, id, 60)
		if err != nil || b != 40 {
			t.Fatalf("Reserve(60) = %d, %v; want 40", b, err)
		}
		if _, err := store.Reserve(ctx, id, 50); !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("Reserve(50) error = %v, want ErrInsufficientFunds", err)
		}
		assertBalance(t, store, id, 40)

		b, err = store.Reserve(ctx, id, 40)
		if err != nil || b != 0 {
			t.Fatalf("Reserve(40) = %d, %v; want 0", b, err)
		}
	})

	t.Run("grant", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 5)

		b, err := store.Grant(ctx, id, 0)
		if err != nil || b != 5 {
			t.Fatalf("Grant(0) = %d, %v; want 5", b, err)
		}
		b, err = store.Grant(ctx, id, 25)
		if err != nil || b != 30 {
			t.Fatalf("Grant(25) = %d, %v; want 30", b, err)
		}
	})

	t.Run("reserve is exact beyond float precision", func(t *testing.T) {
		id := player()
		const big = int64(1)<<60 + 1
		mustOpen(t, store, id, big)

		if _, err := store.Reserve(ctx, id, big+1); !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("Reserve(balance+1) error = %v, want ErrInsufficientFunds", err)
		}
		assertBalance(t, store, id, big)

		b, err := store.Reserve(ctx, id, big)
		if err != nil || b != 0 {
			t.Fatalf("Reserve(balance) = %d, %v; want 0", b, err)
		}
	})

	t.Run("grant refuses to overflow", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, math.MaxInt64-5)

		if _, err := store.Grant(ctx, id, 10); !errors.Is(err, ErrBalanceOverflow) {
			t.Fatalf("Grant(10) error = %v, want ErrBalanceOverflow", err)
		}
		assertBalance(t, store, id, math.MaxInt64-5)

		b, err := store.Grant(ctx, id, 5)
		if err != nil || b != math.MaxInt64 {
			t.Fatalf("Grant(5) = %d, %v; want MaxInt64", b, err)
		}
	})

	t.Run("negative amounts rejected", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 10)

		if _, err := store.Reserve(ctx, id, -1); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Reserve(-1) error = %v, want ErrInvalidAmount", err)
		}
		if _, err := store.Grant(ctx, id, -1); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Grant(-1) error = %v, want ErrInvalidAmount", err)
		}
		assertBalance(t, store, id, 10)
	})

	t.Run("concurrent reserves never overdraw", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 100)

		var ok, refused atomic.Int64
		var g errgroup.Group
		for i := 0; i < 50; i++ {
			g.Go(func() error {
				b, err := store.Reserve(ctx, id, 10)
				switch {
				case errors.Is(err, ErrInsufficientFunds):
					refused.Add(1)
					return nil
				case err != nil:
					return err
				}
				if b < 0 {
					return errors.New("negative balance observed")
				}
				ok.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}

		if ok.Load() != 10 || refused.Load() != 40 {
			t.Errorf("succeeded=%d refused=%d, want 10/40", ok.Load(), refused.Load())
		}
		assertBalance(t, store, id, 0)
	})

	t.Run("concurrent reserve and grant", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 50)

		var g errgroup.Group
		for i := 0; i < 50; i++ {
			g.Go(func() error {
				_, err := store.Reserve(ctx, id, 1)
				return err
			})
			g.Go(func() error {
				_, err := store.Grant(ctx, id, 1)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
		assertBalance(t, store, id, 50)
	})

	t.Run("players are independent", func(t *testing.T) {
		a, b := player(), player()
		mustOpen(t, store, a, 10)
		mustOpen(t, store, b, 20)

		if _, err := store.Reserve(ctx, a, 10); err != nil {
			t.Fatal(err)
		}
		assertBalance(t, store, a, 0)
		assertBalance(t, store, b, 20)
	})

	t.Run("history keeps insertion order", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 100)

		recs := []roulette.Record{
			testRecord(id, roulette.Straight(7, 10), 7, 450),
			testRecord(id, roulette.Wager{Type: roulette.WagerRed, Stake: 20}, 0, 420),
			testRecord(id, roulette.Wager{Type: roulette.WagerDozens, RangeSelector: "13-24", Stake: 5}, 14, 430),
		}
		for _, rec := range recs {
			if err := store.AppendHistory(ctx, rec); err != nil {
				t.Fatalf("AppendHistory() error = %v", err)
			}
		}

		all, err := store.History(ctx, id, 0)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("History() returned %d records, want 3", len(all))
		}
		for i := range recs {
			if all[i].ID != recs[i].ID {
				t.Errorf("record %d id = %s, want %s", i, all[i].ID, recs[i].ID)
			}
		}

		first := all[0]
		if first.Wager.StraightNumber == nil || *first.Wager.StraightNumber != 7 {
			t.Errorf("straight number lost: %+v", first.Wager)
		}
		if first.Outcome.Color != roulette.ColorRed || !first.Won || first.Payout != 360 {
			t.Errorf("record fields lost: %+v", first)
		}
		if all[2].Wager.RangeSelector != "13-24" {
			t.Errorf("range selector lost: %+v", all[2].Wager)
		}

		last, err := store.History(ctx, id, 2)
		if err != nil {
			t.Fatalf("History(2) error = %v", err)
		}
		if len(last) != 2 || last[0].ID != recs[1].ID || last[1].ID != recs[2].ID {
			t.Errorf("History(2) = %v, want the last two records oldest first", last)
		}
	})

	t.Run("append is idempotent", func(t *testing.T) {
		id := player()
		mustOpen(t, store, id, 100)

		rec := testRecord(id, roulette.Wager{Type: roulette.WagerBlack, Stake: 10}, 2, 110)
		for i := 0; i < 3; i++ {
			if err := store.AppendHistory(ctx, rec); err != nil {
				t.Fatalf("AppendHistory() attempt %d error = %v", i, err)
			}
		}
		all, err := store.History(ctx, id, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 {
			t.Errorf("History() returned %d records after repeated append, want 1", len(all))
		}
	})

	t.Run("append for unknown account", func(t *testing.T) {
		rec := testRecord(player(), roulette.Wager{Type: roulette.WagerOdd, Stake: 1}, 3, 1)
		if err := store.AppendHistory(ctx, rec); !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("AppendHistory() error = %v, want ErrAccountNotFound", err)
		}
	})
}

func mustOpen(t *testing.T, store Store, id string, balance int64) {
	t.Helper()
	if _, err := store.Open(context.Background(), id, balance); err != nil {
		t.Fatalf("Open(%s) error = %v", id, err)
	}
}

func assertBalance(t *testing.T, store Store, id string, want int64) {
	t.Helper()
	got, err := store.Balance(context.Background(), id)
	if err != nil {
		t.Fatalf("Balance(%s) error = %v", id, err)
	}
	if got != want {
		t.Errorf("Balance(%s) = %d, want %d", id, got, want)
	}
}

func testRecord(playerID string, w roulette.Wager, outcome int, balanceAfter int64) roulette.Record {
	o := roulette.NewOutcome(outcome)
	res := roulette.Evaluate(w, o)
	return roulette.Record{
		ID:           uuid.NewString(),
		PlayerID:     playerID,
		Wager:        w.Normalized(),
		Outcome:      o,
		Won:          res.Won,
		Payout:       res.Payout,
		BalanceAfter: balanceAfter,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}
