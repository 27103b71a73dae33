package settlement

import (
	"context"
	"sync"
	"sync/atomic"

	"roulette/internal/ledger"
	"roulette/internal/roulette"
)

// fakeStore wraps the memory ledger with call counting and injectable
// failures.
type fakeStore struct {
	*ledger.MemoryStore

	calls          atomic.Int64
	appendAttempts atomic.Int64

	mu           sync.Mutex
	balanceErr   error
	reserveErr   error
	grantErr     error
	appendErr    error
	appendFailN  int
	grantsFailed int
	reserveHook  func(ctx context.Context)
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: ledger.NewMemoryStore()}
}

func (f *fakeStore) fail(set func(f *fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set(f)
}

func (f *fakeStore) Balance(ctx context.Context, playerID string) (int64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err := f.balanceErr
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.MemoryStore.Balance(ctx, playerID)
}

func (f *fakeStore) Reserve(ctx context.Context, playerID string, amount int64) (int64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err, hook := f.reserveErr, f.reserveHook
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if hook != nil {
		hook(ctx)
	}
	return f.MemoryStore.Reserve(ctx, playerID, amount)
}

func (f *fakeStore) Grant(ctx context.Context, playerID string, amount int64) (int64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err := f.grantErr
	if err != nil {
		f.grantsFailed++
	}
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.MemoryStore.Grant(ctx, playerID, amount)
}

func (f *fakeStore) AppendHistory(ctx context.Context, rec roulette.Record) error {
	f.calls.Add(1)
	f.appendAttempts.Add(1)
	f.mu.Lock()
	err := f.appendErr
	if f.appendFailN > 0 {
		f.appendFailN--
		if err == nil {
			err = errTransient
		}
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.AppendHistory(ctx, rec)
}

func (f *fakeStore) History(ctx context.Context, playerID string, limit int) ([]roulette.Record, error) {
	f.calls.Add(1)
	return f.MemoryStore.History(ctx, playerID, limit)
}
