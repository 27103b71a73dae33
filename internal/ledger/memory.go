package ledger

import (
	"context"
	"math"
	"sync"

	"roulette/internal/roulette"
)

type account struct {
	mu      sync.Mutex
	balance int64
	history []roulette.Record
	settled map[string]struct{}
}

// MemoryStore keeps accounts in process memory. Each account has its own
// mutex, so players never contend with each other.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*account)}
}

func (m *MemoryStore) get(playerID string) (*account, error) {
	m.mu.RLock()
	acc, ok := m.accounts[playerID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

func (m *MemoryStore) Open(ctx context.Context, playerID string, startingBalance int64) (int64, error) {
	if err := checkAmount(startingBalance); err != nil {
		return 0, err
	}

	m.mu.Lock()
	acc, ok := m.accounts[playerID]
	if !ok {
		acc = &account{balance: startingBalance}
		m.accounts[playerID] = acc
	}
	m.mu.Unlock()

	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (m *MemoryStore) Balance(ctx context.Context, playerID string) (int64, error) {
	acc, err := m.get(playerID)
	if err != nil {
		return 0, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return checkBalance(playerID, acc.balance)
}

func (m *MemoryStore) Reserve(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	acc, err := m.get(playerID)
	if err != nil {
		return 0, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return acc.balance, err
	}
	if acc.balance < amount {
		return acc.balance, ErrInsufficientFunds
	}
	acc.balance -= amount
	return checkBalance(playerID, acc.balance)
}

func (m *MemoryStore) Grant(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	acc, err := m.get(playerID)
	if err != nil {
		return 0, err
	}

	acc.mu.Lock()
	defer acc.mu.Unlock()
	if amount > math.MaxInt64-acc.balance {
		return acc.balance, ErrBalanceOverflow
	}
	acc.balance += amount
	return checkBalance(playerID, acc.balance)
}

func (m *MemoryStore) AppendHistory(ctx context.Context, rec roulette.Record) error {
	acc, err := m.get(rec.PlayerID)
	if err != nil {
		return err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.settled == nil {
		acc.settled = make(map[string]struct{})
	}
	if _, dup := acc.settled[rec.ID]; dup {
		return nil
	}
	acc.settled[rec.ID] = struct{}{}
	acc.history = append(acc.history, rec)
	return nil
}

func (m *MemoryStore) History(ctx context.Context, playerID string, limit int) ([]roulette.Record, error) {
	acc, err := m.get(playerID)
	if err != nil {
		return nil, err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()

	start := 0
	if limit > 0 && len(acc.history) > limit {
		start = len(acc.history) - limit
	}
	out := make([]roulette.Record, len(acc.history)-start)
	copy(out, acc.history[start:])
	return out, nil
}
