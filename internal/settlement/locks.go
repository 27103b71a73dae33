package settlement

import (
	"context"
	"sync"
)

// playerLocks hands out one lock per player id. Entries are dropped once no
// goroutine holds or waits on them.
type playerLocks struct {
	mu    sync.Mutex
	locks map[string]*playerLock
}

type playerLock struct {
	ch   chan struct{}
	refs int
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{locks: make(map[string]*playerLock)}
}

// acquire blocks until the player's lock is free or ctx is done.
func (l *playerLocks) acquire(ctx context.Context, playerID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	pl, ok := l.locks[playerID]
	if !ok {
		pl = &playerLock{ch: make(chan struct{}, 1)}
		l.locks[playerID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-pl.ch
				l.release(playerID, pl)
			})
		}, nil
	case <-ctx.Done():
		l.release(playerID, pl)
		return nil, ctx.Err()
	}
}

func (l *playerLocks) release(playerID string, pl *playerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, playerID)
	}
}

func (l *playerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
