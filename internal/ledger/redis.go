package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"roulette/internal/roulette"
)

const (
	REDIS_KEY_BALANCE = "roulette:balance:"
	REDIS_KEY_HISTORY = "roulette:history:"
	REDIS_KEY_SETTLED = "roulette:settled:"
)

// Scripts return {status, balance}. Status 1 is success, 0 insufficient
// funds, -1 unknown account, -2 overflow. Redis runs a script without
// interleaving other commands, which makes check-and-decrement a single step.
var (
	// Lua numbers are doubles, so the floor check compares the canonical
	// integer strings instead: a shorter string is the smaller number.
	reserveScript = redis.NewScript(`
local b = redis.call('GET', KEYS[1])
if not b then
	return {-1, 0}
end
local amount = ARGV[1]
if string.sub(b, 1, 1) == '-' or #b < #amount or (#b == #amount and b < amount) then
	return {0, 0}
end
return {1, redis.call('DECRBY', KEYS[1], amount)}
`)

	grantScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {-1, 0}
end
local r = redis.pcall('INCRBY', KEYS[1], ARGV[1])
if type(r) == 'table' and r.err then
	return {-2, 0}
end
return {1, r}
`)

	// A record id already in the settled set is not pushed twice.
	appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('SADD', KEYS[3], ARGV[2]) == 0 then
	return 0
end
return redis.call('RPUSH', KEYS[2], ARGV[1])
`)
)

// RedisStore keeps each balance as an integer string and each history as a
// list of JSON records.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func balanceKey(playerID string) string { return REDIS_KEY_BALANCE + playerID }
func historyKey(playerID string) string { return REDIS_KEY_HISTORY + playerID }
func settledKey(playerID string) string { return REDIS_KEY_SETTLED + playerID }

func (s *RedisStore) Open(ctx context.Context, playerID string, startingBalance int64) (int64, error) {
	if err := checkAmount(startingBalance); err != nil {
		return 0, err
	}
	if err := s.client.SetNX(ctx, balanceKey(playerID), startingBalance, 0).Err(); err != nil {
		return 0, fmt.Errorf("open account %s: %w", playerID, err)
	}
	return s.Balance(ctx, playerID)
}

func (s *RedisStore) Balance(ctx context.Context, playerID string) (int64, error) {
	balance, err := s.client.Get(ctx, balanceKey(playerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", playerID, err)
	}
	return checkBalance(playerID, balance)
}

func (s *RedisStore) Reserve(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	res, err := reserveScript.Run(ctx, s.client, []string{balanceKey(playerID)}, amount).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("reserve %s: %w", playerID, err)
	}
	balance, err := scriptResult(playerID, res)
	if errors.Is(err, ErrInsufficientFunds) {
		current, berr := s.Balance(ctx, playerID)
		if berr != nil {
			return 0, berr
		}
		return current, ErrInsufficientFunds
	}
	return balance, err
}

func (s *RedisStore) Grant(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	res, err := grantScript.Run(ctx, s.client, []string{balanceKey(playerID)}, amount).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("grant %s: %w", playerID, err)
	}
	return scriptResult(playerID, res)
}

func scriptResult(playerID string, res []int64) (int64, error) {
	if len(res) != 2 {
		return 0, fmt.Errorf("unexpected script reply for %s: %v", playerID, res)
	}
	switch res[0] {
	case 1:
		return checkBalance(playerID, res[1])
	case 0:
		return 0, ErrInsufficientFunds
	case -2:
		return 0, ErrBalanceOverflow
	default:
		return 0, ErrAccountNotFound
	}
}

func (s *RedisStore) AppendHistory(ctx context.Context, rec roulette.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	n, err := appendScript.Run(ctx, s.client,
		[]string{balanceKey(rec.PlayerID), historyKey(rec.PlayerID), settledKey(rec.PlayerID)},
		data, rec.ID).Int64()
	if err != nil {
		return fmt.Errorf("append history %s: %w", rec.PlayerID, err)
	}
	if n < 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, playerID string, limit int) ([]roulette.Record, error) {
	if _, err := s.Balance(ctx, playerID); err != nil {
		return nil, err
	}

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	items, err := s.client.LRange(ctx, historyKey(playerID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", playerID, err)
	}

	records := make([]roulette.Record, 0, len(items))
	for _, item := range items {
		var rec roulette.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", playerID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
