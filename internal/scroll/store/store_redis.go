package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"scrollvault/internal/scroll/models"
	"scrollvault/pkg/platform/sentinel"
)

const (
	scrollKeyPrefix = "scrollvault:scroll:"
	scrollIndexKey  = "scrollvault:scrolls"
	positionKey     = "scrollvault:ledger:position"
)

// nextPositionScript seeds the counter with the baseline on first use, then
// increments it, in one round trip so concurrent instances never hand out
// the same position.
var nextPositionScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	redis.call("SET", KEYS[1], ARGV[1])
end
return redis.call("INCR", KEYS[1])
`)

// RedisLedger shares the ledger between instances.
type RedisLedger struct {
	client   *redis.Client
	baseline int64
}

func NewRedisLedger(client *redis.Client, baseline int64) *RedisLedger {
	return &RedisLedger{client: client, baseline: baseline}
}

func (l *RedisLedger) NextPosition(ctx context.Context) (int64, error) {
	pos, err := nextPositionScript.Run(ctx, l.client, []string{positionKey}, l.baseline).Int64()
	if err != nil {
		return 0, fmt.Errorf("allocate treaty position: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return pos, nil
}

func (l *RedisLedger) CurrentPosition(ctx context.Context) (int64, error) {
	raw, err := l.client.Get(ctx, positionKey).Result()
	if errors.Is(err, redis.Nil) {
		return l.baseline, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read treaty position: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	pos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse treaty position %q: %w", raw, err)
	}
	return pos, nil
}

// Save writes the scroll only if its id is new.
func (l *RedisLedger) Save(ctx context.Context, scroll *models.Scroll) error {
	data, err := json.Marshal(scroll)
	if err != nil {
		return fmt.Errorf("encode scroll: %w", err)
	}
	ok, err := l.client.SetNX(ctx, scrollKeyPrefix+scroll.ID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("save scroll: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	if !ok {
		return ErrDuplicateScroll
	}
	if err := l.client.SAdd(ctx, scrollIndexKey, scroll.ID).Err(); err != nil {
		return fmt.Errorf("index scroll: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (l *RedisLedger) FindByID(ctx context.Context, id string) (*models.Scroll, error) {
	data, err := l.client.Get(ctx, scrollKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load scroll: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	var s models.Scroll
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scroll %s: %w", id, err)
	}
	return &s, nil
}

func (l *RedisLedger) Count(ctx context.Context) (int64, error) {
	n, err := l.client.SCard(ctx, scrollIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count scrolls: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return n, nil
}
