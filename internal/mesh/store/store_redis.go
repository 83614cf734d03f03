package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"scrollvault/internal/mesh"
)

const (
	stateKey       = "scrollvault:mesh:state"
	fieldLastPulse = "last_pulse"
	fieldSyncs     = "syncs"
)

// RedisState shares mesh sync state between instances.
type RedisState struct {
	client  *redis.Client
	started time.Time
}

func NewRedisState(client *redis.Client, started time.Time) *RedisState {
	return &RedisState{client: client, started: started}
}

func (s *RedisState) RecordSync(ctx context.Context, at time.Time) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, stateKey, fieldLastPulse, at.UTC().Format(time.RFC3339Nano))
		pipe.HIncrBy(ctx, stateKey, fieldSyncs, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record mesh sync: %w", err)
	}
	return nil
}

func (s *RedisState) Snapshot(ctx context.Context) (mesh.Snapshot, error) {
	vals, err := s.client.HGetAll(ctx, stateKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return mesh.Snapshot{}, fmt.Errorf("read mesh state: %w", err)
	}

	snap := mesh.Snapshot{LastPulse: s.started}
	if raw, ok := vals[fieldLastPulse]; ok {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return mesh.Snapshot{}, fmt.Errorf("parse last pulse %q: %w", raw, err)
		}
		snap.LastPulse = t
	}
	if raw, ok := vals[fieldSyncs]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return mesh.Snapshot{}, fmt.Errorf("parse sync count %q: %w", raw, err)
		}
		snap.Syncs = n
	}
	return snap, nil
}
