package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vod-catalog/domain/model"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	SnapshotTTL = 30 * time.Minute
	SnapshotKey = "homepage"

	maxTxAttempts = 5
)

// MemorySnapshotStore keeps the homepage snapshot in a one-slot TTL cache.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	cache *TTLCache[*model.PageResult]
}

var _ repository.ISnapshotStore = (*MemorySnapshotStore)(nil)

func NewMemorySnapshotStore(ttl time.Duration, now func() time.Time) *MemorySnapshotStore {
	return &MemorySnapshotStore{cache: NewTTLCache[*model.PageResult]("snapshot", 1, ttl, now)}
}

func (s *MemorySnapshotStore) Get(_ context.Context) (*model.PageResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.cache.Get(SnapshotKey)
	if !ok {
		return nil, false
	}
	return snap.Clone(), true
}

func (s *MemorySnapshotStore) Set(_ context.Context, snapshot *model.PageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(snapshot)
	return nil
}

func (s *MemorySnapshotStore) Update(_ context.Context, fn func(current *model.PageResult) *model.PageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, _ := s.cache.Get(SnapshotKey)
	next := fn(current.Clone())
	if next == nil {
		return nil
	}
	s.store(next)
	return nil
}

func (s *MemorySnapshotStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
	metrics.SnapshotVideos.Set(0)
	return nil
}

func (s *MemorySnapshotStore) store(snapshot *model.PageResult) {
	if snapshot == nil {
		return
	}
	s.cache.Set(SnapshotKey, snapshot.Clone())
	metrics.SnapshotVideos.Set(float64(len(snapshot.Videos)))
}

// RedisSnapshotStore shares the homepage snapshot between replicas as JSON under one key.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ repository.ISnapshotStore = (*RedisSnapshotStore)(nil)

func NewRedisSnapshotStore(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotStore {
	if key == "" {
		key = CreateKey("catalog", SnapshotKey)
	}
	return &RedisSnapshotStore{client: client, key: key, ttl: ttl}
}

func (s *RedisSnapshotStore) Get(ctx context.Context) (*model.PageResult, bool) {
	if s.client == nil {
		return nil, false
	}
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.GetLogger().WithField("error", err).Warn("Failed to read snapshot from redis")
		}
		metrics.RecordCacheLookup("snapshot", "miss")
		return nil, false
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Discarding undecodable snapshot")
		metrics.RecordCacheLookup("snapshot", "miss")
		return nil, false
	}
	metrics.RecordCacheLookup("snapshot", "hit")
	return snap, true
}

func (s *RedisSnapshotStore) Set(ctx context.Context, snapshot *model.PageResult) error {
	if s.client == nil || snapshot == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	metrics.SnapshotVideos.Set(float64(len(snapshot.Videos)))
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries when another writer got there first.
func (s *RedisSnapshotStore) Update(ctx context.Context, fn func(current *model.PageResult) *model.PageResult) error {
	if s.client == nil {
		return nil
	}
	var size int
	txf := func(tx *redis.Tx) error {
		var current *model.PageResult
		raw, err := tx.Get(ctx, s.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if current, err = decodeSnapshot(raw); err != nil {
				current = nil
			}
		}
		next := fn(current)
		if next == nil {
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		size = len(next.Videos)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			if size > 0 {
				metrics.SnapshotVideos.Set(float64(size))
			}
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	return fmt.Errorf("failed to update snapshot: %w", redis.TxFailedErr)
}

func (s *RedisSnapshotStore) Clear(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	metrics.SnapshotVideos.Set(0)
	return nil
}

func decodeSnapshot(raw []byte) (*model.PageResult, error) {
	var snap model.PageResult
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
