package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	domain "github.com/AnjanaKvd/ZeroX-sub001/internal/entity"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/usecase"
)

// RedisCartStore keeps the item lines of each cart as one JSON value, the
// same shape the file store writes. Zero TTL: carts survive until cleared.
type RedisCartStore struct {
	rdb *redis.Client
}

func NewRedisCartStore(rdb *redis.Client) *RedisCartStore {
	return &RedisCartStore{rdb: rdb}
}

func cartKey(userID string) string { return "cart:items:" + userID }

func (s *RedisCartStore) Load(ctx context.Context, userID string) ([]domain.CartItem, error) {
	raw, err := s.rdb.Get(ctx, cartKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("stored cart for %s: %w", userID, err)
	}
	return items, nil
}

func (s *RedisCartStore) Save(ctx context.Context, userID string, items []domain.CartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, userID)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(userID), raw, 0).Err()
}

func (s *RedisCartStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}

var _ usecase.CartStorage = (*RedisCartStore)(nil)
