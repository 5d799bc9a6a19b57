package repositories

import (
	"context"
	"errors"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/pkg/redis"
)

// StateStore is the Redis document store used for client state
type StateStore interface {
	Put(ctx context.Context, namespace, key string, value []byte) error
	Fetch(ctx context.Context, namespace, key string) ([]byte, error)
	Remove(ctx context.Context, namespace, key string) error
}

type redisClientStateRepo struct {
	store StateStore
}

// NewRedisClientStateRepository adapts a Redis state store
func NewRedisClientStateRepository(store StateStore) repositories.ClientStateRepository {
	return &redisClientStateRepo{store: store}
}

func (r *redisClientStateRepo) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	value, err := r.store.Fetch(ctx, namespace, key)
	if errors.Is(err, redis.ErrStateNotFound) {
		return nil, domainerrors.ErrNotFound
	}
	return value, err
}

func (r *redisClientStateRepo) Set(ctx context.Context, namespace, key string, value []byte) error {
	return r.store.Put(ctx, namespace, key, value)
}

func (r *redisClientStateRepo) Delete(ctx context.Context, namespace, key string) error {
	return r.store.Remove(ctx, namespace, key)
}
