package repositories

import (
	"context"
	"sync"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
)

// memoryClientStateRepo keeps client state for the life of the process
type memoryClientStateRepo struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryClientStateRepository creates an in-process client state repository
func NewMemoryClientStateRepository() repositories.ClientStateRepository {
	return &memoryClientStateRepo{items: make(map[string][]byte)}
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (r *memoryClientStateRepo) Get(_ context.Context, namespace, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.items[memoryKey(namespace, key)]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (r *memoryClientStateRepo) Set(_ context.Context, namespace, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[memoryKey(namespace, key)] = append([]byte(nil), value...)
	return nil
}

func (r *memoryClientStateRepo) Delete(_ context.Context, namespace, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, memoryKey(namespace, key))
	return nil
}
