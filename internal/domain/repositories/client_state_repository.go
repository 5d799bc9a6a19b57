package repositories

import (
	"context"
)

// ClientStateRepository persists small JSON documents per namespace and key.
// Get returns domain errors.ErrNotFound when nothing is stored.
type ClientStateRepository interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}
