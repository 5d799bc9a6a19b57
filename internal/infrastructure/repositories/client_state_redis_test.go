package repositories

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/pkg/redis"
)

func TestRedisClientStateRepository(t *testing.T) {
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redis.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })

	store, err := redis.NewStateStore("", 0)
	require.NoError(t, err)
	repo := NewRedisClientStateRepository(store)
	ctx := context.Background()

	_, err = repo.Get(ctx, "device", "certificate_search_history")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "device", "certificate_search_history", []byte(`["abc"]`)))
	require.True(t, srv.Exists(redis.StateKey("device", "certificate_search_history")))

	got, err := repo.Get(ctx, "device", "certificate_search_history")
	require.NoError(t, err)
	require.JSONEq(t, `["abc"]`, string(got))

	require.NoError(t, repo.Delete(ctx, "device", "certificate_search_history"))
	_, err = repo.Get(ctx, "device", "certificate_search_history")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
