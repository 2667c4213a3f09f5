package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/class-fee-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "progress:a", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "progress:a", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "progress:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "class-fee:progress:stu-1:*", NewCacheRepository(nil, "class-fee:", nil).key("progress:stu-1:*"))
	assert.Equal(t, "progress:stu-1", NewCacheRepository(nil, "", nil).key("progress:stu-1"))
}

func TestIdempotencyRepositoryWithoutClient(t *testing.T) {
	repo := NewIdempotencyRepository(nil)
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	record, err := repo.Load(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, repo.Complete(ctx, "key-1", map[string]int{"n": 1}, time.Minute))
	assert.NoError(t, repo.Release(ctx, "key-1"))
}
