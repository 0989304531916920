package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := New(addr)
	defer rdb.Close()
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	kv := KV{RDB: rdb}
	key := "test:kv:" + uuid.NewString()
	defer kv.Del(ctx, key)

	_, found, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := kv.SetNX(ctx, key, IdemPending, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = kv.SetNX(ctx, key, "again", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, key, "42", time.Minute))
	v, found, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "42", v)

	exists, err := Exists(ctx, rdb, key)
	require.NoError(t, err)
	assert.True(t, exists)
}
