package redis

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_chat_server/internal/config"
	"market_chat_server/pkg/errorx"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, 4)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestRedisCacheStringAndKeys(t *testing.T) {
	ctx := context.Background()
	rc, mr := newTestCache(t)

	v, err := rc.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, rc.Set(ctx, "chat_list_1", "[]", time.Minute))
	require.NoError(t, rc.Set(ctx, "chat_list_2", "[]", time.Minute))
	v, err = rc.Get(ctx, "chat_list_1")
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	mr.FastForward(2 * time.Minute)
	v, err = rc.Get(ctx, "chat_list_1")
	require.NoError(t, err)
	assert.Empty(t, v, "expired")

	require.NoError(t, rc.Set(ctx, "chat_list_1", "[]", time.Minute))
	require.NoError(t, rc.Delete(ctx, "chat_list_1", "chat_list_2", "never_set"))
	assert.False(t, mr.Exists("chat_list_1"))
	require.NoError(t, rc.Delete(ctx))

	n, err := rc.Incr(ctx, "chat_list_ver_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = rc.Incr(ctx, "chat_list_ver_1")
	assert.Equal(t, int64(2), n)
	v, err = rc.Get(ctx, "chat_list_ver_1")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestRedisCacheSets(t *testing.T) {
	ctx := context.Background()
	rc, _ := newTestCache(t)

	n, err := rc.SetSize(ctx, "online_user_1")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, rc.AddToSet(ctx, "online_user_1", "conn-a", "conn-b"))
	n, err = rc.SetSize(ctx, "online_user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, rc.RemoveFromSet(ctx, "online_user_1", "conn-a"))
	n, _ = rc.SetSize(ctx, "online_user_1")
	assert.Equal(t, int64(1), n)
}

func TestRedisCacheErrorsAreCacheErrors(t *testing.T) {
	rc, mr := newTestCache(t)
	mr.Close()
	err := rc.Set(context.Background(), "k", "v", time.Second)
	require.Error(t, err)
	assert.Equal(t, errorx.CodeCacheError, errorx.GetCode(err))
}

func TestSubmitTaskRunsAndSurvivesPanic(t *testing.T) {
	rc, _ := newTestCache(t)
	var ran atomic.Int32
	rc.SubmitTask(func() { panic("boom") })
	for i := 0; i < 20; i++ {
		rc.SubmitTask(func() { ran.Add(1) })
	}
	require.Eventually(t, func() bool { return ran.Load() == 20 }, 3*time.Second, 10*time.Millisecond)
}

func TestInitWithoutHostDisablesCache(t *testing.T) {
	rc, err := Init(context.Background(), &config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, rc)
}

func TestInitUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host := mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()
	_, err = Init(context.Background(), &config.RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}
