package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ══════════════════════════════════════════════
// RedisKVStore tests (miniredis backed)
// ══════════════════════════════════════════════

func newTestRedisStore(t *testing.T, config ...RedisStoreConfig) (*RedisKVStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisKVStore(client, config...), mr
}

func TestRedisKVStore_SetGetDelete(t *testing.T) {
	s, _ := newTestRedisStore(t)

	require.NoError(t, s.Set("ns", "k", "v1"))
	val, err := s.Get("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	require.NoError(t, s.Set("ns", "k", "v2"))
	val, _ = s.Get("ns", "k")
	assert.Equal(t, "v2", val)

	require.NoError(t, s.Delete("ns", "k"))
	val, err = s.Get("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "", val, "missing key reads as empty string, not error")
}

func TestRedisKVStore_NamespaceIsolation(t *testing.T) {
	s, _ := newTestRedisStore(t)

	require.NoError(t, s.Set("ns1", "k", "a"))
	require.NoError(t, s.Set("ns2", "k", "b"))

	v1, _ := s.Get("ns1", "k")
	v2, _ := s.Get("ns2", "k")
	assert.Equal(t, "a", v1)
	assert.Equal(t, "b", v2)
}

func TestRedisKVStore_ListOps(t *testing.T) {
	s, _ := newTestRedisStore(t)

	for _, v := range []string{"one", "two", "three"} {
		require.NoError(t, s.Append("ns", "items", v))
	}

	n, err := s.ListLength("ns", "items")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.GetList("ns", "items", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, all)

	page, err := s.GetList("ns", "items", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three"}, page)
}

func TestRedisKVStore_TrimKeepsNewest(t *testing.T) {
	s, _ := newTestRedisStore(t)

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Append("ns", "items", v))
	}
	require.NoError(t, s.TrimList("ns", "items", 2))

	all, err := s.GetList("ns", "items", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, all)
}

func TestRedisKVStore_ClearList(t *testing.T) {
	s, _ := newTestRedisStore(t)

	require.NoError(t, s.Append("ns", "items", "x"))
	require.NoError(t, s.ClearList("ns", "items"))

	n, err := s.ListLength("ns", "items")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisKVStore_TTL(t *testing.T) {
	s, mr := newTestRedisStore(t, RedisStoreConfig{TTL: time.Minute})

	require.NoError(t, s.Set("ns", "k", "v"))
	mr.FastForward(2 * time.Minute)

	val, err := s.Get("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "", val, "expired key reads as empty")
}
