package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	companionsdk "github.com/attuneai/companion-sdk-go"
)

// RedisKVStore implements companionsdk.KVStore using Redis.
// Keys are namespaced as "{prefix}:{namespace}:{key}" for KV
// and "{prefix}:{namespace}:list:{key}" for lists.
type RedisKVStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	ctx    context.Context
}

// RedisStoreConfig configures the Redis store.
type RedisStoreConfig struct {
	Prefix string        // key prefix, default "companion"
	TTL    time.Duration // default TTL for KV entries, 0 = no expiry
}

// NewRedisKVStore creates a KVStore backed by Redis. Works with Client,
// ClusterClient and Ring.
func NewRedisKVStore(client redis.UniversalClient, config ...RedisStoreConfig) *RedisKVStore {
	cfg := RedisStoreConfig{Prefix: "companion"}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "companion"
	}
	return &RedisKVStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		ctx:    context.Background(),
	}
}

func (r *RedisKVStore) kvKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, namespace, key)
}

func (r *RedisKVStore) listKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:list:%s", r.prefix, namespace, key)
}

func (r *RedisKVStore) Get(namespace, key string) (string, error) {
	val, err := r.client.Get(r.ctx, r.kvKey(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(namespace, key, value string) error {
	return r.client.Set(r.ctx, r.kvKey(namespace, key), value, r.ttl).Err()
}

func (r *RedisKVStore) Delete(namespace, key string) error {
	return r.client.Del(r.ctx, r.kvKey(namespace, key)).Err()
}

func (r *RedisKVStore) Append(namespace, key, value string) error {
	return r.client.RPush(r.ctx, r.listKey(namespace, key), value).Err()
}

func (r *RedisKVStore) GetList(namespace, key string, limit, offset int) ([]string, error) {
	start := int64(offset)
	stop := int64(-1)
	if limit > 0 {
		stop = start + int64(limit) - 1
	}
	return r.client.LRange(r.ctx, r.listKey(namespace, key), start, stop).Result()
}

func (r *RedisKVStore) TrimList(namespace, key string, maxSize int) error {
	return r.client.LTrim(r.ctx, r.listKey(namespace, key), int64(-maxSize), -1).Err()
}

func (r *RedisKVStore) ClearList(namespace, key string) error {
	return r.client.Del(r.ctx, r.listKey(namespace, key)).Err()
}

func (r *RedisKVStore) ListLength(namespace, key string) (int, error) {
	n, err := r.client.LLen(r.ctx, r.listKey(namespace, key)).Result()
	return int(n), err
}

// Close releases the underlying client.
func (r *RedisKVStore) Close() error {
	return r.client.Close()
}

// Compile-time interface check.
var _ companionsdk.KVStore = (*RedisKVStore)(nil)
