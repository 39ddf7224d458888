package tokenstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string `yaml:"addr,omitempty" koanf:"addr"`
	Password string `yaml:"-" koanf:"password"`
	DB       int    `yaml:"db,omitempty" koanf:"db"`
	// Prefix namespaces the key, so several installations can share a
	// server. The token lives at Prefix + TokenKey.
	Prefix string `yaml:"prefix,omitempty" koanf:"prefix"`
}

// RedisStore keeps the token in a single Redis string key. SET, GET and
// DEL are atomic, so no extra locking is needed.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, storageErr("open", backendRedis, errors.New("addr is required"))
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storageErr("open", backendRedis, err)
	}
	return NewRedisStoreWithClient(client, opts.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + TokenKey}
}

// Key returns the Redis key holding the token.
func (r *RedisStore) Key() string { return r.key }

func (r *RedisStore) Save(ctx context.Context, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	return storageErr("save", backendRedis, r.client.Set(ctx, r.key, token, 0).Err())
}

func (r *RedisStore) Load(ctx context.Context) (string, bool, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("load", backendRedis, err)
	}
	return token, token != "", nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return storageErr("clear", backendRedis, r.client.Del(ctx, r.key).Err())
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
