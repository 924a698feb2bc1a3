package kvstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "studynotes:" + "lessons".
	Prefix string
}

type redisBackend struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisBackend(cfg RedisConfig) (Backend, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "studynotes:"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisBackend{rdb: rdb, prefix: prefix}, nil
}

func (b *redisBackend) Read(ctx context.Context, key string) ([]byte, Version, error) {
	vals, err := b.rdb.HMGet(ctx, b.prefix+key, "value", "version").Result()
	if err != nil {
		return nil, NoVersion, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, Absent, nil
	}
	ver, _ := vals[1].(string)
	n, err := strconv.ParseInt(ver, 10, 64)
	if err != nil {
		return nil, NoVersion, fmt.Errorf("bad version %q for %s: %w", ver, key, err)
	}
	return []byte(raw), Version(n), nil
}

// casScript writes the value hash only when its version field matches ARGV[2]
// (negative means any). It returns the new version or -1 on conflict.
var casScript = goredis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'version') or '0')
local expect = tonumber(ARGV[2])
if expect >= 0 and cur ~= expect then
  return -1
end
cur = cur + 1
redis.call('HSET', KEYS[1], 'value', ARGV[1], 'version', cur)
return cur
`)

func (b *redisBackend) Write(ctx context.Context, key string, value []byte, expect Version) (Version, error) {
	n, err := casScript.Run(ctx, b.rdb, []string{b.prefix + key}, value, int64(expect)).Int64()
	if err != nil {
		return NoVersion, err
	}
	if n < 0 {
		return NoVersion, ErrVersionConflict
	}
	return Version(n), nil
}

func (b *redisBackend) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
