package iocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
)

// defaultRedisAddr is used when no connection string is configured.
const defaultRedisAddr = "localhost:6379"

// redisEntryTTL bounds how long Redis keeps an entry. Readers apply their own staleness check.
const redisEntryTTL = 8 * 24 * time.Hour

// RedisCacheStore keeps each cache entry in a hash under <prefix>:<key>.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to Redis. connStr is a redis:// URL or a host:port address.
func NewRedisCacheStore(prefix, connStr string) (*RedisCacheStore, error) {
	opts, err := redisOptions(connStr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return newRedisCacheStoreWithClient(prefix, client), nil
}

func newRedisCacheStoreWithClient(prefix string, client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client, prefix: prefix}
}

// redisOptions parses a redis:// or rediss:// URL, or treats connStr as an address.
func redisOptions(connStr string) (*redis.Options, error) {
	switch {
	case connStr == "":
		return &redis.Options{Addr: defaultRedisAddr}, nil
	case strings.HasPrefix(connStr, "redis://"), strings.HasPrefix(connStr, "rediss://"):
		opts, err := redis.ParseURL(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return opts, nil
	default:
		return &redis.Options{Addr: connStr}, nil
	}
}

func (rs *RedisCacheStore) key(k string) string {
	return rs.prefix + ":" + k
}

// Get implements the CacheStore interface.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	fields, err := rs.client.HGetAll(context.Background(), rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, redis.Nil
	}
	version, err := strconv.Atoi(fields["version"])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return []byte(fields["value"]), version, ts, nil
}

// Set implements the CacheStore interface.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx := context.Background()
	k := rs.key(key)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, "value", value, "version", version, "ts", timestamp)
		pipe.Expire(ctx, k, redisEntryTTL)
		return nil
	})
	return err
}

// keys lists every key under the store prefix.
func (rs *RedisCacheStore) keys(ctx context.Context) ([]string, error) {
	var (
		all    []string
		cursor uint64
	)
	for {
		batch, next, err := rs.client.Scan(ctx, cursor, rs.prefix+":*", 100).Result()
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if next == 0 {
			return all, nil
		}
		cursor = next
	}
}

// Clear implements the CacheStore interface.
func (rs *RedisCacheStore) Clear() error {
	ctx := context.Background()
	keys, err := rs.keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return rs.client.Del(ctx, keys...).Err()
}

// GetStatus implements the CacheStore interface.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	ctx := context.Background()
	status := schema.CacheStatus{Backend: string(schema.RedisBackend)}
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return status, nil
	}
	status.Connected = true

	keys, err := rs.keys(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to list cache keys: %w", err)
	}
	status.TotalEntries = len(keys)
	for _, k := range keys {
		raw, err := rs.client.HGet(ctx, k, "ts").Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return status, err
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		t := time.Unix(ts, 0)
		if t.After(status.LastEntryTime) {
			status.LastEntryTime = t
		}
		if status.OldestEntryTime.IsZero() || t.Before(status.OldestEntryTime) {
			status.OldestEntryTime = t
		}
		if size, err := rs.client.MemoryUsage(ctx, k).Result(); err == nil {
			status.TableSizeBytes += size
		} else {
			status.TableSizeBytes += 1000 // Rough estimate
		}
	}
	return status, nil
}

// Close implements the CacheStore interface.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}
