package iocache

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/huangsam/discomfort/internal/contract"
	"github.com/huangsam/discomfort/schema"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis hash layout and limits.
const (
	redisEntryTTL   = 7 * 24 * time.Hour
	redisOpTimeout  = 5 * time.Second
	redisScanCount  = 500
	redisFieldValue = "value"
	redisFieldVer   = "version"
	redisFieldTS    = "ts"
)

// RedisCacheStore keeps scored networks as Redis hashes under a key prefix.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to the Redis server at a redis:// URL.
func NewRedisCacheStore(prefix, connStr string) (*RedisCacheStore, error) {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis connection string: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	zap.L().Debug("redis cache connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))

	return &RedisCacheStore{client: client, prefix: prefix}, nil
}

func (rs *RedisCacheStore) key(k string) string {
	return rs.prefix + ":" + k
}

// Get retrieves a value by key from the store.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("cache get error: %w", err)
	}
	if len(fields) == 0 {
		return nil, 0, 0, sql.ErrNoRows
	}
	version, err := strconv.Atoi(fields[redisFieldVer])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache version for %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields[redisFieldTS], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache timestamp for %s: %w", key, err)
	}
	return []byte(fields[redisFieldValue]), version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	k := rs.key(key)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, redisFieldValue, value, redisFieldVer, version, redisFieldTS, timestamp)
		pipe.Expire(ctx, k, redisEntryTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// scanKeys visits every key under the store prefix.
func (rs *RedisCacheStore) scanKeys(ctx context.Context, visit func(string) error) error {
	iter := rs.client.Scan(ctx, 0, rs.prefix+":*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		if err := visit(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Clear removes every key under the store prefix.
func (rs *RedisCacheStore) Clear() error {
	ctx := context.Background()
	err := rs.scanKeys(ctx, func(k string) error {
		return rs.client.Del(ctx, k).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to clear redis cache: %w", err)
	}
	return nil
}

// GetStatus returns status information about the cache store.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: true}
	ctx := context.Background()

	var lastTs, oldestTs int64
	err := rs.scanKeys(ctx, func(k string) error {
		ts, err := rs.client.HGet(ctx, k, redisFieldTS).Int64()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		status.TotalEntries++
		if ts > lastTs {
			lastTs = ts
		}
		if oldestTs == 0 || ts < oldestTs {
			oldestTs = ts
		}
		if size, err := rs.client.MemoryUsage(ctx, k).Result(); err == nil {
			status.TableSizeBytes += size
		}
		return nil
	})
	if err != nil {
		return status, fmt.Errorf("failed to scan redis cache: %w", err)
	}
	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(lastTs, 0)
		status.OldestEntryTime = time.Unix(oldestTs, 0)
	}
	return status, nil
}

// Close closes the Redis client.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}
