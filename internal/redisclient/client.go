package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	lockPrefix      = "lock:"
	processedPrefix = "processed:"
)

// ErrLockNotHeld is returned when a release finds the lock expired or taken
// over by another holder
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the lock only if it still carries the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client wraps Redis for short-lived order locks and event deduplication
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Ping checks that Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireLock acquires a distributed lock that expires after ttl. The
// returned token must be passed to ReleaseLock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockPrefix+lockKey, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock releases the lock if token still holds it. A lock that expired
// and was re-acquired by someone else is left alone and ErrLockNotHeld is
// returned.
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	deleted, err := releaseScript.Run(ctx, c.rdb, []string{lockPrefix + lockKey}, token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", lockKey, err)
	}
	if deleted == 0 {
		return fmt.Errorf("release lock %s: %w", lockKey, ErrLockNotHeld)
	}
	return nil
}

// MarkProcessed records an event id and reports whether this is the first
// time it was seen. The marker expires after ttl.
func (c *Client) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	first, err := c.rdb.SetNX(ctx, processedPrefix+eventID, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return first, nil
}
