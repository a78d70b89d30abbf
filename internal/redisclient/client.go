package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client stores the console session token and the sync lock in Redis
type Client struct {
	rdb      *redis.Client
	tokenKey string
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int, tokenKey string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb, tokenKey), nil
}

// NewFromRedis wraps an existing Redis client
func NewFromRedis(rdb *redis.Client, tokenKey string) *Client {
	if tokenKey == "" {
		tokenKey = "admin_token"
	}
	return &Client{rdb: rdb, tokenKey: tokenKey}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Token returns the stored session token, or "" when none is set
func (c *Client) Token(ctx context.Context) (string, error) {
	token, err := c.rdb.Get(ctx, c.tokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// SetToken stores the session token without expiry
func (c *Client) SetToken(ctx context.Context, token string) error {
	if err := c.rdb.Set(ctx, c.tokenKey, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// SeedToken stores token only when no session token is present yet.
// It reports whether the token was written.
func (c *Client) SeedToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := c.rdb.SetNX(ctx, c.tokenKey, token, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to seed token: %w", err)
	}
	return ok, nil
}

// ClearToken removes the session token
func (c *Client) ClearToken(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.tokenKey).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
