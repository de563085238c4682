package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/save_snapshot.lua
var saveSnapshotScript string

type Client struct {
	rdb         *redis.Client
	saveScript  *redis.Script
	snapshotKey string
}

// NewClient creates a new Redis client with Lua scripts loaded.
// snapshotKey names the key holding the engine snapshot.
func NewClient(addr, password string, db int, snapshotKey string) (*Client, error) {
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

	return newClient(rdb, snapshotKey), nil
}

func newClient(rdb *redis.Client, snapshotKey string) *Client {
	if snapshotKey == "" {
		snapshotKey = "cafeteria:snapshot"
	}
	return &Client{
		rdb:         rdb,
		saveScript:  redis.NewScript(saveSnapshotScript),
		snapshotKey: snapshotKey,
	}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
