package redisclient

import (
	"context"
	"errors"
	"fmt"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) versionKey() string {
	return c.snapshotKey + ":version"
}

// Backend names this store in metrics and logs
func (c *Client) Backend() string {
	return "redis"
}

// Save stores the snapshot and bumps its version in one script call
func (c *Client) Save(ctx context.Context, snapshot []byte) (err error) {
	ctx, span := util.StartSpan(ctx, "Redis.SaveSnapshot", attribute.Int("size_bytes", len(snapshot)))
	defer func() { util.EndSpan(span, err) }()

	_, err = c.saveScript.Run(ctx, c.rdb, []string{c.snapshotKey, c.versionKey()}, snapshot).Int64()
	if err != nil {
		return fmt.Errorf("save snapshot script failed: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or models.ErrNoSnapshot if the key is absent
func (c *Client) Load(ctx context.Context) (snapshot []byte, err error) {
	ctx, span := util.StartSpan(ctx, "Redis.LoadSnapshot")
	defer func() { util.EndSpan(span, err) }()

	snapshot, err = c.rdb.Get(ctx, c.snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snapshot, nil
}

// SnapshotVersion returns how many times the snapshot has been saved
func (c *Client) SnapshotVersion(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
