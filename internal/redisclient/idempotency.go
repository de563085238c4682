package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const pendingMarker = "pending"

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

// ReserveIdempotencyKey claims key for one request.
// It returns false when another request already holds or completed it.
func (c *Client) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, idempotencyKey(key), pendingMarker, ttl).Result()
}

// StoreIdempotentResponse replaces the reservation with the response body
func (c *Client) StoreIdempotentResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyKey(key), body, ttl).Err()
}

// GetIdempotentResponse returns the stored response for key.
// found is false when the key is unknown; pending is true while the first request is still running.
func (c *Client) GetIdempotentResponse(ctx context.Context, key string) (body []byte, found, pending bool, err error) {
	body, err = c.rdb.Get(ctx, idempotencyKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, err
	}
	if string(body) == pendingMarker {
		return nil, true, true, nil
	}
	return body, true, false, nil
}

// ReleaseIdempotencyKey drops a reservation whose request failed so it can be retried
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, idempotencyKey(key)).Err()
}
