package redisclient

import (
	"context"
	"testing"
	"time"

	"cafeteria-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveScriptEmbedded(t *testing.T) {
	assert.Contains(t, saveSnapshotScript, "INCR")
	assert.Contains(t, saveSnapshotScript, "SET")
}

func TestDefaultSnapshotKey(t *testing.T) {
	c := newClient(nil, "")
	assert.Equal(t, "cafeteria:snapshot", c.snapshotKey)
	assert.Equal(t, "cafeteria:snapshot:version", c.versionKey())
	assert.Equal(t, "redis", c.Backend())
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Skip("Integration test - requires redis")

	c, err := NewClient("localhost:6379", "", 15, "cafeteria:test:snapshot")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.rdb.Del(ctx, c.snapshotKey, c.versionKey()).Err())

	_, err = c.Load(ctx)
	assert.ErrorIs(t, err, models.ErrNoSnapshot)

	require.NoError(t, c.Save(ctx, []byte(`{"version":1}`)))
	require.NoError(t, c.Save(ctx, []byte(`{"version":1,"n":2}`)))

	blob, err := c.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"n":2}`, string(blob))

	v, err := c.SnapshotVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestIdempotencyKeys(t *testing.T) {
	t.Skip("Integration test - requires redis")

	c, err := NewClient("localhost:6379", "", 15, "")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	key := "test-" + time.Now().Format(time.RFC3339Nano)

	ok, err := c.ReserveIdempotencyKey(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ReserveIdempotencyKey(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, pending, err := c.GetIdempotentResponse(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, pending)

	require.NoError(t, c.StoreIdempotentResponse(ctx, key, []byte(`{"number":1}`), time.Minute))
	body, found, pending, err := c.GetIdempotentResponse(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, pending)
	assert.JSONEq(t, `{"number":1}`, string(body))
}
