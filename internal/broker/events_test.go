package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newTestPublisher() (*EventPublisher, *fakeWriter) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: util.GetLogger()}
	return &EventPublisher{producer: p}, w
}

func TestPublishKeysByOrder(t *testing.T) {
	pub, w := newTestPublisher()
	ctx := context.Background()

	require.NoError(t, pub.PublishOrderCreated(ctx, &models.OrderCreatedEvent{
		BaseEvent:   models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderCreated},
		OrderNumber: 12,
		Total:       "7.5",
	}))
	require.NoError(t, pub.PublishOrderAdvanced(ctx, &models.OrderAdvancedEvent{
		BaseEvent:   models.BaseEvent{EventID: "e2", EventType: models.EventTypeOrderAdvanced},
		OrderNumber: 12,
	}))
	require.NoError(t, pub.PublishStockAdjusted(ctx, &models.StockAdjustedEvent{
		BaseEvent:   models.BaseEvent{EventID: "e3", EventType: models.EventTypeStockAdjusted},
		ProductCode: "B001",
	}))

	require.Len(t, w.messages, 3)
	assert.Equal(t, "order-12", string(w.messages[0].Key))
	assert.Equal(t, "order-12", string(w.messages[1].Key))
	assert.Equal(t, "product-B001", string(w.messages[2].Key))

	var decoded models.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, "7.5", decoded.Total)
	assert.Equal(t, models.EventTypeOrderCreated, decoded.EventType)
}

func TestPublishWriteFailure(t *testing.T) {
	pub, w := newTestPublisher()
	w.err = errors.New("leader not available")

	err := pub.PublishOrderDeleted(context.Background(), &models.OrderDeletedEvent{OrderNumber: 1})
	assert.ErrorContains(t, err, "leader not available")
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestEventHandlerRouting(t *testing.T) {
	h := NewEventHandler()

	var advanced *models.OrderAdvancedEvent
	var deleted *models.OrderDeletedEvent
	h.OnOrderAdvanced(func(_ context.Context, e *models.OrderAdvancedEvent) error {
		advanced = e
		return nil
	})
	h.OnOrderDeleted(func(_ context.Context, e *models.OrderDeletedEvent) error {
		deleted = e
		return nil
	})

	ctx := context.Background()
	require.NoError(t, h.HandleMessage(ctx, message(t, &models.OrderAdvancedEvent{
		BaseEvent:   models.BaseEvent{EventID: "a1", EventType: models.EventTypeOrderAdvanced, Timestamp: time.Now()},
		OrderNumber: 3,
		From:        models.StatusNew,
		To:          models.StatusInPreparation,
		Actor:       "amanda",
	})))
	require.NoError(t, h.HandleMessage(ctx, message(t, &models.OrderDeletedEvent{
		BaseEvent:   models.BaseEvent{EventID: "d1", EventType: models.EventTypeOrderDeleted},
		OrderNumber: 4,
	})))
	require.NoError(t, h.HandleMessage(ctx, message(t, &models.StockAdjustedEvent{
		BaseEvent: models.BaseEvent{EventID: "s1", EventType: models.EventTypeStockAdjusted},
	})))

	require.NotNil(t, advanced)
	assert.Equal(t, "amanda", advanced.Actor)
	assert.Equal(t, models.StatusInPreparation, advanced.To)
	require.NotNil(t, deleted)
	assert.Equal(t, int64(4), deleted.OrderNumber)

	assert.Error(t, h.HandleMessage(ctx, kafka.Message{Value: []byte("not json")}))
}
