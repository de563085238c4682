package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type eventSink interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer eventSink
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderKey(number int64) string {
	return fmt.Sprintf("order-%d", number)
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderNumber), event)
}

// PublishOrderLineChanged publishes OrderLineAdded and OrderLineRemoved events
func (ep *EventPublisher) PublishOrderLineChanged(ctx context.Context, event *models.OrderLineEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderNumber), event)
}

// PublishOrderAdvanced publishes OrderAdvanced event
func (ep *EventPublisher) PublishOrderAdvanced(ctx context.Context, event *models.OrderAdvancedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderNumber), event)
}

// PublishOrderDeleted publishes OrderDeleted event
func (ep *EventPublisher) PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderNumber), event)
}

// PublishStockAdjusted publishes StockAdjusted event, keyed by product
func (ep *EventPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	return ep.producer.PublishEvent(ctx, "product-"+event.ProductCode, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderAdvanced func(context.Context, *models.OrderAdvancedEvent) error
	onOrderDeleted  func(context.Context, *models.OrderDeletedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("events")}
}

// OnOrderAdvanced registers a handler for OrderAdvanced events
func (eh *EventHandler) OnOrderAdvanced(handler func(context.Context, *models.OrderAdvancedEvent) error) {
	eh.onOrderAdvanced = handler
}

// OnOrderDeleted registers a handler for OrderDeleted events
func (eh *EventHandler) OnOrderDeleted(handler func(context.Context, *models.OrderDeletedEvent) error) {
	eh.onOrderDeleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderAdvanced:
		if eh.onOrderAdvanced != nil {
			var event models.OrderAdvancedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderAdvanced event: %w", err)
			}
			return eh.onOrderAdvanced(ctx, &event)
		}

	case models.EventTypeOrderDeleted:
		if eh.onOrderDeleted != nil {
			var event models.OrderDeletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderDeleted event: %w", err)
			}
			return eh.onOrderDeleted(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
