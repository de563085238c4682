package service

import (
	"context"
	"time"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher receives engine events once the engine lock is released.
// A nil publisher disables events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderLineChanged(ctx context.Context, event *models.OrderLineEvent) error
	PublishOrderAdvanced(ctx context.Context, event *models.OrderAdvancedEvent) error
	PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error
	PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error
}

type pendingEvent struct {
	eventType string
	send      func(ctx context.Context, p EventPublisher) error
}

func newBaseEvent(eventType string, at time.Time) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: at,
	}
}

func orderCreated(o models.Order, at time.Time) pendingEvent {
	lines := make([]models.LineData, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, models.LineDataOf(l))
	}
	event := &models.OrderCreatedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderCreated, at),
		OrderNumber: o.Number,
		CustomerID:  o.CustomerID,
		Total:       o.Total.String(),
		Lines:       lines,
	}
	return pendingEvent{
		eventType: event.EventType,
		send: func(ctx context.Context, p EventPublisher) error {
			return p.PublishOrderCreated(ctx, event)
		},
	}
}

func orderLineChanged(eventType string, o models.Order, l models.LineItem, at time.Time) pendingEvent {
	event := &models.OrderLineEvent{
		BaseEvent:   newBaseEvent(eventType, at),
		OrderNumber: o.Number,
		Line:        models.LineDataOf(l),
		Total:       o.Total.String(),
	}
	return pendingEvent{
		eventType: eventType,
		send: func(ctx context.Context, p EventPublisher) error {
			return p.PublishOrderLineChanged(ctx, event)
		},
	}
}

func orderAdvanced(number int64, change models.StatusChange) pendingEvent {
	event := &models.OrderAdvancedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderAdvanced, change.At),
		OrderNumber: number,
		From:        change.From,
		To:          change.To,
		Actor:       change.Actor,
	}
	return pendingEvent{
		eventType: event.EventType,
		send: func(ctx context.Context, p EventPublisher) error {
			return p.PublishOrderAdvanced(ctx, event)
		},
	}
}

func orderDeleted(o models.Order, at time.Time) pendingEvent {
	event := &models.OrderDeletedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderDeleted, at),
		OrderNumber: o.Number,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
	}
	return pendingEvent{
		eventType: event.EventType,
		send: func(ctx context.Context, p EventPublisher) error {
			return p.PublishOrderDeleted(ctx, event)
		},
	}
}

func stockAdjusted(code string, delta, stock int, clamped bool, at time.Time) pendingEvent {
	event := &models.StockAdjustedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeStockAdjusted, at),
		ProductCode: code,
		Delta:       delta,
		Stock:       stock,
		Clamped:     clamped,
	}
	return pendingEvent{
		eventType: event.EventType,
		send: func(ctx context.Context, p EventPublisher) error {
			return p.PublishStockAdjusted(ctx, event)
		},
	}
}

// publish sends pending events; failures are logged and counted but never fail the operation
func (e *OrderEngine) publish(ctx context.Context, pending []pendingEvent) {
	if e.events == nil {
		return
	}
	for _, ev := range pending {
		if err := ev.send(ctx, e.events); err != nil {
			util.EventsPublishFailures.WithLabelValues(ev.eventType).Inc()
			e.logger.Error("Failed to publish event",
				zap.String("event_type", ev.eventType),
				zap.Error(err))
		}
	}
}
