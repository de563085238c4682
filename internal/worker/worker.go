package worker

import (
	"context"
	"fmt"

	"cafeteria-service/internal/broker"
	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"go.uber.org/zap"
)

// AuditRecorder persists audit rows; a repeated event id must be a no-op
type AuditRecorder interface {
	InsertAudit(ctx context.Context, entry models.AuditEntry) (bool, error)
}

// AuditWorker turns order lifecycle events into audit rows
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	recorder     AuditRecorder
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, recorder AuditRecorder) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		recorder: recorder,
		logger:   util.Named("audit-worker"),
	}

	w.eventHandler = broker.NewEventHandler()
	w.eventHandler.OnOrderAdvanced(w.HandleOrderAdvanced)
	w.eventHandler.OnOrderDeleted(w.HandleOrderDeleted)
	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}

// HandleOrderAdvanced records who moved an order and between which statuses
func (w *AuditWorker) HandleOrderAdvanced(ctx context.Context, event *models.OrderAdvancedEvent) error {
	return w.record(ctx, models.AuditEntry{
		EventID:     event.EventID,
		EventType:   event.EventType,
		OrderNumber: event.OrderNumber,
		FromStatus:  string(event.From),
		ToStatus:    string(event.To),
		Actor:       event.Actor,
	})
}

// HandleOrderDeleted records the removal of an order and the status it had
func (w *AuditWorker) HandleOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return w.record(ctx, models.AuditEntry{
		EventID:     event.EventID,
		EventType:   event.EventType,
		OrderNumber: event.OrderNumber,
		FromStatus:  string(event.Status),
	})
}

func (w *AuditWorker) record(ctx context.Context, entry models.AuditEntry) error {
	if entry.EventID == "" {
		return fmt.Errorf("audit event for order %d has no event id", entry.OrderNumber)
	}

	inserted, err := w.recorder.InsertAudit(ctx, entry)
	if err != nil {
		return err
	}
	if !inserted {
		w.logger.Info("Event already audited, skipping", zap.String("event_id", entry.EventID))
		return nil
	}

	w.logger.Info("Order audit recorded",
		zap.String("event_type", entry.EventType),
		zap.Int64("order_number", entry.OrderNumber))
	return nil
}
