package store

import (
	"context"
	"fmt"

	"cafeteria-service/internal/models"
)

// InsertAudit records one audit row. A row with the same event id is left as is,
// and inserted reports whether this call wrote it.
func (s *Store) InsertAudit(ctx context.Context, entry models.AuditEntry) (inserted bool, err error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO order_audit (event_id, event_type, order_number, from_status, to_status, actor)
		VALUES (:event_id, :event_type, :order_number, :from_status, :to_status, :actor)
		ON CONFLICT (event_id) DO NOTHING`, entry)
	if err != nil {
		return false, fmt.Errorf("failed to insert audit entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AuditTrail returns the audit rows of one order, oldest first
func (s *Store) AuditTrail(ctx context.Context, orderNumber int64) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT event_id, event_type, order_number, from_status, to_status, actor
		FROM order_audit WHERE order_number = $1 ORDER BY recorded_at, event_id`, orderNumber)
	return entries, err
}
