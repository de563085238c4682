package api

import (
	"context"
	"time"

	"cafeteria-service/internal/models"
)

// IdempotencyStore keeps responses of order creations keyed by Idempotency-Key
type IdempotencyStore interface {
	ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	StoreIdempotentResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error
	GetIdempotentResponse(ctx context.Context, key string) (body []byte, found, pending bool, err error)
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// AuditReader returns the recorded lifecycle history of an order
type AuditReader interface {
	AuditTrail(ctx context.Context, orderNumber int64) ([]models.AuditEntry, error)
}
