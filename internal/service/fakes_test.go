package service

import (
	"context"
	"sync"

	"cafeteria-service/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	blob     []byte
	saves    int
	failWith error
}

func (m *memStore) Save(_ context.Context, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.blob = append([]byte(nil), snapshot...)
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, models.ErrNoSnapshot
	}
	return append([]byte(nil), m.blob...), nil
}

func (m *memStore) Backend() string { return "memory" }

type recordingPublisher struct {
	mu       sync.Mutex
	types    []string
	advanced []*models.OrderAdvancedEvent
	failWith error
}

func (p *recordingPublisher) record(eventType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	return p.failWith
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	return p.record(event.EventType)
}

func (p *recordingPublisher) PublishOrderLineChanged(_ context.Context, event *models.OrderLineEvent) error {
	return p.record(event.EventType)
}

func (p *recordingPublisher) PublishOrderAdvanced(_ context.Context, event *models.OrderAdvancedEvent) error {
	p.mu.Lock()
	p.advanced = append(p.advanced, event)
	p.mu.Unlock()
	return p.record(event.EventType)
}

func (p *recordingPublisher) PublishOrderDeleted(_ context.Context, event *models.OrderDeletedEvent) error {
	return p.record(event.EventType)
}

func (p *recordingPublisher) PublishStockAdjusted(_ context.Context, event *models.StockAdjustedEvent) error {
	return p.record(event.EventType)
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = nil
	p.advanced = nil
}
