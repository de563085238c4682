package worker

import (
	"context"
	"errors"
	"testing"

	"cafeteria-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	entries map[string]models.AuditEntry
	err     error
}

func (r *fakeRecorder) InsertAudit(_ context.Context, entry models.AuditEntry) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.entries[entry.EventID]; ok {
		return false, nil
	}
	r.entries[entry.EventID] = entry
	return true, nil
}

func TestAuditOrderAdvanced(t *testing.T) {
	rec := &fakeRecorder{entries: map[string]models.AuditEntry{}}
	w := NewAuditWorker(nil, rec)

	event := &models.OrderAdvancedEvent{
		BaseEvent:   models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeOrderAdvanced},
		OrderNumber: 5,
		From:        models.StatusInPreparation,
		To:          models.StatusDelivered,
		Actor:       "carlos",
	}

	require.NoError(t, w.HandleOrderAdvanced(context.Background(), event))
	// redelivery is harmless
	require.NoError(t, w.HandleOrderAdvanced(context.Background(), event))

	require.Len(t, rec.entries, 1)
	entry := rec.entries["evt-1"]
	assert.Equal(t, int64(5), entry.OrderNumber)
	assert.Equal(t, "IN_PREPARATION", entry.FromStatus)
	assert.Equal(t, "DELIVERED", entry.ToStatus)
	assert.Equal(t, "carlos", entry.Actor)
}

func TestAuditOrderDeleted(t *testing.T) {
	rec := &fakeRecorder{entries: map[string]models.AuditEntry{}}
	w := NewAuditWorker(nil, rec)

	err := w.HandleOrderDeleted(context.Background(), &models.OrderDeletedEvent{
		BaseEvent:   models.BaseEvent{EventID: "evt-2", EventType: models.EventTypeOrderDeleted},
		OrderNumber: 9,
		Status:      models.StatusNew,
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW", rec.entries["evt-2"].FromStatus)
	assert.Empty(t, rec.entries["evt-2"].ToStatus)
}

func TestAuditErrors(t *testing.T) {
	rec := &fakeRecorder{entries: map[string]models.AuditEntry{}}
	w := NewAuditWorker(nil, rec)

	err := w.HandleOrderDeleted(context.Background(), &models.OrderDeletedEvent{OrderNumber: 1})
	assert.Error(t, err, "events without id are rejected")

	rec.err = errors.New("db down")
	err = w.HandleOrderAdvanced(context.Background(), &models.OrderAdvancedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-3"},
	})
	assert.ErrorContains(t, err, "db down")
}
