package service

import (
	"context"
	"errors"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"go.uber.org/zap"
)

// MirroredStore writes every snapshot to a primary store and then to a mirror.
// Only primary failures are reported; Load falls back to the mirror when the
// primary cannot be read.
type MirroredStore struct {
	primary SnapshotStore
	mirror  SnapshotStore
	logger  *zap.Logger
}

// NewMirroredStore combines two snapshot stores
func NewMirroredStore(primary, mirror SnapshotStore) *MirroredStore {
	return &MirroredStore{primary: primary, mirror: mirror, logger: util.Named("snapshot-mirror")}
}

func (m *MirroredStore) Backend() string {
	return m.primary.Backend()
}

func (m *MirroredStore) Save(ctx context.Context, snapshot []byte) error {
	if err := m.primary.Save(ctx, snapshot); err != nil {
		return err
	}
	if err := m.mirror.Save(ctx, snapshot); err != nil {
		util.SnapshotPersistFailures.WithLabelValues(m.mirror.Backend()).Inc()
		m.logger.Warn("Snapshot mirror save failed",
			zap.String("mirror", m.mirror.Backend()),
			zap.Error(err))
	}
	return nil
}

func (m *MirroredStore) Load(ctx context.Context) ([]byte, error) {
	blob, err := m.primary.Load(ctx)
	if err == nil || errors.Is(err, models.ErrNoSnapshot) {
		return blob, err
	}

	m.logger.Warn("Primary snapshot store unreadable, trying mirror",
		zap.String("primary", m.primary.Backend()),
		zap.Error(err))
	blob, mirrorErr := m.mirror.Load(ctx)
	switch {
	case errors.Is(mirrorErr, models.ErrNoSnapshot):
		// an empty mirror must not look like an empty primary
		return nil, err
	case mirrorErr != nil:
		return nil, errors.Join(err, mirrorErr)
	}
	return blob, nil
}
