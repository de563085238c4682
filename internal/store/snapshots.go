package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
)

// Backend names this store in metrics and logs
func (s *Store) Backend() string {
	return "postgres"
}

// Save appends a snapshot and prunes all but the most recent ones in one transaction
func (s *Store) Save(ctx context.Context, snapshot []byte) (err error) {
	ctx, span := util.StartSpan(ctx, "Store.SaveSnapshot", attribute.Int("size_bytes", len(snapshot)))
	defer func() { util.EndSpan(span, err) }()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO engine_snapshots (payload, size_bytes) VALUES ($1, $2)",
		snapshot, len(snapshot))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM engine_snapshots WHERE id NOT IN (
			SELECT id FROM engine_snapshots ORDER BY id DESC LIMIT $1)`,
		snapshotsKept)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	return tx.Commit()
}

// Load returns the most recent snapshot, or models.ErrNoSnapshot if none was saved
func (s *Store) Load(ctx context.Context) (snapshot []byte, err error) {
	ctx, span := util.StartSpan(ctx, "Store.LoadSnapshot")
	defer func() { util.EndSpan(span, err) }()

	err = s.db.GetContext(ctx, &snapshot,
		"SELECT payload FROM engine_snapshots ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snapshot, nil
}
