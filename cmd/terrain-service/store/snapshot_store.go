// Package store persists world snapshots (Postgres) and caches derived
// query results (Redis). Neither stores a second terrain persistence
// format: Postgres holds the opaque {schemaVersion, controls, mapWidth,
// mapHeight, terrainVersion} blob, and Redis caches the output of pick/A*
// queries keyed by world and invalidated on terrainVersion bump.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"terraincore/internal/terrain"
)

// ErrWorldNotFound is returned when a world id has no stored snapshot.
var ErrWorldNotFound = errors.New("world not found")

// SnapshotStore persists a world's snapshot by id.
type SnapshotStore interface {
	Save(ctx context.Context, worldID uuid.UUID, snapshot terrain.Snapshot) error
	Load(ctx context.Context, worldID uuid.UUID) (terrain.Snapshot, error)
}

// PostgresSnapshotStore is the durable SnapshotStore backed by pgx.
type PostgresSnapshotStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotStore wraps an existing pool. Callers own the pool's
// lifecycle (pgxpool.New/Close).
func NewPostgresSnapshotStore(pool *pgxpool.Pool) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{pool: pool}
}

const createSnapshotsTableSQL = `
CREATE TABLE IF NOT EXISTS world_snapshots (
	world_id UUID PRIMARY KEY,
	snapshot_json JSONB NOT NULL
)`

// EnsureSchema creates the snapshot table if it does not already exist.
func (s *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createSnapshotsTableSQL)
	return err
}

// Save upserts a world's snapshot.
func (s *PostgresSnapshotStore) Save(ctx context.Context, worldID uuid.UUID, snapshot terrain.Snapshot) error {
	blob, err := snapshot.Marshal()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO world_snapshots (world_id, snapshot_json)
		VALUES ($1, $2)
		ON CONFLICT (world_id) DO UPDATE SET snapshot_json = EXCLUDED.snapshot_json
	`, worldID, blob)
	return err
}

// Load fetches a world's snapshot.
func (s *PostgresSnapshotStore) Load(ctx context.Context, worldID uuid.UUID) (terrain.Snapshot, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx, `
		SELECT snapshot_json FROM world_snapshots WHERE world_id = $1
	`, worldID).Scan(&blob)
	if err != nil {
		return terrain.Snapshot{}, ErrWorldNotFound
	}
	return terrain.UnmarshalSnapshot(blob)
}
