package postgres

import (
	"context"
	"fmt"
)

const schemaUp = `
CREATE TABLE IF NOT EXISTS map_events (
	id          BIGSERIAL PRIMARY KEY,
	time        TIMESTAMPTZ NOT NULL DEFAULT now(),
	action      TEXT NOT NULL,
	feature_ids TEXT[] NOT NULL DEFAULT '{}',
	payload     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS map_events_time_idx ON map_events (time DESC);
CREATE INDEX IF NOT EXISTS map_events_feature_ids_idx ON map_events USING GIN (feature_ids);
`

const schemaDown = `DROP TABLE IF EXISTS map_events;`

// Migrate creates the event journal table.
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.Pool.Exec(ctx, schemaUp); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Drop removes the event journal table.
func Drop(ctx context.Context, db *DB) error {
	if _, err := db.Pool.Exec(ctx, schemaDown); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}
