// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the vessels table and its indexes.
//
// The table holds exactly one row per MMSI (latest known state, never a
// trajectory). geom is derived from (longitude, latitude) at upsert time so
// the stored geometry can never drift from the scalar coordinates.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS vessels (
			mmsi BIGINT PRIMARY KEY,
			name TEXT,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			sog DOUBLE NOT NULL DEFAULT 0,
			cog DOUBLE NOT NULL DEFAULT 0,
			heading DOUBLE NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL,
			geom GEOMETRY NOT NULL
		)`,

		// R-tree index accelerates the proximity query's spatial scan.
		`CREATE INDEX IF NOT EXISTS idx_vessels_geom ON vessels USING RTREE (geom)`,

		`CREATE INDEX IF NOT EXISTS idx_vessels_updated_at ON vessels (updated_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
