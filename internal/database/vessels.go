// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pelorus-io/pelorus/internal/metrics"
	"github.com/pelorus-io/pelorus/internal/models"
)

// upsertVesselSQL is a single atomic insert-or-update keyed by MMSI.
//
// The WHERE clause on DO UPDATE enforces the ordering invariant: a report
// older than the stored row is silently ignored, so out-of-order delivery
// can never regress a vessel's position. A conflicting row is replaced
// wholesale (never merged), except that a NULL incoming name preserves a
// previously known name.
const upsertVesselSQL = `
	INSERT INTO vessels (mmsi, name, latitude, longitude, sog, cog, heading, updated_at, geom)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?))
	ON CONFLICT (mmsi) DO UPDATE SET
		name = COALESCE(EXCLUDED.name, vessels.name),
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		sog = EXCLUDED.sog,
		cog = EXCLUDED.cog,
		heading = EXCLUDED.heading,
		updated_at = EXCLUDED.updated_at,
		geom = EXCLUDED.geom
	WHERE EXCLUDED.updated_at >= vessels.updated_at`

// UpsertVessel atomically inserts or replaces the latest state for one
// vessel. Concurrent upserts for the same MMSI serialize on a per-vessel
// lock; different vessels proceed concurrently. Transaction conflicts are
// retried with a short capped backoff.
func (db *DB) UpsertVessel(ctx context.Context, u *models.VesselUpdate) error {
	mu := db.acquireVesselLock(u.MMSI)
	defer mu.Unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Millisecond * time.Duration(1<<uint(attempt-1)) // 1ms, 2ms
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := db.doUpsertVessel(ctx, u)
		if err == nil {
			metrics.VesselUpsertsTotal.Inc()
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			metrics.VesselUpsertErrorsTotal.Inc()
			return fmt.Errorf("upsert timed out or canceled: %w", ctx.Err())
		}
		if !isTransactionConflict(err) {
			metrics.VesselUpsertErrorsTotal.Inc()
			return err
		}
	}

	metrics.VesselUpsertErrorsTotal.Inc()
	return fmt.Errorf("upsert max retries exceeded: %w", lastErr)
}

// doUpsertVessel executes the atomic upsert statement.
func (db *DB) doUpsertVessel(ctx context.Context, u *models.VesselUpdate) error {
	_, err := db.conn.ExecContext(ctx, upsertVesselSQL,
		u.MMSI, u.Name, u.Latitude, u.Longitude,
		u.Sog, u.Cog, u.Heading, u.UpdatedAt.UTC(),
		u.Longitude, u.Latitude,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vessel %d: %w", u.MMSI, err)
	}
	return nil
}

// queryNearbySQL selects all vessels whose geodesic (great-circle) distance
// to the given point is within radius meters, nearest first. DuckDB allows
// reusing the SELECT alias in WHERE, so the distance is computed once.
const queryNearbySQL = `
	SELECT
		mmsi,
		name,
		latitude,
		longitude,
		sog,
		cog,
		heading,
		updated_at,
		CAST(ST_AsGeoJSON(geom) AS VARCHAR) AS geometry,
		ST_Distance_Sphere(geom, ST_Point(?, ?)) AS distance_m
	FROM vessels
	WHERE distance_m <= ?
	ORDER BY distance_m ASC`

// QueryNearby returns the latest state of every vessel within radiusMeters
// of (lat, lon). The query is read-only and never mutates vessel state.
func (db *DB) QueryNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]models.VesselState, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, queryNearbySQL, lon, lat, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby vessels: %w", err)
	}
	defer func() { closeQuietly(rows) }()

	vessels := make([]models.VesselState, 0)
	for rows.Next() {
		var v models.VesselState
		var name sql.NullString
		var geometry string
		var distanceM float64
		if err := rows.Scan(
			&v.MMSI, &name, &v.Latitude, &v.Longitude,
			&v.Sog, &v.Cog, &v.Heading, &v.UpdatedAt,
			&geometry, &distanceM,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vessel row: %w", err)
		}
		if name.Valid {
			v.Name = &name.String
		}
		v.Geometry = json.RawMessage(geometry)
		vessels = append(vessels, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vessel rows: %w", err)
	}

	metrics.NearbyQueryDuration.Observe(time.Since(start).Seconds())
	return vessels, nil
}

// GetVessel retrieves the stored state for a single MMSI.
// Returns nil with no error when the vessel is unknown.
func (db *DB) GetVessel(ctx context.Context, mmsi int64) (*models.VesselState, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
	SELECT mmsi, name, latitude, longitude, sog, cog, heading, updated_at,
		CAST(ST_AsGeoJSON(geom) AS VARCHAR)
	FROM vessels
	WHERE mmsi = ?`

	var v models.VesselState
	var name sql.NullString
	var geometry string
	err := db.conn.QueryRowContext(ctx, query, mmsi).Scan(
		&v.MMSI, &name, &v.Latitude, &v.Longitude,
		&v.Sog, &v.Cog, &v.Heading, &v.UpdatedAt, &geometry,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vessel %d: %w", mmsi, err)
	}
	if name.Valid {
		v.Name = &name.String
	}
	v.Geometry = json.RawMessage(geometry)

	return &v, nil
}

// CountVessels returns the number of stored vessels. Used by health checks.
func (db *DB) CountVessels(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM vessels`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count vessels: %w", err)
	}
	return count, nil
}
