// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package models defines the shared data types exchanged between the feed
// connector, normalizer, vessel store, and viewer-facing WebSocket layer.
package models

import (
	"encoding/json"
	"time"
)

// VesselUpdate is a validated, normalized position report ready to be
// persisted. It is produced by the ingest normalizer from a raw feed frame.
//
// Name is nil when the source metadata carried no ship name; the store
// preserves a previously known name in that case.
type VesselUpdate struct {
	MMSI      int64
	Name      *string
	Latitude  float64
	Longitude float64
	Sog       float64
	Cog       float64
	Heading   float64
	UpdatedAt time.Time
}

// VesselState is the latest known state of a single vessel as stored in and
// returned by the vessel store. Geometry carries the GeoJSON point derived
// from (longitude, latitude) at upsert time.
type VesselState struct {
	MMSI      int64           `json:"mmsi"`
	Name      *string         `json:"name"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Sog       float64         `json:"sog"`
	Cog       float64         `json:"cog"`
	Heading   float64         `json:"heading"`
	UpdatedAt time.Time       `json:"updated_at"`
	Geometry  json.RawMessage `json:"geometry"`
}
