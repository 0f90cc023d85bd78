// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package ingest validates raw feed frames and persists them as vessel
// state. A rejected frame is logged and dropped; it never interrupts the
// feed connector and never partially writes a vessel row.
package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/pelorus-io/pelorus/internal/models"
)

// Reject reasons. Exposed as errors so tests and metrics can distinguish
// why a frame was dropped.
var (
	ErrNoPositionReport = errors.New("frame carries no position report payload")
	ErrMissingMMSI      = errors.New("metadata missing MMSI")
	ErrMissingLatitude  = errors.New("position report missing latitude")
	ErrMissingLongitude = errors.New("position report missing longitude")
	ErrMissingTimestamp = errors.New("metadata missing source timestamp")
)

// sourceTimeLayouts are the formats the upstream uses for time_utc.
// The primary format is Go's default time.Time string form.
var sourceTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	time.RFC3339,
}

// Normalize validates a raw feed frame and maps it to a VesselUpdate.
//
// Presence is checked explicitly through pointer fields: a report at
// latitude or longitude 0.0 is valid and accepted. Only a genuinely absent
// field rejects the frame.
func Normalize(raw []byte) (*models.VesselUpdate, error) {
	var env models.FeedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	if env.Message == nil || env.Message.PositionReport == nil {
		return nil, ErrNoPositionReport
	}
	report := env.Message.PositionReport

	if env.MetaData == nil || env.MetaData.MMSI == nil {
		return nil, ErrMissingMMSI
	}
	if report.Latitude == nil {
		return nil, ErrMissingLatitude
	}
	if report.Longitude == nil {
		return nil, ErrMissingLongitude
	}
	if env.MetaData.TimeUTC == nil {
		return nil, ErrMissingTimestamp
	}

	updatedAt, err := parseSourceTime(*env.MetaData.TimeUTC)
	if err != nil {
		return nil, fmt.Errorf("parse source timestamp %q: %w", *env.MetaData.TimeUTC, err)
	}

	return &models.VesselUpdate{
		MMSI:      *env.MetaData.MMSI,
		Name:      env.MetaData.ShipName,
		Latitude:  *report.Latitude,
		Longitude: *report.Longitude,
		Sog:       report.Sog,
		Cog:       report.Cog,
		Heading:   report.TrueHeading,
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

// parseSourceTime parses the upstream time_utc field, trying each known
// layout in order.
func parseSourceTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range sourceTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// rejectReason maps a normalization error to a stable metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNoPositionReport):
		return "no_position_report"
	case errors.Is(err, ErrMissingMMSI):
		return "missing_mmsi"
	case errors.Is(err, ErrMissingLatitude):
		return "missing_latitude"
	case errors.Is(err, ErrMissingLongitude):
		return "missing_longitude"
	case errors.Is(err, ErrMissingTimestamp):
		return "missing_timestamp"
	default:
		return "decode"
	}
}
