// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeValidFrame(t *testing.T) {
	raw := []byte(`{
		"MetaData": {
			"MMSI": 244660920,
			"ShipName": "EEMSLIFT NELLI",
			"time_utc": "2026-08-30 12:34:56.789012345 +0000 UTC"
		},
		"Message": {
			"PositionReport": {
				"Latitude": 53.3251,
				"Longitude": 6.9285,
				"Sog": 10.2,
				"Cog": 271.3,
				"TrueHeading": 270
			}
		}
	}`)

	update, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v, want nil", err)
	}

	if update.MMSI != 244660920 {
		t.Errorf("MMSI = %d, want 244660920", update.MMSI)
	}
	if update.Name == nil || *update.Name != "EEMSLIFT NELLI" {
		t.Errorf("Name = %v, want EEMSLIFT NELLI", update.Name)
	}
	if update.Latitude != 53.3251 {
		t.Errorf("Latitude = %f, want 53.3251", update.Latitude)
	}
	if update.Longitude != 6.9285 {
		t.Errorf("Longitude = %f, want 6.9285", update.Longitude)
	}
	if update.Sog != 10.2 {
		t.Errorf("Sog = %f, want 10.2", update.Sog)
	}
	if update.Heading != 270 {
		t.Errorf("Heading = %f, want 270", update.Heading)
	}
	if update.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero, want parsed source timestamp")
	}
	if update.UpdatedAt.Location() != time.UTC {
		t.Errorf("UpdatedAt location = %v, want UTC", update.UpdatedAt.Location())
	}
}

// A vessel on the equator or prime meridian reports coordinate 0.0; that is
// a real position, not a missing field.
func TestNormalizeZeroCoordinatesAccepted(t *testing.T) {
	raw := []byte(`{
		"MetaData": {"MMSI": 123456789, "time_utc": "2026-08-30T12:00:00Z"},
		"Message": {"PositionReport": {"Latitude": 0.0, "Longitude": 0.0}}
	}`)

	update, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v, want nil", err)
	}
	if update.Latitude != 0 || update.Longitude != 0 {
		t.Errorf("got (%f, %f), want (0, 0)", update.Latitude, update.Longitude)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name:    "no position report",
			raw:     `{"MetaData": {"MMSI": 1, "time_utc": "2026-08-30T12:00:00Z"}, "Message": {}}`,
			wantErr: ErrNoPositionReport,
		},
		{
			name:    "no message",
			raw:     `{"MetaData": {"MMSI": 1, "time_utc": "2026-08-30T12:00:00Z"}}`,
			wantErr: ErrNoPositionReport,
		},
		{
			name:    "missing mmsi",
			raw:     `{"MetaData": {"time_utc": "2026-08-30T12:00:00Z"}, "Message": {"PositionReport": {"Latitude": 1, "Longitude": 2}}}`,
			wantErr: ErrMissingMMSI,
		},
		{
			name:    "missing metadata entirely",
			raw:     `{"Message": {"PositionReport": {"Latitude": 1, "Longitude": 2}}}`,
			wantErr: ErrMissingMMSI,
		},
		{
			name:    "missing latitude",
			raw:     `{"MetaData": {"MMSI": 1, "time_utc": "2026-08-30T12:00:00Z"}, "Message": {"PositionReport": {"Longitude": 2}}}`,
			wantErr: ErrMissingLatitude,
		},
		{
			name:    "missing longitude",
			raw:     `{"MetaData": {"MMSI": 1, "time_utc": "2026-08-30T12:00:00Z"}, "Message": {"PositionReport": {"Latitude": 1}}}`,
			wantErr: ErrMissingLongitude,
		},
		{
			name:    "missing timestamp",
			raw:     `{"MetaData": {"MMSI": 1}, "Message": {"PositionReport": {"Latitude": 1, "Longitude": 2}}}`,
			wantErr: ErrMissingTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeMalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{not json`))
	if err == nil {
		t.Fatal("Normalize() error = nil, want decode error")
	}
	if rejectReason(err) != "decode" {
		t.Errorf("rejectReason = %q, want decode", rejectReason(err))
	}
}

func TestNormalizeTimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		ts   string
	}{
		{"go time string", "2026-08-30 12:34:56.789012345 +0000 UTC"},
		{"rfc3339 nano", "2026-08-30T12:34:56.789012345Z"},
		{"rfc3339", "2026-08-30T12:34:56Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(`{
				"MetaData": {"MMSI": 1, "time_utc": "` + tt.ts + `"},
				"Message": {"PositionReport": {"Latitude": 1, "Longitude": 2}}
			}`)
			update, err := Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize() error = %v, want nil", err)
			}
			want := time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC)
			if !update.UpdatedAt.Truncate(time.Second).Equal(want) {
				t.Errorf("UpdatedAt = %v, want %v (ignoring sub-second)", update.UpdatedAt, want)
			}
		})
	}
}

func TestNormalizeUnparseableTimestamp(t *testing.T) {
	raw := []byte(`{
		"MetaData": {"MMSI": 1, "time_utc": "yesterday"},
		"Message": {"PositionReport": {"Latitude": 1, "Longitude": 2}}
	}`)
	if _, err := Normalize(raw); err == nil {
		t.Fatal("Normalize() error = nil, want timestamp parse error")
	}
}

func TestRejectReasonLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNoPositionReport, "no_position_report"},
		{ErrMissingMMSI, "missing_mmsi"},
		{ErrMissingLatitude, "missing_latitude"},
		{ErrMissingLongitude, "missing_longitude"},
		{ErrMissingTimestamp, "missing_timestamp"},
		{errors.New("anything else"), "decode"},
	}
	for _, tt := range tests {
		if got := rejectReason(tt.err); got != tt.want {
			t.Errorf("rejectReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
