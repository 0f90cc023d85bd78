// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package models

// ViewerMessageTypeLocationUpdate is the only inbound viewer message type
// acted upon; all other types are ignored.
const ViewerMessageTypeLocationUpdate = "location-update"

// ViewerMessage is one inbound frame from a viewer connection.
type ViewerMessage struct {
	Type    string                 `json:"type"`
	Payload *LocationUpdatePayload `json:"payload"`
}

// LocationUpdatePayload declares a viewer's location and search radius.
// Latitude and longitude are pointers so a missing field is rejected while
// a legitimate 0.0 coordinate is accepted. Radius is optional; when absent
// the previously stored radius (or the configured default) is kept.
type LocationUpdatePayload struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Radius    *float64 `json:"radius" validate:"omitempty,gt=0"`
}
