// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package models

// Wire types for the aisstream.io feed. Field names match the upstream JSON
// exactly; required fields are pointers so that a missing key is
// distinguishable from a legitimate zero value (a vessel on the equator or
// prime meridian reports 0.0).

// FeedSubscription is the single control frame sent after the upstream
// connection opens. BoundingBoxes is a list of [[latMin, lonMin],
// [latMax, lonMax]] pairs; FilterMessageTypes restricts the stream to
// position reports.
type FeedSubscription struct {
	APIKey             string         `json:"Apikey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string       `json:"FilterMessageTypes"`
}

// FeedEnvelope is one inbound frame from the upstream feed.
type FeedEnvelope struct {
	MetaData *FeedMetaData `json:"MetaData"`
	Message  *FeedMessage  `json:"Message"`
}

// FeedMetaData carries vessel identity and the source timestamp.
type FeedMetaData struct {
	MMSI     *int64  `json:"MMSI"`
	ShipName *string `json:"ShipName"`
	TimeUTC  *string `json:"time_utc"`
}

// FeedMessage wraps the typed message payloads. Only position reports are
// subscribed to, but the upstream schema nests them one level down.
type FeedMessage struct {
	PositionReport *PositionReport `json:"PositionReport"`
}

// PositionReport is the kinematic payload of a position report frame.
// Sog, Cog and TrueHeading default to zero when absent; only identity,
// position, and the source timestamp are mandatory.
type PositionReport struct {
	Latitude    *float64 `json:"Latitude"`
	Longitude   *float64 `json:"Longitude"`
	Sog         float64  `json:"Sog"`
	Cog         float64  `json:"Cog"`
	TrueHeading float64  `json:"TrueHeading"`
}
