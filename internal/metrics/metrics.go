// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package metrics provides Prometheus instrumentation for the ingestion
// pipeline, the vessel store, and the viewer-facing broadcast loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed connector metrics
	FeedMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_messages_total",
			Help: "Total number of raw frames received from the upstream AIS feed",
		},
	)

	FeedReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "Total number of upstream reconnect attempts",
		},
	)

	FeedConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_connected",
			Help: "1 when the upstream feed connection is subscribed, 0 otherwise",
		},
	)

	// Ingest metrics
	IngestRejectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rejects_total",
			Help: "Total number of feed frames rejected by the normalizer",
		},
		[]string{"reason"},
	)

	IngestDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_dropped_total",
			Help: "Total number of frames dropped because the intake queue was full",
		},
	)

	// Vessel store metrics
	VesselUpsertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vessel_upserts_total",
			Help: "Total number of successful vessel upserts",
		},
	)

	VesselUpsertErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vessel_upsert_errors_total",
			Help: "Total number of failed vessel upserts",
		},
	)

	NearbyQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearby_query_duration_seconds",
			Help:    "Duration of proximity queries against the vessel store",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Broadcast metrics
	BroadcastTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_ticks_total",
			Help: "Total number of broadcast ticks executed",
		},
	)

	BroadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Total number of per-connection broadcast deliveries by result",
		},
		[]string{"result"}, // "ok", "query_error", "send_failed"
	)

	// Viewer connection metrics
	ViewerConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewer_connections",
			Help: "Current number of open viewer WebSocket connections",
		},
	)

	ViewerLocationUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewer_location_updates_total",
			Help: "Total number of viewer location updates by result",
		},
		[]string{"result"}, // "ok", "invalid"
	)
)
