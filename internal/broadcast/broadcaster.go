// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package broadcast runs the fixed-interval proximity fan-out: each tick it
// snapshots the located viewer connections, queries the vessel store once
// per connection, and pushes the full result set to that connection.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/pelorus-io/pelorus/internal/logging"
	"github.com/pelorus-io/pelorus/internal/metrics"
	"github.com/pelorus-io/pelorus/internal/models"
	ws "github.com/pelorus-io/pelorus/internal/websocket"
)

// VesselSource is the read-only proximity query contract the broadcaster
// needs from the vessel store. Satisfied by *database.DB.
type VesselSource interface {
	QueryNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]models.VesselState, error)
}

// Broadcaster drives the periodic query-and-push cycle.
type Broadcaster struct {
	store    VesselSource
	registry *ws.Registry
	interval time.Duration
}

// NewBroadcaster creates a broadcaster ticking at the given interval.
func NewBroadcaster(store VesselSource, registry *ws.Registry, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Broadcaster{
		store:    store,
		registry: registry,
		interval: interval,
	}
}

// Serve implements suture.Service. It ticks until the context is canceled.
func (b *Broadcaster) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", b.interval).Msg("proximity broadcaster started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("proximity broadcaster stopped")
			return ctx.Err()
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

// tick executes one broadcast cycle: snapshot, then one independent
// query+send task per located connection. A slow or failing task for one
// connection never delays or blocks delivery to any other, and a panic in
// the store or serialization path is contained to its task.
func (b *Broadcaster) tick(ctx context.Context) {
	entries := b.registry.Snapshot()
	metrics.BroadcastTicksTotal.Inc()

	var wg sync.WaitGroup
	for _, entry := range entries {
		if !entry.State.Located {
			// No message is ever sent to a connection without a
			// known location.
			continue
		}
		wg.Add(1)
		go func(entry ws.Entry) {
			defer wg.Done()
			b.deliver(ctx, entry)
		}(entry)
	}
	wg.Wait()
}

// deliver queries nearby vessels for one connection and pushes the full
// result set. The payload is a complete snapshot, not a diff, so a missed
// delivery self-corrects on the next tick.
func (b *Broadcaster) deliver(ctx context.Context, entry ws.Entry) {
	vessels, err := b.store.QueryNearby(ctx, entry.State.Latitude, entry.State.Longitude, entry.State.Radius)
	if err != nil {
		metrics.BroadcastDeliveriesTotal.WithLabelValues("query_error").Inc()
		logging.Error().Err(err).
			Str("client_id", entry.Client.ID().String()).
			Msg("nearby vessel query failed")
		return
	}

	payload, err := json.Marshal(vessels)
	if err != nil {
		metrics.BroadcastDeliveriesTotal.WithLabelValues("query_error").Inc()
		logging.Error().Err(err).Msg("failed to marshal vessel payload")
		return
	}

	if !entry.Client.Send(payload) {
		// Dead or saturated connection: drop it from the registry so
		// future ticks skip it. Self-healing, not fatal.
		metrics.BroadcastDeliveriesTotal.WithLabelValues("send_failed").Inc()
		logging.Warn().
			Str("client_id", entry.Client.ID().String()).
			Msg("delivery failed, removing viewer connection")
		b.registry.OnClose(entry.Client)
		entry.Client.Close()
		return
	}

	metrics.BroadcastDeliveriesTotal.WithLabelValues("ok").Inc()
}

// String implements fmt.Stringer so suture identifies the service in logs.
func (b *Broadcaster) String() string {
	return "proximity-broadcaster"
}
