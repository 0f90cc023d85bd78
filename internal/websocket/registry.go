// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package websocket

import (
	"sync"

	"github.com/pelorus-io/pelorus/internal/logging"
	"github.com/pelorus-io/pelorus/internal/metrics"
)

// ConnectionState is the declared location of one viewer connection.
// A connection starts UNLOCATED (Located false) and becomes LOCATED on its
// first valid location update; there is no transition back.
type ConnectionState struct {
	Latitude  float64
	Longitude float64
	Radius    float64
	Located   bool
}

// Entry pairs a client with a copy of its state, as returned by Snapshot.
type Entry struct {
	Client *Client
	State  ConnectionState
}

// Registry is the sole owner of per-connection state. It tracks every open
// viewer connection and its most recent declared location and search
// radius. The broadcaster reads it through Snapshot; it never mutates
// entries itself and the registry never sends data to a connection.
type Registry struct {
	mu            sync.RWMutex
	entries       map[*Client]ConnectionState
	defaultRadius float64
}

// NewRegistry creates a registry. defaultRadiusMeters applies to
// connections that never declared a radius; it must be positive.
func NewRegistry(defaultRadiusMeters float64) *Registry {
	return &Registry{
		entries:       make(map[*Client]ConnectionState),
		defaultRadius: defaultRadiusMeters,
	}
}

// OnOpen registers a freshly opened connection with no location.
func (r *Registry) OnOpen(c *Client) {
	r.mu.Lock()
	r.entries[c] = ConnectionState{Radius: r.defaultRadius}
	total := len(r.entries)
	r.mu.Unlock()

	metrics.ViewerConnections.Set(float64(total))
	logging.Info().Str("client_id", c.ID().String()).Int("total_clients", total).Msg("viewer connected")
}

// OnLocationUpdate stores a connection's declared location. The whole entry
// is written under the lock, so a concurrent Snapshot observes either the
// old or the new state, never a mix. An absent radius preserves the prior
// value; a connection unknown to the registry is ignored (it raced a
// close).
func (r *Registry) OnLocationUpdate(c *Client, latitude, longitude float64, radius *float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.entries[c]
	if !ok {
		return
	}

	state.Latitude = latitude
	state.Longitude = longitude
	state.Located = true
	if radius != nil && *radius > 0 {
		state.Radius = *radius
	}
	r.entries[c] = state

	logging.Debug().
		Str("client_id", c.ID().String()).
		Float64("latitude", latitude).
		Float64("longitude", longitude).
		Float64("radius_m", state.Radius).
		Msg("viewer location updated")
}

// OnClose removes a connection. Safe to call more than once.
func (r *Registry) OnClose(c *Client) {
	r.mu.Lock()
	_, ok := r.entries[c]
	if ok {
		delete(r.entries, c)
	}
	total := len(r.entries)
	r.mu.Unlock()

	if ok {
		metrics.ViewerConnections.Set(float64(total))
		logging.Info().Str("client_id", c.ID().String()).Int("total_clients", total).Msg("viewer disconnected")
	}
}

// Snapshot returns a copy of every entry. The broadcaster iterates the copy
// so location updates arriving mid-tick never race the fan-out.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for c, state := range r.entries {
		entries = append(entries, Entry{Client: c, State: state})
	}
	return entries
}

// Len returns the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
