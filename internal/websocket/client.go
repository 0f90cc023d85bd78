// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package websocket implements the viewer-facing WebSocket layer: one
// Client per connection plus the Registry that tracks each connection's
// declared location and search radius.
package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pelorus-io/pelorus/internal/logging"
	"github.com/pelorus-io/pelorus/internal/metrics"
	"github.com/pelorus-io/pelorus/internal/models"
	"github.com/pelorus-io/pelorus/internal/validation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // location updates are tiny
)

// LocationSink receives a client's parsed location updates and close
// notifications. Satisfied by *Registry; tests substitute a recorder.
type LocationSink interface {
	OnLocationUpdate(c *Client, latitude, longitude float64, radius *float64)
	OnClose(c *Client)
}

// Client is a middleman between one viewer WebSocket connection and the
// registry/broadcaster. Outbound payloads are pre-serialized JSON handed to
// Send; inbound frames are parsed location updates.
type Client struct {
	id       uuid.UUID
	conn     *websocket.Conn
	registry LocationSink

	send   chan []byte
	mu     sync.RWMutex
	closed bool
}

// NewClient creates a client for an upgraded connection.
func NewClient(registry LocationSink, conn *websocket.Conn) *Client {
	return &Client{
		id:       uuid.New(),
		conn:     conn,
		registry: registry,
		send:     make(chan []byte, 8),
	}
}

// ID returns the connection identity.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Outbound exposes the delivery queue. The write pump is its only consumer
// in production; tests read it directly to observe delivered payloads.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

// Send queues a pre-serialized payload for delivery. Returns false when the
// client is closed or its send buffer is full; the caller treats either as
// a delivery failure.
func (c *Client) Send(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close marks the client closed and closes its send channel exactly once.
// Safe for concurrent calls.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump parses inbound viewer messages until the connection drops, then
// removes the connection from the registry.
func (c *Client) readPump() {
	defer func() {
		c.registry.OnClose(c)
		c.Close()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("client_id", c.id.String()).Msg("unexpected websocket close error")
			}
			return
		}
		c.handleMessage(raw)
	}
}

// handleMessage processes one inbound frame. Only location-update messages
// are acted on; any other type is ignored. A malformed or invalid payload
// is logged with the offending field names and the previously stored
// location is left untouched.
func (c *Client) handleMessage(raw []byte) {
	var msg models.ViewerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		metrics.ViewerLocationUpdatesTotal.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Str("client_id", c.id.String()).Msg("malformed viewer message")
		return
	}

	if msg.Type != models.ViewerMessageTypeLocationUpdate {
		logging.Debug().Str("type", msg.Type).Msg("ignoring viewer message")
		return
	}

	if err := validateLocationPayload(msg.Payload); err != nil {
		metrics.ViewerLocationUpdatesTotal.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Str("client_id", c.id.String()).Msg("invalid location update")
		return
	}

	c.registry.OnLocationUpdate(c, *msg.Payload.Latitude, *msg.Payload.Longitude, msg.Payload.Radius)
	metrics.ViewerLocationUpdatesTotal.WithLabelValues("ok").Inc()
}

// validateLocationPayload checks presence and range of the declared
// coordinates. The error names every rejected field.
func validateLocationPayload(p *models.LocationUpdatePayload) error {
	if p == nil {
		return errors.New("latitude, longitude: missing or not a number")
	}
	return validation.ValidateStruct(p)
}

// writePump delivers queued payloads and keepalive pings until the send
// channel closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// Registry or broadcaster closed the client.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Str("client_id", c.id.String()).Msg("failed to write payload")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
