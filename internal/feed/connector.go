// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package feed maintains the persistent upstream connection to the AIS
// position report stream.
//
// The connector is an explicit state machine:
//
//	CONNECTING -> SUBSCRIBED -> RECONNECT_PENDING -> CONNECTING -> ...
//
// Any transport error or unexpected close transitions to RECONNECT_PENDING,
// waits the fixed reconnect delay, and dials again. Reconnection is infinite
// and unattended; only context cancellation stops the loop. Raw frames are
// handed to the registered handler without validation - validation belongs
// to the ingest normalizer.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/pelorus-io/pelorus/internal/config"
	"github.com/pelorus-io/pelorus/internal/logging"
	"github.com/pelorus-io/pelorus/internal/metrics"
	"github.com/pelorus-io/pelorus/internal/models"
)

// State identifies the connector's position in its connect/subscribe/retry
// cycle.
type State int32

const (
	// StateConnecting means a dial is in progress.
	StateConnecting State = iota
	// StateSubscribed means the connection is open and the subscription
	// control frame has been accepted.
	StateSubscribed
	// StateReconnectPending means the last connection failed and the
	// connector is waiting out the reconnect delay.
	StateReconnectPending
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReconnectPending:
		return "reconnect_pending"
	default:
		return "unknown"
	}
}

// Dialer abstracts the WebSocket dial so tests can inject a fake upstream.
// Satisfied by *websocket.Dialer.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Handler receives every raw inbound frame. It must not block: slow
// downstream work (persistence in particular) is queued by the ingest
// processor, never performed on the read loop.
type Handler func(raw []byte)

// Connector owns the single upstream feed connection for the process.
type Connector struct {
	cfg     config.FeedConfig
	dialer  Dialer
	handler Handler
	state   atomic.Int32
}

// NewConnector creates a connector for the configured upstream. The handler
// is invoked for every inbound frame once subscribed.
func NewConnector(cfg config.FeedConfig, handler Handler) *Connector {
	return &Connector{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: true,
		},
		handler: handler,
	}
}

// SetDialer replaces the WebSocket dialer. Intended for tests that point
// the connector at a fake upstream server.
func (c *Connector) SetDialer(d Dialer) {
	c.dialer = d
}

// State returns the connector's current state.
func (c *Connector) State() State {
	return State(c.state.Load())
}

func (c *Connector) setState(s State) {
	c.state.Store(int32(s))
	if s == StateSubscribed {
		metrics.FeedConnected.Set(1)
	} else {
		metrics.FeedConnected.Set(0)
	}
}

// Serve implements suture.Service. It runs the connect/subscribe/read cycle
// until the context is canceled and never returns under normal operation.
func (c *Connector) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).
				Dur("retry_in", c.cfg.ReconnectDelay).
				Msg("feed dial failed")
			if err := c.waitReconnect(ctx); err != nil {
				return err
			}
			continue
		}

		if err := c.subscribe(conn); err != nil {
			logging.Warn().Err(err).
				Dur("retry_in", c.cfg.ReconnectDelay).
				Msg("feed subscription failed")
			closeConn(conn)
			if err := c.waitReconnect(ctx); err != nil {
				return err
			}
			continue
		}

		c.setState(StateSubscribed)
		logging.Info().Str("url", c.cfg.URL).Msg("feed subscribed")

		err = c.readLoop(ctx, conn)
		closeConn(conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logging.Warn().Err(err).
			Dur("retry_in", c.cfg.ReconnectDelay).
			Msg("feed connection lost")
		if err := c.waitReconnect(ctx); err != nil {
			return err
		}
	}
}

// dial establishes the upstream WebSocket connection.
func (c *Connector) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if resp != nil {
		defer closeQuietly(resp.Body)
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("feed dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("feed dial: %w", err)
	}
	return conn, nil
}

// subscribe sends the single subscription control frame: credential,
// bounding box, and an inclusion filter restricted to position reports.
func (c *Connector) subscribe(conn *websocket.Conn) error {
	sub := models.FeedSubscription{
		APIKey: c.cfg.APIKey,
		BoundingBoxes: [][][2]float64{{
			{c.cfg.LatMin, c.cfg.LonMin},
			{c.cfg.LatMax, c.cfg.LonMax},
		}},
		FilterMessageTypes: []string{"PositionReport"},
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write subscription: %w", err)
	}
	return nil
}

// readLoop reads frames until the connection fails or the context is
// canceled. Each frame is handed to the handler as-is.
func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// A pending ReadMessage on a quiet upstream would otherwise hold
	// shutdown until the read deadline; closing the conn unblocks it
	// immediately.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("feed closed: %w", err)
			}
			return fmt.Errorf("feed read: %w", err)
		}

		metrics.FeedMessagesTotal.Inc()
		c.handler(raw)
	}
}

// waitReconnect transitions to RECONNECT_PENDING and waits out the fixed
// reconnect delay, or returns early on context cancellation.
func (c *Connector) waitReconnect(ctx context.Context) error {
	c.setState(StateReconnectPending)
	metrics.FeedReconnectsTotal.Inc()

	select {
	case <-time.After(c.cfg.ReconnectDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// String implements fmt.Stringer so suture identifies the service in logs.
func (c *Connector) String() string {
	return "feed-connector"
}

// closeConn closes the upstream connection, sending a best-effort close
// frame first.
func closeConn(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	_ = conn.Close()
}

// closeQuietly closes a response body, ignoring the error.
func closeQuietly(body interface{ Close() error }) {
	if body != nil {
		_ = body.Close()
	}
}
