// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package api provides the viewer-facing HTTP surface: the WebSocket
// upgrade endpoint, health endpoints, a REST mirror of the proximity
// query, and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/pelorus-io/pelorus/internal/config"
	"github.com/pelorus-io/pelorus/internal/database"
	"github.com/pelorus-io/pelorus/internal/logging"
	ws "github.com/pelorus-io/pelorus/internal/websocket"
)

// Handler carries the dependencies of all HTTP endpoints.
type Handler struct {
	cfg      *config.Config
	db       *database.DB
	registry *ws.Registry
}

// NewHandler creates the HTTP handler set.
func NewHandler(cfg *config.Config, db *database.DB, registry *ws.Registry) *Handler {
	return &Handler{cfg: cfg, db: db, registry: registry}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates connection origins against the configured
// CORS origins. Non-browser clients without an Origin header are allowed;
// the endpoint serves native viewer apps as well as browsers.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.cfg == nil {
		return true
	}
	for _, allowed := range h.cfg.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades a viewer connection and registers it. The connection
// starts without a location; it receives nothing until it sends a valid
// location-update message.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := ws.NewClient(h.registry, conn)
	h.registry.OnOpen(client)
	client.Start()
}

// NearbyVessels is the REST mirror of the broadcaster's proximity query:
// GET /api/v1/vessels/nearby?lat=..&lon=..&radius=..
func (h *Handler) NearbyVessels(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloatParam(r, "lat")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "lat must be a number")
		return
	}
	lon, err := parseFloatParam(r, "lon")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "lon must be a number")
		return
	}
	radius := h.cfg.Broadcast.DefaultRadiusMeters
	if r.URL.Query().Get("radius") != "" {
		radius, err = parseFloatParam(r, "radius")
		if err != nil || radius <= 0 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "radius must be a positive number")
			return
		}
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "lat/lon out of range")
		return
	}

	vessels, err := h.db.QueryNearby(r.Context(), lat, lon, radius)
	if err != nil {
		logging.Error().Err(err).Msg("nearby vessel query failed")
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "failed to query nearby vessels")
		return
	}

	respondJSON(w, http.StatusOK, vessels)
}

// Health reports overall process health including store reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]interface{}{
		"status":       "ok",
		"viewer_conns": h.registry.Len(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	} else if count, err := h.db.CountVessels(ctx); err == nil {
		body["vessels"] = count
	}

	respondJSON(w, status, body)
}

// HealthLive is the liveness probe: the process is up and serving.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: the vessel store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// parseFloatParam parses a required float query parameter.
func parseFloatParam(r *http.Request, name string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(name), 64)
}

// respondJSON writes a JSON response body.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes a structured JSON error.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"code": code, "message": message})
}
