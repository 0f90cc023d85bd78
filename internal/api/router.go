// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pelorus-io/pelorus/internal/config"
	"github.com/pelorus-io/pelorus/internal/database"
	ws "github.com/pelorus-io/pelorus/internal/websocket"
)

// Router wires handlers to routes.
type Router struct {
	cfg     *config.Config
	handler *Handler
}

// NewRouter creates the HTTP router for the viewer surface.
func NewRouter(cfg *config.Config, db *database.DB, registry *ws.Registry) *Router {
	return &Router{
		cfg:     cfg,
		handler: NewHandler(cfg, db, registry),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints: permissive rate limit so monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Data endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.Server.RateLimitReqs, router.cfg.Server.RateLimitWindow))
		r.Get("/vessels/nearby", router.handler.NearbyVessels)
	})

	// The viewer WebSocket endpoint sits outside the rate-limited group:
	// one upgrade per session, then the connection is long-lived.
	r.Get("/ws", router.handler.WebSocket)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
