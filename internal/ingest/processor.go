// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package ingest

import (
	"context"
	"sync"

	"github.com/pelorus-io/pelorus/internal/logging"
	"github.com/pelorus-io/pelorus/internal/metrics"
	"github.com/pelorus-io/pelorus/internal/models"
)

// Store is the persistence contract the processor needs from the vessel
// store. Satisfied by *database.DB.
type Store interface {
	UpsertVessel(ctx context.Context, u *models.VesselUpdate) error
}

// Processor decouples the feed connector's read loop from persistence.
//
// Handle enqueues frames without blocking; worker goroutines normalize and
// upsert them. A stalled store therefore backs up the queue and eventually
// drops frames, but never stalls the connector's intake. Dropping is safe:
// only latest state matters, so the next report self-corrects.
type Processor struct {
	store   Store
	queue   chan []byte
	workers int
}

// NewProcessor creates a processor with the given worker count and intake
// queue size.
func NewProcessor(store Store, workers, queueSize int) *Processor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Processor{
		store:   store,
		queue:   make(chan []byte, queueSize),
		workers: workers,
	}
}

// Handle enqueues one raw frame for normalization and persistence.
// Never blocks; when the queue is full the frame is dropped and counted.
func (p *Processor) Handle(raw []byte) {
	select {
	case p.queue <- raw:
	default:
		metrics.IngestDroppedTotal.Inc()
		logging.Warn().Int("queue_size", cap(p.queue)).Msg("ingest queue full, dropping frame")
	}
}

// Serve implements suture.Service. It runs the worker pool until the
// context is canceled.
func (p *Processor) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// work drains the queue until the context is canceled.
func (p *Processor) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-p.queue:
			p.process(ctx, raw)
		}
	}
}

// process normalizes and persists one frame. Errors are contained here:
// a bad frame or a failed upsert is logged and dropped, nothing more.
func (p *Processor) process(ctx context.Context, raw []byte) {
	update, err := Normalize(raw)
	if err != nil {
		metrics.IngestRejectsTotal.WithLabelValues(rejectReason(err)).Inc()
		logging.Debug().Err(err).Msg("rejected feed frame")
		return
	}

	if err := p.store.UpsertVessel(ctx, update); err != nil {
		// No retry queue: the next report for this vessel self-corrects.
		logging.Error().Err(err).Int64("mmsi", update.MMSI).Msg("vessel upsert failed")
	}
}

// String implements fmt.Stringer so suture identifies the service in logs.
func (p *Processor) String() string {
	return "ingest-processor"
}
