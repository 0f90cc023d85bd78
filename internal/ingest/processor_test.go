// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pelorus-io/pelorus/internal/models"
)

// recordingStore collects upserted updates for assertions.
type recordingStore struct {
	mu      sync.Mutex
	updates []*models.VesselUpdate
	err     error
}

func (s *recordingStore) UpsertVessel(_ context.Context, u *models.VesselUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.updates = append(s.updates, u)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func validFrame() []byte {
	return []byte(`{
		"MetaData": {"MMSI": 244660920, "time_utc": "2026-08-30T12:00:00Z"},
		"Message": {"PositionReport": {"Latitude": 53.3, "Longitude": 6.9}}
	}`)
}

func TestProcessorPersistsValidFrames(t *testing.T) {
	store := &recordingStore{}
	p := NewProcessor(store, 2, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Serve(ctx)
		close(done)
	}()

	p.Handle(validFrame())
	p.Handle(validFrame())

	deadline := time.After(2 * time.Second)
	for store.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("stored %d updates, want 2", store.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestProcessorContainsRejectsAndStoreErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("store down")}
	p := NewProcessor(store, 1, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Serve(ctx) }()

	// Neither a malformed frame nor a failing store may panic or stop the
	// worker; later frames still flow.
	p.Handle([]byte(`{broken`))
	p.Handle(validFrame())

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	p.Handle(validFrame())

	deadline := time.After(2 * time.Second)
	for store.count() < 1 {
		select {
		case <-deadline:
			t.Fatal("worker stopped processing after contained errors")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestProcessorHandleNeverBlocksWhenFull(t *testing.T) {
	store := &recordingStore{}
	// No Serve running: the queue fills and stays full.
	p := NewProcessor(store, 1, 2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.Handle(validFrame())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Handle blocked on a full queue")
	}
}

func TestProcessorClampsInvalidSizes(t *testing.T) {
	p := NewProcessor(&recordingStore{}, 0, 0)
	if p.workers != 1 {
		t.Errorf("workers = %d, want 1", p.workers)
	}
	if cap(p.queue) != 1 {
		t.Errorf("queue cap = %d, want 1", cap(p.queue))
	}
}
