// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package websocket

import (
	"sync"
	"testing"
)

// recordingSink captures location updates handed to the registry.
type recordingSink struct {
	mu      sync.Mutex
	updates []struct {
		lat, lon float64
		radius   *float64
	}
	closes int
}

func (s *recordingSink) OnLocationUpdate(_ *Client, lat, lon float64, radius *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, struct {
		lat, lon float64
		radius   *float64
	}{lat, lon, radius})
}

func (s *recordingSink) OnClose(_ *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func TestClientSendAfterCloseReturnsFalse(t *testing.T) {
	c := NewClient(&recordingSink{}, nil)

	if !c.Send([]byte("a")) {
		t.Fatal("Send() = false on open client, want true")
	}

	c.Close()
	if c.Send([]byte("b")) {
		t.Fatal("Send() = true on closed client, want false")
	}
}

func TestClientSendReturnsFalseWhenBufferFull(t *testing.T) {
	c := NewClient(&recordingSink{}, nil)

	// No write pump running: fill the buffer.
	for c.Send([]byte("x")) {
	}
	if c.Send([]byte("y")) {
		t.Fatal("Send() = true with a full buffer, want false")
	}
}

func TestClientCloseIdempotentAndConcurrent(t *testing.T) {
	c := NewClient(&recordingSink{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close() // must not panic on double close
		}()
	}
	wg.Wait()
}

func TestClientIDsAreUnique(t *testing.T) {
	a := NewClient(&recordingSink{}, nil)
	b := NewClient(&recordingSink{}, nil)
	if a.ID() == b.ID() {
		t.Error("two clients share an ID")
	}
}

func TestHandleMessageLocationUpdate(t *testing.T) {
	sink := &recordingSink{}
	c := NewClient(sink, nil)

	c.handleMessage([]byte(`{"type":"location-update","payload":{"latitude":53.3,"longitude":6.9,"radius":1000}}`))

	if sink.count() != 1 {
		t.Fatalf("sink received %d updates, want 1", sink.count())
	}
	u := sink.updates[0]
	if u.lat != 53.3 || u.lon != 6.9 {
		t.Errorf("update = (%f, %f), want (53.3, 6.9)", u.lat, u.lon)
	}
	if u.radius == nil || *u.radius != 1000 {
		t.Errorf("radius = %v, want 1000", u.radius)
	}
}

func TestHandleMessageZeroCoordinatesValid(t *testing.T) {
	sink := &recordingSink{}
	c := NewClient(sink, nil)

	c.handleMessage([]byte(`{"type":"location-update","payload":{"latitude":0,"longitude":0}}`))

	if sink.count() != 1 {
		t.Fatal("zero-valued coordinates rejected, want accepted")
	}
}

func TestHandleMessageRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{nope`},
		{"missing latitude", `{"type":"location-update","payload":{"longitude":6.9}}`},
		{"missing longitude", `{"type":"location-update","payload":{"latitude":53.3}}`},
		{"missing payload", `{"type":"location-update"}`},
		{"latitude out of range", `{"type":"location-update","payload":{"latitude":91,"longitude":0}}`},
		{"longitude out of range", `{"type":"location-update","payload":{"latitude":0,"longitude":-181}}`},
		{"non-positive radius", `{"type":"location-update","payload":{"latitude":1,"longitude":2,"radius":0}}`},
		{"latitude not a number", `{"type":"location-update","payload":{"latitude":"high","longitude":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			c := NewClient(sink, nil)
			c.handleMessage([]byte(tt.raw))
			if sink.count() != 0 {
				t.Errorf("sink received %d updates, want 0", sink.count())
			}
		})
	}
}

func TestHandleMessageIgnoresOtherTypes(t *testing.T) {
	sink := &recordingSink{}
	c := NewClient(sink, nil)

	// Unknown types are ignored without closing the connection.
	c.handleMessage([]byte(`{"type":"ping"}`))
	c.handleMessage([]byte(`{"type":"subscribe","payload":{"latitude":1,"longitude":2}}`))

	if sink.count() != 0 {
		t.Errorf("sink received %d updates from non-location messages, want 0", sink.count())
	}
	if sink.closes != 0 {
		t.Errorf("OnClose called %d times, want 0", sink.closes)
	}
}
