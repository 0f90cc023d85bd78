// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

package validation

import (
	"errors"
	"sort"
	"testing"
)

type coordinates struct {
	Latitude  *float64 `validate:"required,gte=-90,lte=90"`
	Longitude *float64 `validate:"required,gte=-180,lte=180"`
	Radius    *float64 `validate:"omitempty,gt=0"`
}

func f(v float64) *float64 { return &v }

func TestValidateStructValid(t *testing.T) {
	tests := []struct {
		name string
		in   coordinates
	}{
		{"typical", coordinates{Latitude: f(53.3), Longitude: f(6.9), Radius: f(1000)}},
		{"zero coordinates", coordinates{Latitude: f(0), Longitude: f(0)}},
		{"extremes", coordinates{Latitude: f(-90), Longitude: f(180)}},
		{"no radius", coordinates{Latitude: f(1), Longitude: f(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.in); err != nil {
				t.Errorf("ValidateStruct() error = %v, want nil", err)
			}
		})
	}
}

func TestValidateStructFieldNames(t *testing.T) {
	in := coordinates{Radius: f(-1)} // both coordinates missing, radius bad

	err := ValidateStruct(&in)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	var se *StructError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StructError", err)
	}

	fields := se.Fields()
	sort.Strings(fields)
	want := []string{"Latitude", "Longitude", "Radius"}
	if len(fields) != len(want) {
		t.Fatalf("Fields() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Fields()[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestValidateStructMessages(t *testing.T) {
	in := coordinates{Latitude: f(91), Longitude: f(0)}

	err := ValidateStruct(&in)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	var se *StructError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StructError", err)
	}
	ferrs := se.Errors()
	if len(ferrs) != 1 {
		t.Fatalf("Errors() len = %d, want 1", len(ferrs))
	}
	if ferrs[0].Field != "Latitude" || ferrs[0].Tag != "lte" {
		t.Errorf("failure = %s/%s, want Latitude/lte", ferrs[0].Field, ferrs[0].Tag)
	}
	if se.Error() == "" {
		t.Error("Error() is empty, want readable message")
	}
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	if err := ValidateStruct(42); err == nil {
		t.Error("ValidateStruct(42) = nil, want error")
	}
}
