// Pelorus - Real-time AIS Vessel Tracking and Proximity Broadcast
// Copyright 2026 Pelorus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pelorus-io/pelorus

// Package validation provides struct validation using go-playground/validator
// v10. It exposes a thread-safe singleton validator instance shared by the
// config loader and the viewer message handlers.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure with the struct field
// name preserved, so callers can log exactly which fields were rejected.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	message string
}

// Error returns a human-readable message.
func (e *FieldError) Error() string {
	return e.message
}

// StructError is a collection of field validation failures for one struct.
type StructError struct {
	fieldErrors []FieldError
}

// Fields returns the names of all fields that failed validation.
func (e *StructError) Fields() []string {
	names := make([]string, 0, len(e.fieldErrors))
	for i := range e.fieldErrors {
		names = append(names, e.fieldErrors[i].Field)
	}
	return names
}

// Errors returns all field failures.
func (e *StructError) Errors() []FieldError {
	return e.fieldErrors
}

// Error joins all field messages.
func (e *StructError) Error() string {
	msgs := make([]string, 0, len(e.fieldErrors))
	for i := range e.fieldErrors {
		msgs = append(msgs, e.fieldErrors[i].message)
	}
	return strings.Join(msgs, "; ")
}

// instance returns the singleton validator, initializing it on first use.
// The validator caches struct metadata, so sharing one instance is both
// safe and faster.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct using its `validate` tags.
// Returns a *StructError describing every failed field, or nil.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validation called with invalid value: %w", err)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	se := &StructError{fieldErrors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		se.fieldErrors = append(se.fieldErrors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			message: fieldMessage(fe),
		})
	}
	return se
}

// fieldMessage builds a readable message for one field failure.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte", "min":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
