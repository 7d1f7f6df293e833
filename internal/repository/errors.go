// Package repository implements the MySQL persistence layer.  This file
// defines sentinel errors shared across repositories so handlers can map
// failure classes onto response shapes: validation, authorization,
// state-conflict, ID-generation and infrastructure failures each surface
// distinctly.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller operates on a resource owned by
// a different agency or user.  Handlers translate it to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed due to
// conflicting state, such as assigning a booking that is already assigned.
// Handlers translate it to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when the unique email index rejects an insert.
var ErrEmailExists = errors.New("email already exists")

// ErrIDGeneration is returned when business-ID assignment exhausts its
// bounded retries.  The surrounding approval is rolled back; the entity is
// never left half-approved.
var ErrIDGeneration = errors.New("id generation failed after retries")

// isDuplicateKey reports whether err is a MySQL duplicate-key failure
// (error 1062).  This is the only error class eligible for automatic retry.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
