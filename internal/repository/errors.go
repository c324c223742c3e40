// Package repository defines the data access layer and the sentinel error
// values shared across repositories.  Handlers translate these into HTTP
// responses: ErrNotFound -> 404, ErrForbidden -> 403, ErrInvalidOperation
// -> 400.  ErrInvalidOperation covers every domain-rule violation (wrong
// status for a transition, deadline passed, cancelling completed work) so
// call sites stay uniform.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and they are not an admin.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidOperation is returned when a domain rule rejects the request:
// an illegal status transition, a join past the deadline, or cancelling a
// completed registration.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrUsernameExists is returned when registering with a taken username.
var ErrUsernameExists = errors.New("username already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062), used to detect unique-constraint races.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
