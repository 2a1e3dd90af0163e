// Package repository holds the MySQL data access layer: the room
// catalog, the reservation gateway and the account tables used for
// authentication.  The sentinel values below let handlers tell apart
// failures that are not storage errors.  ErrForbidden means the caller
// asked for a record owned by someone else; ErrConflict means a write
// collided with an existing row (e.g. a second account for one email).
package repository

import "errors"

// ErrForbidden is returned when the caller reads or changes a resource
// they do not own.  Handlers answer 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state.
// Handlers answer 409.
var ErrConflict = errors.New("conflict")
