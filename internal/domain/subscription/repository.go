package subscription

import (
	"context"
)

// Repository provides access to the per-user billing record store.
// Implementations must apply updates field-by-field; a whole-document
// overwrite from a stale read is a contract violation.
type Repository interface {
	// GetByUser retrieves the record for a user. Returns an error marked
	// ierr.ErrNotFound when no record exists.
	GetByUser(ctx context.Context, userID string) (*Record, error)

	// Create inserts a new record. Returns an error marked
	// ierr.ErrAlreadyExists when a record for the user is already present.
	Create(ctx context.Context, record *Record) error

	// Update applies a partial update to an existing record. Returns an
	// error marked ierr.ErrNotFound when no record exists for the user.
	Update(ctx context.Context, userID string, update *RecordUpdate) error
}
