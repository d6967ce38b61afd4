package subscription

import "context"

// Repo is the durable subscription registry. Implementations must tolerate
// concurrent Upsert/Delete on the same key without external locking:
// Upsert is last-write-wins, Delete is idempotent.
type Repo interface {
	// Upsert persists or overwrites the record for (OwnerID, Endpoint),
	// refreshing UpdatedAt and ExpiresAt. No precondition on prior state.
	Upsert(ctx context.Context, s *Subscription) error

	// Delete removes the record for (ownerID, endpoint). Deleting a record
	// that does not exist is not an error.
	Delete(ctx context.Context, ownerID, endpoint string) error

	// ListByOwner returns every live subscription for one owner, including
	// multiple devices. Expired records are excluded.
	ListByOwner(ctx context.Context, ownerID string) ([]*Subscription, error)

	// ListAll pages through every live subscription. cursor is "" for the
	// first page; the returned cursor is "" when the scan is exhausted.
	// Callers must page rather than materialize the whole registry.
	ListAll(ctx context.Context, cursor string, limit int) ([]*Subscription, string, error)
}
