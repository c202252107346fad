package cart

import "context"

// Store persists raw lines for one kind of scope. The device backend keys by
// device id and the user backend by user id; the two never see each other.
// Every failure is returned as a dependency error and nothing is assumed
// written.
type Store interface {
	List(ctx context.Context, scope string) ([]RawLine, error)
	// Upsert inserts the line or overwrites its quantity.
	Upsert(ctx context.Context, scope, productID string, quantity int) error
	Remove(ctx context.Context, scope, productID string) error
	Clear(ctx context.Context, scope string) error
}
