package storage

import "context"

// CollectionInquiries is the logical collection holding inquiry records.
const CollectionInquiries = "inquiries"

// Store is keyed get/set over named collections. Values are schemaless
// records; the store guarantees key-level atomicity per operation but no
// compare-and-swap, so concurrent read-modify-write cycles on the same key
// race and the last Set wins.
type Store interface {
	// Get returns the record for key, or nil when the key is absent.
	Get(ctx context.Context, collection, key string) (map[string]any, error)
	// Set writes the record for key, replacing any existing value.
	Set(ctx context.Context, collection, key string, value map[string]any) error
	Close() error
}
