// Package blob abstracts durable key-value storage for document metadata,
// chunk metadata, and raw embedding vectors. Keys are slash-separated paths
// like "chunks/<tenant>/<id>.json", so an implementation can target a local
// filesystem, an embedded key-value store, or a managed object store.
package blob

import "context"

// Store is a durable put/get/delete/list abstraction.
type Store interface {
	// Put writes value under key, creating or replacing it.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the value for key, and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys under the given prefix, in unspecified order.
	List(ctx context.Context, prefix string) ([]string, error)
}
