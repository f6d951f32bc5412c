// Package storage provides blob stores for encrypted document payloads.
// A store is a durable namespace keyed by opaque locator strings; it never
// sees plaintext.
package storage

import "context"

// BlobStore persists encrypted blobs under opaque locator keys.
type BlobStore interface {
	// Put durably writes data under key. The blob must be fully written
	// before Put returns; a failed Put must not leave a readable partial
	// blob under key.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the blob bytes or common.ErrorNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the blob. Missing keys map to common.ErrorNotFound.
	Delete(ctx context.Context, key string) error
}
