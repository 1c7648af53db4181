// Package repository provides durable client-side persistence for the
// generation history: a string key-value medium plus a bounded, newest-first
// history store layered on top of it.
package repository

import "context"

// KV is a durable key-value medium with string values. Set must fail with
// model.ErrStorageQuota (wrapped) when the value does not fit the medium's
// storage quota.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value under the key, overwriting any previous value.
	Set(ctx context.Context, key string, value string) error
}
