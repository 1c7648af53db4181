package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
)

// MemoryKV is an in-process KV for tests and embedding. QuotaBytes behaves
// like FileKV's quota.
type MemoryKV struct {
	QuotaBytes int
	values     map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string]string{}}
}

func (kv *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *MemoryKV) Set(ctx context.Context, key string, value string) error {
	if kv.QuotaBytes > 0 && len(value) > kv.QuotaBytes {
		return goerr.Wrap(model.ErrStorageQuota, "value exceeds storage quota",
			goerr.V("key", key),
			goerr.V("size", len(value)),
			goerr.V("quota", kv.QuotaBytes))
	}
	kv.values[key] = value
	return nil
}
