package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
)

// FileKV stores each key as a file under a base directory. Writes go through
// a temporary file and rename so a crash never leaves a torn value.
type FileKV struct {
	dir        string
	quotaBytes int
}

type FileKVOption func(*FileKV)

// WithQuota limits the byte size of a stored value. Zero means unlimited.
func WithQuota(bytes int) FileKVOption {
	return func(kv *FileKV) {
		kv.quotaBytes = bytes
	}
}

func NewFileKV(dir string, opts ...FileKVOption) (*FileKV, error) {
	if dir == "" {
		return nil, goerr.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("dir", dir))
	}

	kv := &FileKV{dir: dir}
	for _, opt := range opts {
		opt(kv)
	}

	return kv, nil
}

func (kv *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(kv.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read value", goerr.V("key", key))
	}
	return string(data), true, nil
}

func (kv *FileKV) Set(ctx context.Context, key string, value string) error {
	if kv.quotaBytes > 0 && len(value) > kv.quotaBytes {
		return goerr.Wrap(model.ErrStorageQuota, "value exceeds storage quota",
			goerr.V("key", key),
			goerr.V("size", len(value)),
			goerr.V("quota", kv.quotaBytes))
	}

	tmp, err := os.CreateTemp(kv.dir, "."+key+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("key", key))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to write value", goerr.V("key", key))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to close temp file", goerr.V("key", key))
	}

	if err := os.Rename(tmpPath, kv.path(key)); err != nil {
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to replace value", goerr.V("key", key))
	}

	return nil
}

func (kv *FileKV) path(key string) string {
	return filepath.Join(kv.dir, key)
}
