package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/utils/logging"
)

const (
	// DefaultHistoryKey is the fixed key the serialized history lives under
	DefaultHistoryKey = "lumina_history_v3"

	// DefaultCapacity bounds the history length on append
	DefaultCapacity = 8

	// DefaultFloor is the length the history is forcibly trimmed to when a
	// write exceeds the storage quota
	DefaultFloor = 5
)

// HistoryStore keeps the bounded, newest-first generation history and writes
// it back to the KV medium on every mutation. Entries embed full image
// payloads, so the serialized form can exceed the medium's quota; on a
// quota-exceeded write the in-memory history degrades to the floor length
// rather than failing the mutation.
type HistoryStore struct {
	kv       KV
	key      string
	capacity int
	floor    int

	items []*model.GeneratedImage
}

type HistoryOption func(*HistoryStore)

func WithKey(key string) HistoryOption {
	return func(s *HistoryStore) {
		s.key = key
	}
}

func WithCapacity(n int) HistoryOption {
	return func(s *HistoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func WithFloor(n int) HistoryOption {
	return func(s *HistoryStore) {
		if n > 0 {
			s.floor = n
		}
	}
}

func NewHistoryStore(kv KV, opts ...HistoryOption) *HistoryStore {
	s := &HistoryStore{
		kv:       kv,
		key:      DefaultHistoryKey,
		capacity: DefaultCapacity,
		floor:    DefaultFloor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted history. A missing key yields an empty history;
// malformed stored data is logged and reset to empty, never propagated.
func (s *HistoryStore) Load(ctx context.Context) ([]*model.GeneratedImage, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.items = nil
		return s.Items(), nil
	}

	var items []*model.GeneratedImage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logging.From(ctx).Warn("discarding unparseable history", "error", err, "key", s.key)
		s.items = nil
		return s.Items(), nil
	}

	s.items = items
	return s.Items(), nil
}

// Append prepends the image, truncates to capacity, and persists. The
// returned slice is the new authoritative state.
func (s *HistoryStore) Append(ctx context.Context, img *model.GeneratedImage) []*model.GeneratedImage {
	s.items = append([]*model.GeneratedImage{img}, s.items...)
	if len(s.items) > s.capacity {
		s.items = s.items[:s.capacity]
	}
	s.persist(ctx)
	return s.Items()
}

// Remove deletes the entry with the given ID, if present, and persists.
func (s *HistoryStore) Remove(ctx context.Context, id model.ImageID) []*model.GeneratedImage {
	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(s.items) {
		return s.Items()
	}
	s.items = kept
	s.persist(ctx)
	return s.Items()
}

// Items returns a copy of the current in-memory history, newest first
func (s *HistoryStore) Items() []*model.GeneratedImage {
	out := make([]*model.GeneratedImage, len(s.items))
	copy(out, s.items)
	return out
}

func (s *HistoryStore) persist(ctx context.Context) {
	if err := s.write(ctx); err == nil {
		return
	} else if !errors.Is(err, model.ErrStorageQuota) {
		logging.From(ctx).Warn("failed to persist history", "error", err, "key", s.key)
		return
	}

	// Quota exceeded: lossy degradation to the floor, then one rewrite
	if len(s.items) > s.floor {
		s.items = s.items[:s.floor]
	}
	logging.From(ctx).Warn("storage quota exceeded, trimming history",
		"key", s.key, "floor", s.floor)

	if err := s.write(ctx); err != nil {
		logging.From(ctx).Warn("failed to persist trimmed history", "error", err, "key", s.key)
	}
}

func (s *HistoryStore) write(ctx context.Context) error {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(raw))
}
