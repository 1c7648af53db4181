package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/repository"
)

func testImage(prompt string) *model.GeneratedImage {
	return &model.GeneratedImage{
		ID:          model.NewImageID(),
		ImageData:   "aGVsbG8=",
		MIMEType:    "image/png",
		Prompt:      prompt,
		CreatedAt:   time.Now(),
		AspectRatio: model.AspectSquare,
		Model:       model.ModelFreeImage,
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()

	store := repository.NewHistoryStore(kv)
	_, err := store.Load(ctx)
	gt.NoError(t, err)

	first := testImage("first")
	second := testImage("second")
	store.Append(ctx, first)
	store.Append(ctx, second)

	// A freshly re-initialized store over the same medium sees the same
	// sequence in the same order
	reloaded := repository.NewHistoryStore(kv)
	items, err := reloaded.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(items), 2)
	gt.Equal(t, items[0].ID, second.ID)
	gt.Equal(t, items[1].ID, first.ID)
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := repository.NewHistoryStore(repository.NewMemoryKV())

	for i := 0; i < 3; i++ {
		img := testImage(fmt.Sprintf("prompt %d", i))
		items := store.Append(ctx, img)
		gt.Equal(t, items[0].ID, img.ID)
	}
}

func TestHistoryCapacity(t *testing.T) {
	ctx := context.Background()
	store := repository.NewHistoryStore(repository.NewMemoryKV(), repository.WithCapacity(3))

	var last *model.GeneratedImage
	for i := 0; i < 10; i++ {
		last = testImage(fmt.Sprintf("prompt %d", i))
		items := store.Append(ctx, last)
		gt.True(t, len(items) <= 3)
	}

	items := store.Items()
	gt.Equal(t, len(items), 3)
	gt.Equal(t, items[0].ID, last.ID)
	gt.Equal(t, items[2].Prompt, "prompt 7")
}

func TestHistoryQuotaTrim(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	store := repository.NewHistoryStore(kv,
		repository.WithCapacity(50),
		repository.WithFloor(5),
	)

	for i := 0; i < 11; i++ {
		store.Append(ctx, testImage(fmt.Sprintf("prompt %d", i)))
	}
	gt.Equal(t, len(store.Items()), 11)

	// The 12th append overflows the quota: the history degrades to the floor
	kv.QuotaBytes = 1024
	items := store.Append(ctx, testImage("prompt 11"))
	gt.Equal(t, len(items), 5)

	// Newest-first order preserved among the kept entries
	gt.Equal(t, items[0].Prompt, "prompt 11")
	gt.Equal(t, items[4].Prompt, "prompt 7")
}

func TestHistoryQuotaReload(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	kv.QuotaBytes = 100 // too small even for the floor

	store := repository.NewHistoryStore(kv, repository.WithFloor(2))
	store.Append(ctx, testImage("kept in memory"))

	// The write never succeeded; a re-initialized store sees a strict
	// prefix of the in-memory state (here: nothing)
	reloaded := repository.NewHistoryStore(kv)
	items, err := reloaded.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(items), 0)
}

func TestHistoryRemove(t *testing.T) {
	ctx := context.Background()
	store := repository.NewHistoryStore(repository.NewMemoryKV())

	first := testImage("first")
	second := testImage("second")
	store.Append(ctx, first)
	store.Append(ctx, second)

	items := store.Remove(ctx, first.ID)
	gt.Equal(t, len(items), 1)
	gt.Equal(t, items[0].ID, second.ID)

	// Removing an unknown ID is a no-op
	items = store.Remove(ctx, model.ImageID("no-such-id"))
	gt.Equal(t, len(items), 1)
}

func TestHistoryCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	gt.NoError(t, kv.Set(ctx, repository.DefaultHistoryKey, "{not json"))

	store := repository.NewHistoryStore(kv)
	items, err := store.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(items), 0)
}

func TestHistoryMissingKey(t *testing.T) {
	ctx := context.Background()
	store := repository.NewHistoryStore(repository.NewMemoryKV())
	items, err := store.Load(ctx)
	gt.NoError(t, err)
	gt.Equal(t, len(items), 0)
}
