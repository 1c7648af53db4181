package mcp

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/repository"
	"github.com/m-mizutani/lumina/pkg/usecase/generate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mockGenerator struct {
	input generate.Input
}

func (m *mockGenerator) Generate(ctx context.Context, input generate.Input) (*generate.Output, error) {
	m.input = input
	return &generate.Output{
		Image: &model.GeneratedImage{
			ID:          model.NewImageID(),
			ImageData:   base64.StdEncoding.EncodeToString([]byte("png-bytes")),
			MIMEType:    "image/png",
			Prompt:      input.Prompt,
			CreatedAt:   time.Now(),
			AspectRatio: input.AspectRatio,
			Model:       input.Tier.ModelName(),
		},
		Sources: []string{"https://example.com/source"},
	}, nil
}

func TestGenerateImageTool(t *testing.T) {
	ctx := context.Background()
	gen := &mockGenerator{}
	store := repository.NewHistoryStore(repository.NewMemoryKV())
	srv := New(gen, store)

	result, _, err := srv.generateImage(ctx, &mcp.CallToolRequest{}, &generateParams{
		Prompt:      "a gopher logo",
		AspectRatio: "16:9",
		Pro:         true,
	})
	gt.NoError(t, err)

	gt.Equal(t, gen.input.Tier, model.TierPro)
	gt.Equal(t, gen.input.AspectRatio, model.AspectWide)

	// First content part is the image, second lists grounding sources
	gt.Equal(t, len(result.Content), 2)
	img, ok := result.Content[0].(*mcp.ImageContent)
	gt.True(t, ok)
	gt.Equal(t, img.MIMEType, "image/png")
	gt.Equal(t, string(img.Data), "png-bytes")

	// The generation landed in history
	gt.Equal(t, len(store.Items()), 1)
}

func TestGenerateImageToolDefaults(t *testing.T) {
	ctx := context.Background()
	gen := &mockGenerator{}
	srv := New(gen, repository.NewHistoryStore(repository.NewMemoryKV()))

	_, _, err := srv.generateImage(ctx, &mcp.CallToolRequest{}, &generateParams{
		Prompt: "a gopher logo",
	})
	gt.NoError(t, err)
	gt.Equal(t, gen.input.Tier, model.TierFree)
	gt.Equal(t, gen.input.AspectRatio, model.AspectSquare)

	_, _, err = srv.generateImage(ctx, &mcp.CallToolRequest{}, &generateParams{Prompt: "  "})
	gt.Error(t, err)
}

func TestHistoryTools(t *testing.T) {
	ctx := context.Background()
	store := repository.NewHistoryStore(repository.NewMemoryKV())
	srv := New(&mockGenerator{}, store)

	img := &model.GeneratedImage{
		ID:          model.NewImageID(),
		ImageData:   "aW1n",
		MIMEType:    "image/png",
		Prompt:      "stored prompt",
		CreatedAt:   time.Now(),
		AspectRatio: model.AspectSquare,
		Model:       model.ModelFreeImage,
	}
	store.Append(ctx, img)

	result, _, err := srv.listHistory(ctx, &mcp.CallToolRequest{}, &emptyParams{})
	gt.NoError(t, err)
	text, ok := result.Content[0].(*mcp.TextContent)
	gt.True(t, ok)
	gt.S(t, text.Text).Contains("stored prompt")
	gt.S(t, text.Text).Contains(string(img.ID))

	_, _, err = srv.deleteHistory(ctx, &mcp.CallToolRequest{}, &deleteParams{ID: string(img.ID)})
	gt.NoError(t, err)
	gt.Equal(t, len(store.Items()), 0)
}

func TestGenerateSchema(t *testing.T) {
	schema := generateSchema()
	gt.Equal(t, schema.Type, "object")
	gt.Equal(t, schema.Required, []string{"prompt"})
	gt.Equal(t, len(schema.Properties["aspect_ratio"].Enum), 5)
}
