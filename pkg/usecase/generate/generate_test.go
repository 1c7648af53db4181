package generate_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/usecase/generate"
	"google.golang.org/genai"
)

// Mock Gemini adapter capturing the transmitted request
type mockGemini struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig

	resp *genai.GenerateContentResponse
	err  error
}

func (m *mockGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.model = model
	m.contents = contents
	m.config = config
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "here you go"},
						{InlineData: &genai.Blob{Data: data, MIMEType: "image/png"}},
					},
				},
			},
		},
	}
}

func textOnlyResponse() *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "I cannot generate that image."},
					},
				},
			},
		},
	}
}

func ref(t *testing.T, raw string) model.ReferenceImage {
	t.Helper()
	return model.ReferenceImage{
		Data:     base64.StdEncoding.EncodeToString([]byte(raw)),
		MIMEType: "image/png",
	}
}

func transmittedText(t *testing.T, gemini *mockGemini) string {
	t.Helper()
	gt.Equal(t, len(gemini.contents), 1)
	parts := gemini.contents[0].Parts
	gt.True(t, len(parts) > 0)

	last := parts[len(parts)-1]
	gt.True(t, last.Text != "")
	return last.Text
}

func TestGenerateFreeTier(t *testing.T) {
	gemini := &mockGemini{resp: imageResponse([]byte("png-bytes"))}
	uc := generate.New(gemini)

	out, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "a red bicycle",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
	})
	gt.NoError(t, err)

	// Free tier: no image size, no grounding tool
	gt.Equal(t, gemini.model, model.ModelFreeImage)
	gt.Equal(t, gemini.config.ImageConfig.AspectRatio, "1:1")
	gt.Equal(t, gemini.config.ImageConfig.ImageSize, "")
	gt.Equal(t, len(gemini.config.Tools), 0)

	// No references: text transmitted unmodified
	gt.Equal(t, transmittedText(t, gemini), "a red bicycle")

	gt.Equal(t, out.Image.Model, model.ModelFreeImage)
	gt.Equal(t, out.Image.Prompt, "a red bicycle")
	gt.Equal(t, out.Image.AspectRatio, model.AspectSquare)
	gt.Equal(t, out.Image.MIMEType, "image/png")
	gt.Equal(t, out.Image.ImageData, base64.StdEncoding.EncodeToString([]byte("png-bytes")))
	gt.True(t, out.Image.ID != "")
	gt.True(t, !out.Image.CreatedAt.IsZero())
}

func TestGenerateProTier(t *testing.T) {
	gemini := &mockGemini{resp: imageResponse([]byte("png-bytes"))}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "at a beach party",
		AspectRatio: model.AspectWide,
		Tier:        model.TierPro,
		References:  []model.ReferenceImage{ref(t, "a"), ref(t, "b")},
	})
	gt.NoError(t, err)

	gt.Equal(t, gemini.model, model.ModelProImage)
	gt.Equal(t, gemini.config.ImageConfig.ImageSize, "1K")
	gt.Equal(t, len(gemini.config.Tools), 1)
	gt.V(t, gemini.config.Tools[0].GoogleSearch).NotNil()

	// Two references: the directive names "two" distinct identities and
	// precedes the original prompt
	text := transmittedText(t, gemini)
	gt.S(t, text).Contains("two")
	gt.S(t, text).Contains("do not blend")
	gt.True(t, strings.HasSuffix(text, "at a beach party"))
	gt.True(t, !strings.HasPrefix(text, "at a beach party"))
}

func TestGenerateReferenceParts(t *testing.T) {
	gemini := &mockGemini{resp: imageResponse([]byte("x"))}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "portrait",
		AspectRatio: model.AspectPortrait,
		Tier:        model.TierFree,
		References:  []model.ReferenceImage{ref(t, "first"), ref(t, "second"), ref(t, "third")},
	})
	gt.NoError(t, err)

	// Inline image parts come ahead of the text part, insertion order kept
	parts := gemini.contents[0].Parts
	gt.Equal(t, len(parts), 4)
	gt.Equal(t, string(parts[0].InlineData.Data), "first")
	gt.Equal(t, string(parts[1].InlineData.Data), "second")
	gt.Equal(t, string(parts[2].InlineData.Data), "third")
	gt.True(t, parts[3].Text != "")
}

func TestGenerateSingleReferenceDirective(t *testing.T) {
	gemini := &mockGemini{resp: imageResponse([]byte("x"))}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "on a mountain",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
		References:  []model.ReferenceImage{ref(t, "a")},
	})
	gt.NoError(t, err)

	text := transmittedText(t, gemini)
	gt.S(t, text).Contains("exact identity")
	gt.True(t, strings.HasSuffix(text, "on a mountain"))
}

func TestGenerateContentBlocked(t *testing.T) {
	gemini := &mockGemini{resp: textOnlyResponse()}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "something filtered",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrContentBlocked))
}

func TestGenerateAuthorizationError(t *testing.T) {
	gemini := &mockGemini{err: goerr.New("Requested entity was not found.")}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "anything",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierPro,
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrAuthorization))
}

func TestGenerateTransportError(t *testing.T) {
	gemini := &mockGemini{err: goerr.New("connection reset by peer")}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "anything",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrTransport))

	// "entity not found" on the free tier is a transport fault, not an
	// authorization one
	gemini.err = goerr.New("Requested entity was not found.")
	_, err = uc.Generate(context.Background(), generate.Input{
		Prompt:      "anything",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
	})
	gt.True(t, errors.Is(err, model.ErrTransport))
}

func TestGenerateNotConfigured(t *testing.T) {
	uc := generate.New(nil)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "anything",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestGenerateInvalidInput(t *testing.T) {
	gemini := &mockGemini{resp: imageResponse([]byte("x"))}
	uc := generate.New(gemini)

	_, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "anything",
		AspectRatio: model.AspectRatio("2:1"),
		Tier:        model.TierFree,
	})
	gt.Error(t, err)

	refs := []model.ReferenceImage{ref(t, "a"), ref(t, "b"), ref(t, "c"), ref(t, "d")}
	_, err = uc.Generate(context.Background(), generate.Input{
		Prompt:      "anything",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierFree,
		References:  refs,
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrReferenceLimit))
}

func TestGenerateGroundingSources(t *testing.T) {
	resp := imageResponse([]byte("x"))
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/a"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b"}},
			{},
		},
	}

	gemini := &mockGemini{resp: resp}
	uc := generate.New(gemini)

	out, err := uc.Generate(context.Background(), generate.Input{
		Prompt:      "current weather poster",
		AspectRatio: model.AspectSquare,
		Tier:        model.TierPro,
	})
	gt.NoError(t, err)
	gt.Equal(t, out.Sources, []string{"https://example.com/a", "https://example.com/b"})
}
