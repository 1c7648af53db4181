// Package generate implements the generation orchestrator: it assembles the
// multi-modal request against the tier's image model, invokes the remote
// capability, extracts the image result, and classifies failures.
package generate

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/adapter"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/utils/logging"
	"google.golang.org/genai"
)

// authErrorPattern marks a provider error caused by a credential that cannot
// access the requested model, typically a free-tier key against the pro model.
const authErrorPattern = "Requested entity was not found"

type UseCase struct {
	gemini adapter.Gemini
}

func New(gemini adapter.Gemini) *UseCase {
	return &UseCase{gemini: gemini}
}

// Input is one ephemeral generation request. References are owned by the
// request and never shared across concurrent attempts.
type Input struct {
	// Prompt is the text to transmit, after any enhancement and template
	// suffix. OriginalPrompt is the user's raw text retained in history;
	// when empty, Prompt is retained instead.
	Prompt         string
	OriginalPrompt string
	TemplateName   string

	AspectRatio model.AspectRatio
	Tier        model.Tier
	References  []model.ReferenceImage
}

type Output struct {
	Image *model.GeneratedImage

	// Sources holds grounding citation URIs when the pro tier used search
	// grounding. Captured best-effort, never required for success.
	Sources []string
}

func (u *UseCase) Generate(ctx context.Context, input Input) (*Output, error) {
	if u.gemini == nil {
		return nil, goerr.Wrap(model.ErrConfiguration, "gemini client is not configured")
	}
	if err := input.AspectRatio.Validate(); err != nil {
		return nil, err
	}
	if err := input.Tier.Validate(); err != nil {
		return nil, err
	}
	if len(input.References) > model.MaxReferenceImages {
		return nil, goerr.Wrap(model.ErrReferenceLimit, "too many reference images",
			goerr.V("count", len(input.References)))
	}

	contents, err := buildContents(input)
	if err != nil {
		return nil, err
	}

	modelName := input.Tier.ModelName()
	resp, err := u.gemini.GenerateContent(ctx, modelName, contents, buildConfig(input))
	if err != nil {
		if input.Tier == model.TierPro && strings.Contains(err.Error(), authErrorPattern) {
			return nil, goerr.Wrap(model.ErrAuthorization, err.Error(), goerr.V("model", modelName))
		}
		return nil, goerr.Wrap(model.ErrTransport, err.Error(), goerr.V("model", modelName))
	}

	return extractOutput(ctx, resp, input, modelName)
}

// buildContents assembles the ordered multi-modal parts: each reference image
// as an inline binary part ahead of the text part, insertion order preserved.
func buildContents(input Input) ([]*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(input.References)+1)
	for i, ref := range input.References {
		data, err := base64.StdEncoding.DecodeString(ref.Data)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid reference image encoding", goerr.V("index", i))
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     data,
				MIMEType: ref.MIMEType,
			},
		})
	}

	text := identityDirective(len(input.References)) + input.Prompt
	parts = append(parts, &genai.Part{Text: text})

	return []*genai.Content{{Parts: parts}}, nil
}

// buildConfig sets the tier-dependent request configuration: the pro tier
// gets 1K output and the search grounding tool, the free tier gets neither.
func buildConfig(input Input) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(input.AspectRatio),
		},
	}

	if input.Tier == model.TierPro {
		config.ImageConfig.ImageSize = "1K"
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	return config
}

func extractOutput(ctx context.Context, resp *genai.GenerateContentResponse, input Input, modelName string) (*Output, error) {
	var blob *genai.Blob
	var sources []string

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]

		if candidate.GroundingMetadata != nil {
			for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
				if chunk.Web != nil && chunk.Web.URI != "" {
					sources = append(sources, chunk.Web.URI)
				}
			}
		}

		if candidate.Content != nil {
			// First inline image part wins; text commentary parts are dropped
			for _, part := range candidate.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					blob = part.InlineData
					break
				}
			}
		}
	}

	if blob == nil {
		return nil, goerr.Wrap(model.ErrContentBlocked, "response contained no image part",
			goerr.V("model", modelName))
	}

	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	prompt := input.OriginalPrompt
	if prompt == "" {
		prompt = input.Prompt
	}

	logging.From(ctx).Debug("image generated",
		"model", modelName,
		"bytes", len(blob.Data),
		"sources", len(sources))

	return &Output{
		Image: &model.GeneratedImage{
			ID:           model.NewImageID(),
			ImageData:    base64.StdEncoding.EncodeToString(blob.Data),
			MIMEType:     mimeType,
			Prompt:       prompt,
			CreatedAt:    time.Now(),
			AspectRatio:  input.AspectRatio,
			Model:        modelName,
			TemplateName: input.TemplateName,
		},
		Sources: sources,
	}, nil
}
