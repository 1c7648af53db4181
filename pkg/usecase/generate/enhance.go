package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/lumina/pkg/adapter"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/utils/logging"
	"google.golang.org/genai"
)

const enhanceInstruction = `You are a professional prompt engineer for state-of-the-art AI image generators. Take the user's idea and expand it into a highly detailed, descriptive, and artistic prompt. Include specifics about lighting (e.g., volumetric, cinematic), texture (e.g., detailed skin, fabric weave), camera angle (e.g., low angle, macro), and artistic style (e.g., photorealistic, cyberpunk, oil painting). Return ONLY the enhanced prompt text without any preamble.`

// Enhancer rewrites a terse user prompt into a detailed one using a
// lightweight text model. Best-effort: on any failure it returns the
// original prompt unchanged and never fails past its own boundary.
type Enhancer struct {
	gemini adapter.Gemini
	model  string
}

func NewEnhancer(gemini adapter.Gemini) *Enhancer {
	return &Enhancer{
		gemini: gemini,
		model:  model.ModelEnhancer,
	}
}

// Enhance returns the rewritten prompt, biased by how many reference
// identities are attached so interacting subjects are described realistically.
func (e *Enhancer) Enhance(ctx context.Context, prompt string, refCount int) string {
	if e == nil || e.gemini == nil {
		return prompt
	}

	instruction := enhanceInstruction
	switch {
	case refCount == 1:
		instruction += " The image will include one reference person whose identity must be kept; describe the scene around that single subject."
	case refCount > 1:
		instruction += fmt.Sprintf(" The image will include %s reference people whose identities must each be kept distinct; describe a realistic scene of %s separate individuals interacting.", countWord(refCount), countWord(refCount))
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, ""),
	}

	resp, err := e.gemini.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		logging.From(ctx).Warn("prompt enhancement failed, using original prompt", "error", err)
		return prompt
	}

	enhanced := strings.TrimSpace(resp.Text())
	if enhanced == "" {
		return prompt
	}
	return enhanced
}
