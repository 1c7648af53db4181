// Package session implements the session state controller: tier selection,
// in-flight generation status, the current result, reference-image staging,
// and history side effects. All transitions run on the caller's goroutine;
// re-entrancy of Submit is blocked by the generating flag, which is the only
// concurrency control this layer has.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/lumina/pkg/adapter"
	"github.com/m-mizutani/lumina/pkg/catalog"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/repository"
	"github.com/m-mizutani/lumina/pkg/usecase/generate"
	"github.com/m-mizutani/lumina/pkg/utils/logging"
)

type Generator interface {
	Generate(ctx context.Context, input generate.Input) (*generate.Output, error)
}

type Enhancer interface {
	Enhance(ctx context.Context, prompt string, refCount int) string
}

// Notifier receives user-visible notifications. The session controller is the
// sole translator from error kind to message text.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type NopNotifier struct{}

func (NopNotifier) Success(msg string) {}
func (NopNotifier) Error(msg string)   {}

type Session struct {
	store     *repository.HistoryStore
	generator Generator
	enhancer  Enhancer
	auth      adapter.Authorizer
	notifier  Notifier

	tier       model.Tier
	generating bool
	current    *model.GeneratedImage
	references []model.ReferenceImage
	remix      *model.RemixSeed
	lastError  string
}

type NewInput struct {
	Store     *repository.HistoryStore
	Generator Generator
	Enhancer  Enhancer           // optional
	Auth      adapter.Authorizer // optional, defaults to NopAuthorizer
	Notifier  Notifier           // optional
}

func New(input NewInput) *Session {
	s := &Session{
		store:     input.Store,
		generator: input.Generator,
		enhancer:  input.Enhancer,
		auth:      input.Auth,
		notifier:  input.Notifier,
		tier:      model.TierFree,
	}
	if s.auth == nil {
		s.auth = adapter.NopAuthorizer{}
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	return s
}

func (s *Session) Tier() model.Tier                   { return s.tier }
func (s *Session) Generating() bool                   { return s.generating }
func (s *Session) Current() *model.GeneratedImage     { return s.current }
func (s *Session) References() []model.ReferenceImage { return s.references }
func (s *Session) Remix() *model.RemixSeed            { return s.remix }
func (s *Session) LastError() string                  { return s.lastError }

// Load restores the persisted history into the store
func (s *Session) Load(ctx context.Context) ([]*model.GeneratedImage, error) {
	return s.store.Load(ctx)
}

// History returns the current in-memory history, newest first
func (s *Session) History() []*model.GeneratedImage {
	return s.store.Items()
}

// ToggleTier switches between the free and pro tiers. Dropping to free is
// unconditional; moving to pro flips only once a credential is observed,
// re-checking after the authorization flow has run.
func (s *Session) ToggleTier(ctx context.Context) error {
	if s.tier == model.TierPro {
		s.tier = model.TierFree
		return nil
	}

	ok, err := s.auth.HasCredential(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if err := s.auth.RequestCredential(ctx); err != nil {
			return err
		}
		if ok, err = s.auth.HasCredential(ctx); err != nil {
			return err
		}
	}

	if !ok {
		s.notifier.Error("Pro tier requires an authorized API key.")
		return nil
	}

	s.tier = model.TierPro
	return nil
}

// StageReference adds a reference image to the staging area, capped at
// model.MaxReferenceImages. A rejected add leaves state unchanged.
func (s *Session) StageReference(ref model.ReferenceImage) error {
	if len(s.references) >= model.MaxReferenceImages {
		s.notifier.Error("Up to 3 reference images can be attached.")
		return model.ErrReferenceLimit
	}
	s.references = append(s.references, ref)
	return nil
}

// ClearReferences drops all staged reference images
func (s *Session) ClearReferences() {
	s.references = nil
}

type SubmitInput struct {
	Prompt      string
	AspectRatio model.AspectRatio
	Template    *catalog.Template // optional: overrides aspect, appends suffix
	Enhance     bool
}

// Submit runs one generation attempt. It is a no-op when the prompt is blank
// or another attempt is in flight. The generating flag is always cleared on
// completion, success or failure.
func (s *Session) Submit(ctx context.Context, input SubmitInput) (*generate.Output, error) {
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" || s.generating {
		return nil, nil
	}

	s.generating = true
	defer func() { s.generating = false }()
	s.lastError = ""

	aspect := input.AspectRatio
	templateName := ""
	if input.Template != nil {
		aspect = input.Template.AspectRatio
		templateName = input.Template.Name
	}

	final := prompt
	if input.Enhance && s.enhancer != nil {
		final = s.enhancer.Enhance(ctx, final, len(s.references))
	}
	final = input.Template.Apply(final)

	out, err := s.generator.Generate(ctx, generate.Input{
		Prompt:         final,
		OriginalPrompt: prompt,
		TemplateName:   templateName,
		AspectRatio:    aspect,
		Tier:           s.tier,
		References:     s.references,
	})
	if err != nil {
		msg := s.describe(err)
		if errors.Is(err, model.ErrAuthorization) && s.tier == model.TierPro {
			// Downgrade only; re-authorization is left to an explicit toggle
			s.tier = model.TierFree
		}
		s.lastError = msg
		s.notifier.Error(msg)
		logging.From(ctx).Debug("generation attempt failed", "error", err)
		return nil, err
	}

	s.current = out.Image
	s.store.Append(ctx, out.Image)
	s.references = nil
	s.remix = nil
	s.notifier.Success("Image generated.")
	return out, nil
}

// SelectFromHistory shows a past result without touching reference staging
func (s *Session) SelectFromHistory(img *model.GeneratedImage) {
	s.current = img
}

// RemixFromHistory stages the item's prompt and aspect ratio as the pending
// remix seed for the composer. currentImage and references are untouched.
func (s *Session) RemixFromHistory(img *model.GeneratedImage) {
	s.remix = &model.RemixSeed{
		Prompt:      img.Prompt,
		AspectRatio: img.AspectRatio,
	}
}

// RefineFromCurrent stages the image's own payload as an identity reference
// for the next submission
func (s *Session) RefineFromCurrent(img *model.GeneratedImage) error {
	return s.StageReference(model.ReferenceImage{
		Data:     img.ImageData,
		MIMEType: img.MIMEType,
	})
}

// DeleteFromHistory removes the entry and clears the current image when it
// was the deleted one
func (s *Session) DeleteFromHistory(ctx context.Context, id model.ImageID) []*model.GeneratedImage {
	items := s.store.Remove(ctx, id)
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return items
}

// describe maps an internal error kind to its user-facing message
func (s *Session) describe(err error) string {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return "API key is not configured. Set GEMINI_API_KEY and try again."
	case errors.Is(err, model.ErrAuthorization):
		return "Pro model error: your current API key doesn't have access to the pro image model. Re-select a paid-tier key."
	case errors.Is(err, model.ErrContentBlocked):
		return "Content generation was blocked by safety filters. Edit the prompt and try again."
	default:
		return err.Error()
	}
}
