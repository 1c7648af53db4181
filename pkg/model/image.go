package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type ImageID string

// NewImageID generates a new unique ImageID
func NewImageID() ImageID {
	return ImageID(uuid.New().String())
}

type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectVertical  AspectRatio = "9:16"
	AspectWide      AspectRatio = "16:9"
)

// Validate checks if the aspect ratio is one of the supported values
func (a AspectRatio) Validate() error {
	switch a {
	case AspectSquare, AspectPortrait, AspectLandscape, AspectVertical, AspectWide:
		return nil
	default:
		return goerr.New("invalid aspect ratio", goerr.V("aspect_ratio", a))
	}
}

// AspectRatios lists all supported aspect ratios
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectVertical, AspectWide}
}

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

const (
	ModelFreeImage = "gemini-2.5-flash-image"
	ModelProImage  = "gemini-3-pro-image-preview"
	ModelEnhancer  = "gemini-2.5-flash"
)

// ModelName returns the backing generative model identifier for the tier
func (t Tier) ModelName() string {
	if t == TierPro {
		return ModelProImage
	}
	return ModelFreeImage
}

// Validate checks if the tier is valid
func (t Tier) Validate() error {
	switch t {
	case TierFree, TierPro:
		return nil
	default:
		return goerr.New("invalid tier", goerr.V("tier", t))
	}
}

// GeneratedImage is one completed generation result. Immutable once created:
// entries are only ever removed from history, never mutated.
type GeneratedImage struct {
	ID           ImageID     `json:"id"`
	ImageData    string      `json:"image_data"` // base64-encoded raster data
	MIMEType     string      `json:"mime_type"`
	Prompt       string      `json:"prompt"` // original user text, pre-enhancement
	CreatedAt    time.Time   `json:"created_at"`
	AspectRatio  AspectRatio `json:"aspect_ratio"`
	Model        string      `json:"model"` // backing model identifier, verbatim
	TemplateName string      `json:"template_name,omitempty"`
}

// ReferenceImage is a user-supplied image used to bias generation toward
// preserving a subject's identity. Data is held in its transport encoding.
type ReferenceImage struct {
	Data     string `json:"data"` // base64
	MIMEType string `json:"mime_type"`
}

// MaxReferenceImages is the hard cap on concurrently staged reference images
const MaxReferenceImages = 3

// RemixSeed carries a prompt and aspect ratio forward from a history item
// into the composer
type RemixSeed struct {
	Prompt      string
	AspectRatio AspectRatio
}
