// Package catalog provides the static template catalog: per-platform creative
// templates that preset an aspect ratio and a prompt suffix. Pure data, no
// behavior beyond lookup.
package catalog

import (
	_ "embed"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var rawCatalog []byte

type Platform struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Icon  string `yaml:"icon"`
}

type Template struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Platform     string            `yaml:"platform"`
	AspectRatio  model.AspectRatio `yaml:"aspect_ratio"`
	PromptSuffix string            `yaml:"prompt_suffix"`
	Icon         string            `yaml:"icon"`
}

type catalog struct {
	Platforms []Platform  `yaml:"platforms"`
	Templates []*Template `yaml:"templates"`
}

var (
	loadOnce sync.Once
	loaded   catalog
	loadErr  error
)

func load() (catalog, error) {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(rawCatalog, &loaded); err != nil {
			loadErr = goerr.Wrap(err, "failed to parse template catalog")
			return
		}
		for _, tmpl := range loaded.Templates {
			if err := tmpl.AspectRatio.Validate(); err != nil {
				loadErr = goerr.Wrap(err, "invalid template", goerr.V("template_id", tmpl.ID))
				return
			}
		}
	})
	return loaded, loadErr
}

// Platforms returns all platforms in catalog order
func Platforms() ([]Platform, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}
	return c.Platforms, nil
}

// ByPlatform returns templates for the given platform ID, in catalog order
func ByPlatform(platformID string) ([]*Template, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}
	var result []*Template
	for _, tmpl := range c.Templates {
		if tmpl.Platform == platformID {
			result = append(result, tmpl)
		}
	}
	return result, nil
}

// Find returns the template with the given ID
func Find(id string) (*Template, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}
	for _, tmpl := range c.Templates {
		if tmpl.ID == id {
			return tmpl, nil
		}
	}
	return nil, goerr.New("template not found", goerr.V("template_id", id))
}

// All returns every template in catalog order
func All() ([]*Template, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}
	return c.Templates, nil
}

// Apply joins the user prompt with the template's prompt suffix for
// submission. The original user prompt is what history retains.
func (t *Template) Apply(prompt string) string {
	if t == nil || t.PromptSuffix == "" {
		return prompt
	}
	return prompt + ". " + t.PromptSuffix
}
