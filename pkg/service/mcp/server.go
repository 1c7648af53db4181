// Package mcp exposes generation and history operations as MCP tools over
// stdio, so any MCP-capable host can drive the studio.
package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/repository"
	"github.com/m-mizutani/lumina/pkg/usecase/generate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Generator interface {
	Generate(ctx context.Context, input generate.Input) (*generate.Output, error)
}

type Server struct {
	generator Generator
	store     *repository.HistoryStore
}

func New(generator Generator, store *repository.HistoryStore) *Server {
	return &Server{
		generator: generator,
		store:     store,
	}
}

type generateParams struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Pro         bool   `json:"pro,omitempty"`
}

type deleteParams struct {
	ID string `json:"id"`
}

type emptyParams struct{}

// NewServer builds the MCP server with all tools registered
func (s *Server) NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lumina",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate a social-media-ready image from a text prompt",
		InputSchema: generateSchema(),
	}, s.generateImage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_history",
		Description: "List past generations, newest first",
	}, s.listHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_history",
		Description: "Delete a past generation by ID",
	}, s.deleteHistory)

	return server
}

// Run serves the tools over stdio until the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.store.Load(ctx); err != nil {
		return goerr.Wrap(err, "failed to load history")
	}

	if err := s.NewServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server failed")
	}
	return nil
}

func generateSchema() *jsonschema.Schema {
	ratios := make([]any, 0, len(model.AspectRatios()))
	for _, r := range model.AspectRatios() {
		ratios = append(ratios, string(r))
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"prompt": {
				Type:        "string",
				Description: "Text prompt describing the image to generate",
			},
			"aspect_ratio": {
				Type:        "string",
				Description: "Output aspect ratio",
				Enum:        ratios,
			},
			"pro": {
				Type:        "boolean",
				Description: "Use the pro model tier (1K output, search grounding)",
			},
		},
		Required: []string{"prompt"},
	}
}

func (s *Server) generateImage(ctx context.Context, req *mcp.CallToolRequest, params *generateParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Prompt) == "" {
		return nil, nil, goerr.New("prompt is required")
	}

	aspect := model.AspectRatio(params.AspectRatio)
	if params.AspectRatio == "" {
		aspect = model.AspectSquare
	}

	tier := model.TierFree
	if params.Pro {
		tier = model.TierPro
	}

	out, err := s.generator.Generate(ctx, generate.Input{
		Prompt:      params.Prompt,
		AspectRatio: aspect,
		Tier:        tier,
	})
	if err != nil {
		return nil, nil, err
	}

	s.store.Append(ctx, out.Image)

	data, err := base64.StdEncoding.DecodeString(out.Image.ImageData)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to decode generated image")
	}

	content := []mcp.Content{
		&mcp.ImageContent{
			Data:     data,
			MIMEType: out.Image.MIMEType,
		},
	}
	if len(out.Sources) > 0 {
		content = append(content, &mcp.TextContent{
			Text: "Grounding sources:\n" + strings.Join(out.Sources, "\n"),
		})
	}

	return &mcp.CallToolResult{Content: content}, nil, nil
}

func (s *Server) listHistory(ctx context.Context, req *mcp.CallToolRequest, params *emptyParams) (*mcp.CallToolResult, any, error) {
	items := s.store.Items()
	if len(items) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "History is empty."}},
		}, nil, nil
	}

	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "%s  [%s, %s]  %s  %q\n",
			item.ID, item.Model, item.AspectRatio,
			item.CreatedAt.Format(time.RFC3339), item.Prompt)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: sb.String()}},
	}, nil, nil
}

func (s *Server) deleteHistory(ctx context.Context, req *mcp.CallToolRequest, params *deleteParams) (*mcp.CallToolResult, any, error) {
	if params.ID == "" {
		return nil, nil, goerr.New("id is required")
	}

	items := s.store.Remove(ctx, model.ImageID(params.ID))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("Deleted. %d entries remain.", len(items)),
		}},
	}, nil, nil
}
