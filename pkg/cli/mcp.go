package cli

import (
	"context"

	mcpservice "github.com/m-mizutani/lumina/pkg/service/mcp"
	"github.com/m-mizutani/lumina/pkg/usecase/generate"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve generation and history tools over MCP (stdio)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggedContext(ctx)

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			store, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}

			return mcpservice.New(generate.New(gemini), store).Run(ctx)
		},
	}
}
