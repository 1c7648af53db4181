package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/lumina/pkg/catalog"
	"github.com/urfave/cli/v3"
)

func templatesCommand() *cli.Command {
	var platform string

	return &cli.Command{
		Name:  "templates",
		Usage: "List available creative templates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "platform",
				Aliases:     []string{"p"},
				Usage:       "Filter by platform ID",
				Destination: &platform,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer

			platforms, err := catalog.Platforms()
			if err != nil {
				return err
			}

			for _, p := range platforms {
				if platform != "" && p.ID != platform {
					continue
				}

				templates, err := catalog.ByPlatform(p.ID)
				if err != nil {
					return err
				}
				if len(templates) == 0 {
					continue
				}

				fmt.Fprintf(w, "%s %s\n", p.Icon, p.Label)
				for _, t := range templates {
					fmt.Fprintf(w, "  %-14s %s %-16s %s\n", t.ID, t.Icon, t.Name, t.AspectRatio)
				}
			}

			return nil
		},
	}
}
