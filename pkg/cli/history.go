package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect and manage the generation history",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
			historyDeleteCommand(),
		},
	}
}

func historyListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List past generations, newest first",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggedContext(ctx)

			store, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}

			items := store.Items()
			if len(items) == 0 {
				fmt.Fprintln(c.Root().Writer, "History is empty.")
				return nil
			}

			for _, item := range items {
				printItem(c.Root().Writer, item)
			}
			return nil
		},
	}
}

func historyShowCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the stored image to this file",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show one history entry",
		ArgsUsage: "<image-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := model.ImageID(c.Args().First())
			if id == "" {
				return goerr.New("image ID is required")
			}

			ctx = cfg.loggedContext(ctx)

			store, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}

			for _, item := range store.Items() {
				if item.ID != id {
					continue
				}

				w := c.Root().Writer
				fmt.Fprintf(w, "ID:        %s\n", item.ID)
				fmt.Fprintf(w, "Created:   %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(w, "Model:     %s\n", item.Model)
				fmt.Fprintf(w, "Aspect:    %s\n", item.AspectRatio)
				if item.TemplateName != "" {
					fmt.Fprintf(w, "Template:  %s\n", item.TemplateName)
				}
				fmt.Fprintf(w, "Prompt:    %s\n", item.Prompt)

				if output != "" {
					if err := saveImage(item, output); err != nil {
						return err
					}
					fmt.Fprintf(w, "Saved to %s\n", output)
				}
				return nil
			}

			return goerr.New("history entry not found", goerr.V("id", id))
		},
	}
}

func historyDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a history entry",
		ArgsUsage: "<image-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			id := model.ImageID(c.Args().First())
			if id == "" {
				return goerr.New("image ID is required")
			}

			ctx = cfg.loggedContext(ctx)

			store, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}

			before := len(store.Items())
			items := store.Remove(ctx, id)
			if len(items) == before {
				return goerr.New("history entry not found", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "Deleted %s (%d entries remain)\n", id, len(items))
			return nil
		},
	}
}
