package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/usecase/session"
	"github.com/urfave/cli/v3"
)

func remixCommand() *cli.Command {
	var (
		cfg     config
		pro     bool
		enhance bool
		refine  bool
		output  string
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "pro",
			Usage:       "Use the pro model tier",
			Destination: &pro,
		},
		&cli.BoolFlag{
			Name:        "enhance",
			Aliases:     []string{"e"},
			Usage:       "Rewrite the prompt with the enhancer model before generating",
			Destination: &enhance,
		},
		&cli.BoolFlag{
			Name:        "refine",
			Usage:       "Also use the source image as an identity reference",
			Destination: &refine,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the generated image to this file",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:      "remix",
		Usage:     "Regenerate using a past result's prompt and aspect ratio",
		ArgsUsage: "<image-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := model.ImageID(c.Args().First())
			if id == "" {
				return goerr.New("image ID is required")
			}

			ctx = cfg.loggedContext(ctx)

			sess, err := cfg.newSession(ctx, &consoleNotifier{w: c.Root().Writer})
			if err != nil {
				return err
			}

			var source *model.GeneratedImage
			for _, item := range sess.History() {
				if item.ID == id {
					source = item
					break
				}
			}
			if source == nil {
				return goerr.New("history entry not found", goerr.V("id", id))
			}

			sess.RemixFromHistory(source)
			if refine {
				if err := sess.RefineFromCurrent(source); err != nil {
					return err
				}
			}

			if pro {
				if err := sess.ToggleTier(ctx); err != nil {
					return err
				}
			}

			seed := sess.Remix()
			sp := newSpinner("generating...")
			sp.Start()
			out, err := sess.Submit(ctx, session.SubmitInput{
				Prompt:      seed.Prompt,
				AspectRatio: seed.AspectRatio,
				Enhance:     enhance,
			})
			sp.Stop()

			if err != nil {
				return err
			}

			w := c.Root().Writer
			printItem(w, out.Image)

			if output != "" {
				if err := saveImage(out.Image, output); err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved to %s\n", output)
			}

			return nil
		},
	}
}
