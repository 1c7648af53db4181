package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/catalog"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/usecase/session"
	"github.com/urfave/cli/v3"
)

func generateCommand() *cli.Command {
	var (
		cfg        config
		aspect     string
		pro        bool
		enhance    bool
		templateID string
		output     string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "aspect",
			Aliases:     []string{"a"},
			Usage:       "Aspect ratio (1:1, 3:4, 4:3, 9:16, 16:9)",
			Value:       string(model.AspectSquare),
			Destination: &aspect,
		},
		&cli.BoolFlag{
			Name:        "pro",
			Usage:       "Use the pro model tier (1K output, search grounding)",
			Destination: &pro,
		},
		&cli.BoolFlag{
			Name:        "enhance",
			Aliases:     []string{"e"},
			Usage:       "Rewrite the prompt with the enhancer model before generating",
			Destination: &enhance,
		},
		&cli.StringSliceFlag{
			Name:    "ref",
			Aliases: []string{"r"},
			Usage:   "Reference image file (repeatable, up to 3)",
		},
		&cli.StringFlag{
			Name:        "template",
			Aliases:     []string{"t"},
			Usage:       "Template ID (see 'lumina templates')",
			Destination: &templateID,
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
		Name:      "generate",
		Usage:     "Generate an image from a text prompt",
		ArgsUsage: "<prompt>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if prompt == "" {
				return goerr.New("prompt is required")
			}

			ctx = cfg.loggedContext(ctx)

			sess, err := cfg.newSession(ctx, &consoleNotifier{w: c.Root().Writer})
			if err != nil {
				return err
			}

			for _, path := range c.StringSlice("ref") {
				ref, err := loadReference(path)
				if err != nil {
					return err
				}
				if err := sess.StageReference(ref); err != nil {
					return err
				}
			}

			if pro {
				if err := sess.ToggleTier(ctx); err != nil {
					return err
				}
			}

			var tmpl *catalog.Template
			if templateID != "" {
				if tmpl, err = catalog.Find(templateID); err != nil {
					return err
				}
			}

			sp := newSpinner("generating...")
			sp.Start()
			out, err := sess.Submit(ctx, session.SubmitInput{
				Prompt:      prompt,
				AspectRatio: model.AspectRatio(aspect),
				Template:    tmpl,
				Enhance:     enhance,
			})
			sp.Stop()

			if err != nil {
				return err
			}

			w := c.Root().Writer
			printItem(w, out.Image)
			for _, src := range out.Sources {
				fmt.Fprintf(w, "  source: %s\n", src)
			}

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
