package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lumina/pkg/catalog"
	"github.com/m-mizutani/lumina/pkg/model"
	"github.com/m-mizutani/lumina/pkg/usecase/session"
	"github.com/urfave/cli/v3"
)

const studioHelp = `Type a prompt to generate an image, or a command:
  /pro /free            switch model tier
  /aspect <ratio>       set aspect ratio (1:1, 3:4, 4:3, 9:16, 16:9)
  /template <id>        select a template (empty to clear)
  /templates            list templates
  /enhance              toggle prompt enhancement
  /ref <path>           attach a reference image (up to 3)
  /clear                drop staged references
  /history              list past generations
  /select <id>          show a past result
  /remix <id>           stage a past prompt; submit an empty line to run it
  /refine               use the current image as an identity reference
  /delete <id>          delete a history entry
  /save <path>          write the current image to a file
  /quit                 leave the studio`

func studioCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "studio",
		Usage: "Interactive image generation session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggedContext(ctx)

			sess, err := cfg.newSession(ctx, &consoleNotifier{w: c.Root().Writer})
			if err != nil {
				return err
			}

			rl, err := readline.New("lumina> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			st := &studio{
				sess:    sess,
				w:       c.Root().Writer,
				aspect:  model.AspectSquare,
				enhance: false,
			}

			fmt.Fprintln(st.w, "Lumina studio. Type /help for commands, /quit to exit.")

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				quit, err := st.handle(ctx, strings.TrimSpace(line))
				if err != nil {
					fmt.Fprintf(st.w, "Error: %s\n", err)
				}
				if quit {
					return nil
				}
			}
		},
	}
}

// studio holds composer state around the session controller
type studio struct {
	sess    *session.Session
	w       io.Writer
	aspect  model.AspectRatio
	tmpl    *catalog.Template
	enhance bool
}

func (st *studio) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, st.submit(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(st.w, studioHelp)

	case "/pro":
		if st.sess.Tier() == model.TierFree {
			if err := st.sess.ToggleTier(ctx); err != nil {
				return false, err
			}
		}
		fmt.Fprintf(st.w, "Tier: %s\n", st.sess.Tier())

	case "/free":
		if st.sess.Tier() == model.TierPro {
			if err := st.sess.ToggleTier(ctx); err != nil {
				return false, err
			}
		}
		fmt.Fprintf(st.w, "Tier: %s\n", st.sess.Tier())

	case "/aspect":
		aspect := model.AspectRatio(arg)
		if err := aspect.Validate(); err != nil {
			return false, err
		}
		st.aspect = aspect
		fmt.Fprintf(st.w, "Aspect ratio: %s\n", st.aspect)

	case "/template":
		if arg == "" {
			st.tmpl = nil
			fmt.Fprintln(st.w, "Template cleared.")
			break
		}
		tmpl, err := catalog.Find(arg)
		if err != nil {
			return false, err
		}
		st.tmpl = tmpl
		fmt.Fprintf(st.w, "Template: %s (%s)\n", tmpl.Name, tmpl.AspectRatio)

	case "/templates":
		templates, err := catalog.All()
		if err != nil {
			return false, err
		}
		for _, t := range templates {
			fmt.Fprintf(st.w, "  %-14s %s %-16s %s\n", t.ID, t.Icon, t.Name, t.AspectRatio)
		}

	case "/enhance":
		st.enhance = !st.enhance
		fmt.Fprintf(st.w, "Prompt enhancement: %v\n", st.enhance)

	case "/ref":
		if arg == "" {
			return false, goerr.New("usage: /ref <path>")
		}
		ref, err := loadReference(arg)
		if err != nil {
			return false, err
		}
		if err := st.sess.StageReference(ref); err != nil {
			return false, nil // already notified
		}
		fmt.Fprintf(st.w, "References staged: %d\n", len(st.sess.References()))

	case "/clear":
		st.sess.ClearReferences()
		fmt.Fprintln(st.w, "References cleared.")

	case "/history":
		items := st.sess.History()
		if len(items) == 0 {
			fmt.Fprintln(st.w, "History is empty.")
			break
		}
		for _, item := range items {
			printItem(st.w, item)
		}

	case "/select":
		item, err := st.find(arg)
		if err != nil {
			return false, err
		}
		st.sess.SelectFromHistory(item)
		printItem(st.w, item)

	case "/remix":
		item, err := st.find(arg)
		if err != nil {
			return false, err
		}
		st.sess.RemixFromHistory(item)
		fmt.Fprintf(st.w, "Remix staged: %q (%s). Submit an empty line to run it.\n",
			item.Prompt, item.AspectRatio)

	case "/refine":
		current := st.sess.Current()
		if current == nil {
			return false, goerr.New("no current image; /select one first")
		}
		if err := st.sess.RefineFromCurrent(current); err != nil {
			return false, nil // already notified
		}
		fmt.Fprintf(st.w, "References staged: %d\n", len(st.sess.References()))

	case "/delete":
		item, err := st.find(arg)
		if err != nil {
			return false, err
		}
		items := st.sess.DeleteFromHistory(ctx, item.ID)
		fmt.Fprintf(st.w, "Deleted. %d entries remain.\n", len(items))

	case "/save":
		if arg == "" {
			return false, goerr.New("usage: /save <path>")
		}
		current := st.sess.Current()
		if current == nil {
			return false, goerr.New("no current image to save")
		}
		if err := saveImage(current, arg); err != nil {
			return false, err
		}
		fmt.Fprintf(st.w, "Saved to %s\n", arg)

	default:
		return false, goerr.New("unknown command; /help lists commands", goerr.V("command", cmd))
	}

	return false, nil
}

func (st *studio) submit(ctx context.Context, prompt string) error {
	aspect := st.aspect
	if prompt == "" {
		seed := st.sess.Remix()
		if seed == nil {
			return nil
		}
		prompt = seed.Prompt
		aspect = seed.AspectRatio
	}

	sp := newSpinner("generating...")
	sp.Start()
	out, err := st.sess.Submit(ctx, session.SubmitInput{
		Prompt:      prompt,
		AspectRatio: aspect,
		Template:    st.tmpl,
		Enhance:     st.enhance,
	})
	sp.Stop()

	if err != nil {
		// The session notifier already printed the classified message
		return nil
	}
	if out == nil {
		return nil
	}

	printItem(st.w, out.Image)
	for _, src := range out.Sources {
		fmt.Fprintf(st.w, "  source: %s\n", src)
	}
	return nil
}

func (st *studio) find(arg string) (*model.GeneratedImage, error) {
	if arg == "" {
		return nil, goerr.New("image ID is required")
	}
	for _, item := range st.sess.History() {
		if item.ID == model.ImageID(arg) || strings.HasPrefix(string(item.ID), arg) {
			return item, nil
		}
	}
	return nil, goerr.New("history entry not found", goerr.V("id", arg))
}
