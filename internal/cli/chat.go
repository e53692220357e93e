package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
	"github.com/matzehuels/socraticboard/pkg/tutor"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

type chatOpts struct {
	problem     string
	problemFile string
	image       string
	engine      string
	width       float64
	height      float64
}

// chatCommand creates the chat command.
func (c *CLI) chatCommand() *cobra.Command {
	var opts chatOpts

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Run one tutor turn from the terminal",
		Long: `Run one tutor turn from the terminal.

Without a message the tutor greets the student. Proposed annotations are
placed against a virtual viewport and listed after the reply.`,
		Example: `  socraticboard chat --problem "Solve 2x + 3 = 7"
  socraticboard chat "I think x is 5" --problem "Solve 2x + 3 = 7" --engine anthropic
  socraticboard chat "where do I start?" --problem-file hw.txt --image hw.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := ""
			if len(args) == 1 {
				message = args[0]
			}
			return c.runChat(cmd, message, opts)
		},
	}

	cmd.Flags().StringVar(&opts.problem, "problem", "", "problem statement")
	cmd.Flags().StringVar(&opts.problemFile, "problem-file", "", "read the problem statement from a file")
	cmd.Flags().StringVar(&opts.image, "image", "", "problem image (png, jpeg, gif or webp)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "tutor engine: anthropic, gemini or offline (overrides config)")
	registerEngineCompletion(cmd)
	cmd.Flags().Float64Var(&opts.width, "width", 1280, "virtual viewport width")
	cmd.Flags().Float64Var(&opts.height, "height", 800, "virtual viewport height")

	return cmd
}

func (c *CLI) runChat(cmd *cobra.Command, message string, opts chatOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.engine != "" {
		cfg.Tutor.Engine = opts.engine
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	engine, err := c.newEngine(cfg)
	if err != nil {
		return err
	}

	problem, err := opts.readProblem()
	if err != nil {
		return err
	}
	ws, err := workspace.New(problem, workspace.WithLogger(logger))
	if err != nil {
		return err
	}
	if _, err := ws.SetViewport(ctx, geometry.Viewport{Width: opts.width, Height: opts.height}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	spin := newSpinner(ctx, "Tutor is thinking...")
	spin.Start()

	res, err := ws.Chat(ctx, engine, message, func(ev workspace.ChatEvent) error {
		spin.Stop()
		if ev.Type == tutor.EventText {
			_, err := fmt.Fprint(out, ev.Text)
			return err
		}
		return nil
	})
	spin.Stop()
	fmt.Fprintln(out)
	if err != nil {
		printError("%s", apperr.UserMessage(err))
		return err
	}

	if pending := ws.Pending(); len(pending) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderPlacements(pending))
	}
	logger.Debug("turn complete", "engine", engine.Name(), "greeting", res.Greeting, "proposed", len(res.Proposed))
	return nil
}

// readProblem assembles the problem from flags.
func (o chatOpts) readProblem() (workspace.Problem, error) {
	p := workspace.Problem{Text: o.problem}
	if o.problemFile != "" {
		data, err := os.ReadFile(o.problemFile)
		if err != nil {
			return p, err
		}
		p.Text = strings.TrimSpace(string(data))
	}
	if o.image != "" {
		img, err := readImage(o.image)
		if err != nil {
			return p, err
		}
		p.Image = img
	}
	if p.Text == "" && p.Image == nil {
		return p, apperr.New(apperr.ErrCodeInvalidInput, "a problem is required (--problem, --problem-file or --image)")
	}
	return p, nil
}

func readImage(path string) (*tutor.Image, error) {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	switch mediaType {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
	default:
		return nil, apperr.New(apperr.ErrCodeUnsupported, "unsupported image type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &tutor.Image{MediaType: mediaType, Data: data}, nil
}
