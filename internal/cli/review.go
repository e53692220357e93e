package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// reviewCommand creates the review command.
func (c *CLI) reviewCommand() *cobra.Command {
	var svgPath string

	cmd := &cobra.Command{
		Use:   "review [scenario]",
		Short: "Approve or dismiss a scenario's annotations interactively",
		Long: `Approve or dismiss a scenario's annotations interactively.

Approved annotations become text markers on the canvas at the page position
under their card. Use --svg to write the resulting canvas.`,
		Example: `  socraticboard review scenario.json
  socraticboard review scenario.toml --svg board.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReview(cmd, args[0], svgPath)
		},
	}

	cmd.Flags().StringVar(&svgPath, "svg", "", "write the canvas SVG to this file after review")

	return cmd
}

func (c *CLI) runReview(cmd *cobra.Command, path, svgPath string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	ws, rejected, err := sc.build(ctx, logger)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		printWarning("annotation #%d rejected: %s", r.Index+1, r.Reason)
	}
	if len(ws.Pending()) == 0 {
		printInfo("No annotations to review")
		return nil
	}

	p := tea.NewProgram(NewReviewModel(ctx, ws), tea.WithContext(ctx), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.ErrOrStderr()))
	final, err := p.Run()
	if err != nil {
		return err
	}
	m := final.(ReviewModel)
	if m.Aborted {
		printWarning("Review aborted")
		return nil
	}

	printSuccess("Approved %d, dismissed %d, %d left", len(m.Result.Approved), len(m.Result.Dismissed), len(m.Items))
	if svgPath == "" {
		return nil
	}
	svg, ok := ws.Screenshot(ctx)
	if !ok {
		printWarning("canvas is empty, nothing written")
		return nil
	}
	if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
		return err
	}
	printFile(svgPath)
	return nil
}
