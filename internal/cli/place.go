package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/socraticboard/pkg/workspace"
)

type placeOpts struct {
	svg    string
	asJSON bool
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var opts placeOpts

	cmd := &cobra.Command{
		Use:   "place [scenario]",
		Short: "Place a scenario's annotations and show where they land",
		Long: `Place a scenario's annotations and show where they land.

The scenario (JSON or TOML) lists a viewport and the proposals in arrival
order. Each proposal is placed in its hinted corner or the first free one.
With --svg every placed annotation is approved and the resulting canvas is
written as SVG.`,
		Example: `  socraticboard place testdata/three-cards.json
  socraticboard place scenario.toml --svg board.svg
  socraticboard place scenario.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlace(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.svg, "svg", "", "approve all annotations and write the canvas SVG to this file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print placements as JSON")

	return cmd
}

func (c *CLI) runPlace(cmd *cobra.Command, path string, opts placeOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	ws, rejected, err := sc.build(ctx, logger)
	if err != nil {
		return err
	}
	pending := ws.Pending()
	prog.done(fmt.Sprintf("Placed %d annotations", len(pending)))

	out := cmd.OutOrStdout()
	if opts.asJSON {
		if err := writeJSON(out, pending); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, renderPlacements(pending))
	}
	for _, r := range rejected {
		printWarning("annotation #%d rejected: %s", r.Index+1, r.Reason)
	}
	if !opts.asJSON && len(pending) > 0 {
		printNextStep("Review interactively", appName+" review "+path)
	}

	if opts.svg == "" {
		return nil
	}
	for _, pa := range pending {
		if _, err := ws.Approve(ctx, pa.ID); err != nil {
			return err
		}
	}
	svg, ok := ws.Screenshot(ctx)
	if !ok {
		printWarning("canvas is empty, nothing written")
		return nil
	}
	if err := os.WriteFile(opts.svg, svg, 0o644); err != nil {
		return err
	}
	printSuccess("Wrote canvas")
	printFile(opts.svg)
	return nil
}

// renderPlacements formats pending annotations as a table.
func renderPlacements(pending []workspace.PendingAnnotation) string {
	rows := make([][]string, 0, len(pending))
	for _, pa := range pending {
		x, y := "—", "—"
		if pa.Position != nil {
			x = strconv.FormatFloat(pa.Position.X, 'f', -1, 64)
			y = strconv.FormatFloat(pa.Position.Y, 'f', -1, 64)
		}
		hint := string(pa.PositionHint)
		if hint == "" {
			hint = StyleDim.Render(string(pa.Hint()))
		}
		rows = append(rows, []string{pa.ID, pa.Kind.Label(), hint, x, y, truncate(pa.Text, 48)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Kind", "Hint", "X", "Y", "Text").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 && row < len(pending) {
				return kindStyle(pending[row].Kind.Color())
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// writeJSON is shared by commands that offer --json output.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
