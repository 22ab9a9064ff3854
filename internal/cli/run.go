package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/declutter/pkg/errors"
	"github.com/matzehuels/declutter/pkg/pipeline"
	"github.com/matzehuels/declutter/pkg/scene"
)

// runFlags holds flags shared by run and view.
type runFlags struct {
	style        string
	pan          string
	name         string
	hideUnplaced bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.style, "style", "", "TOML style file replacing the scene's groups and sprites")
	cmd.Flags().StringVar(&f.pan, "pan", "", "move the viewport by dx,dy pixels before generalizing")
	cmd.Flags().StringVar(&f.name, "name", "", "name placements are saved under (default: scene name)")
	cmd.Flags().BoolVar(&f.hideUnplaced, "hide-unplaced", false, "hide markers that end without a placement")
}

// options loads the style and converts the flags into pipeline options.
func (f *runFlags) options() (pipeline.Options, error) {
	opts := pipeline.Options{
		Name:         f.name,
		HideUnplaced: f.hideUnplaced,
	}
	var err error
	if opts.PanX, opts.PanY, err = parsePan(f.pan); err != nil {
		return opts, err
	}
	if f.style != "" {
		if opts.Style, err = scene.LoadStyle(f.style); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// parsePan parses "dx,dy". An empty string means no pan.
func parsePan(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid pan %q (want dx,dy)", s)
	}
	dx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pan %q", s)
	}
	dy, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pan %q", s)
	}
	return dx, dy, nil
}

// runCommand creates the run command for one-shot generalization.
func (c *CLI) runCommand() *cobra.Command {
	var (
		flags   runFlags
		format  string
		output  string
		refresh bool
		noState bool
		list    bool
		remote  remoteFlags
	)

	cmd := &cobra.Command{
		Use:   "run <scene.json>",
		Short: "Generalize the markers of a scene",
		Long: `Generalize the markers of a scene file and report which are visible.

Placements are saved in the cache directory under the scene name, so a
second run with a panned viewport keeps the markers that were shown.`,
		Example: `  declutter run city.json
  declutter run city.json --pan 64,0 --list
  declutter run city.json --style night.toml --format json -o result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			opts.Refresh = refresh
			if refresh && noState {
				printWarning("--refresh has no effect with --no-state")
			}
			opts.Logger = loggerFromContext(cmd.Context())

			sc, err := scene.LoadScene(args[0])
			if err != nil {
				return err
			}

			prog := newProgress(opts.Logger)
			var result *pipeline.Result
			if remote.server != "" {
				result, err = remote.execute(cmd.Context(), sc, opts)
			} else {
				result, err = c.execute(cmd.Context(), sc, opts, noState)
			}
			if err != nil {
				return err
			}
			prog.done("Generalized", "scene", result.Scene, "visible", result.Visible())

			if err := writeResult(result, format, output, list); err != nil {
				return err
			}
			if format == pipeline.FormatText && output == "" {
				printRunHints(args[0])
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatText, "output format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore saved placements")
	cmd.Flags().BoolVar(&noState, "no-state", false, "neither read nor save placements")
	cmd.Flags().BoolVar(&list, "list", false, "list every marker in text output")
	remote.register(cmd)

	return cmd
}

// execute runs the pipeline locally with file-backed placements.
func (c *CLI) execute(ctx context.Context, sc *scene.Scene, opts pipeline.Options, noState bool) (*pipeline.Result, error) {
	runner, err := c.newRunner(noState)
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	return runner.Execute(ctx, sc, opts)
}

func writeResult(result *pipeline.Result, format, output string, list bool) error {
	if format == pipeline.FormatJSON {
		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if output != "" {
			printSuccess("Wrote result")
			printFile(output)
		}
		return nil
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(renderMarkerTable(result)+"\n"), 0644); err != nil {
			return err
		}
		printSuccess("Wrote result")
		printFile(output)
		return nil
	}

	printSuccess("%s", StyleTitle.Render(result.Scene))
	printStats(result)
	b := result.Bounds
	printKeyValue("Viewport", fmt.Sprintf("(%d,%d) → (%d,%d)", b.MinX, b.MinY, b.MaxX, b.MaxY))
	printKeyValue("Plane", fmt.Sprintf("%d×%d", result.Stats.PlaneWidth, result.Stats.PlaneHeight))
	if list {
		fmt.Println(renderMarkerTable(result))
	}
	return nil
}

// printRunHints suggests what to try after a text run.
func printRunHints(path string) {
	printNextStep("Pan interactively", fmt.Sprintf("%s view %s", appName, path))
}

// renderMarkerTable renders one row per marker.
func renderMarkerTable(result *pipeline.Result) string {
	rows := make([][]string, 0, len(result.Markers))
	for _, m := range result.Markers {
		placed := "—"
		if m.PrevGroup != nil {
			placed = strconv.Itoa(*m.PrevGroup)
		}
		icon := "hidden"
		if m.Visible {
			icon = strconv.Itoa(m.Icon)
		}
		rows = append(rows, []string{
			m.ID,
			strconv.Itoa(m.Group),
			fmt.Sprintf("%.1f, %.1f", m.X, m.Y),
			placed,
			icon,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Group", "Position", "Placed", "Icon").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(result.Markers) {
				return lipgloss.NewStyle()
			}
			if result.Markers[row].Visible {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorDim)
		})
	return t.Render()
}
