package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/declutter/pkg/pipeline"
	"github.com/matzehuels/declutter/pkg/scene"
)

// viewCommand creates the interactive viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		flags runFlags
		step  int
		cell  int
	)

	cmd := &cobra.Command{
		Use:   "view <scene.json>",
		Short: "Pan a scene interactively",
		Long: `Open a scene in the terminal and pan its viewport with the arrow keys.

Every move re-runs generalization with the placements of the previous
move, the same way a map host would. Placements are kept in memory only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			sc, err := scene.LoadScene(args[0])
			if err != nil {
				return err
			}

			// The TUI owns the terminal; keep the runner quiet.
			quiet := log.NewWithOptions(io.Discard, log.Options{})
			opts.Logger = quiet
			runner := pipeline.NewRunner(nil, quiet)

			model, err := newViewModel(cmd.Context(), runner, sc, opts, step, cell)
			if err != nil {
				return err
			}
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return err
			}

			loggerFromContext(cmd.Context()).Debug("viewer closed", "moves", model.moves)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&step, "step", 16, "pan distance per key press in pixels")
	cmd.Flags().IntVar(&cell, "cell", 8, "pixels per terminal cell")

	return cmd
}
