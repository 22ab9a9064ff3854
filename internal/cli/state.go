package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/declutter/pkg/errors"
)

// stateCommand creates the placement state management command.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Manage saved marker placements",
	}

	cmd.AddCommand(c.stateClearCommand())
	cmd.AddCommand(c.statePathCommand())

	return cmd
}

// stateClearCommand creates the "state clear" subcommand.
func (c *CLI) stateClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [name]",
		Short: "Forget saved placements of one scene, or of all scenes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				name := args[0]
				if err := errors.ValidateName(name); err != nil {
					return err
				}
				store, err := newStore(false)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.Clear(cmd.Context(), name); err != nil {
					return err
				}
				printSuccess("Cleared placements of %s", StyleHighlight.Render(name))
				return nil
			}

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			count, err := clearDir(dir)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("No saved placements")
				return nil
			}
			printSuccess("Cleared %d saved scenes", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// clearDir removes every file below dir and then the emptied
// subdirectories. It returns the number of files removed.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if path == dir {
			return nil
		}
		if !info.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return count, nil
}

// statePathCommand creates the "state path" subcommand.
func (c *CLI) statePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the directory placements are saved in",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
