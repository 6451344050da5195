package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DYAI2025/stoppclock/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure stoppclock (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive wizard and writes the global config file.
// Existing settings are offered as defaults.
func runSetup(cmd *cobra.Command) error {
	existing, err := config.LoadGlobal()
	if err != nil {
		d := config.Defaults()
		existing = &d
	}

	out := cmd.OutOrStdout()
	next, err := config.RunSetup(cmd.InOrStdin(), out, *existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	if err := config.Save(path, next); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "  ✓ Config saved to %s\n", path)
	fmt.Fprintln(out, "  Setup complete. Run 'stoppclock run' to open the timers.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
