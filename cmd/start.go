package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DYAI2025/stoppclock/internal/format"
	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// adapter is the action surface every registry-backed timer tool shares.
type adapter interface {
	Descriptor() tools.Descriptor
	Mount() timer.Entity
	Toggle() timer.Entity
	Start() timer.Entity
	Pause() timer.Entity
	Reset() timer.Entity
}

// adapterFor resolves a tool name to its adapter over s.
func adapterFor(s *registry.Store, name string) (adapter, error) {
	d, err := tools.Lookup(name)
	if err != nil {
		return nil, err
	}
	switch d.ID {
	case tools.CountdownTool.ID:
		return tools.NewCountdown(s), nil
	case tools.AnalogTool.ID:
		return tools.NewAnalog(s), nil
	case tools.PomodoroTool.ID:
		return tools.NewPomodoro(s), nil
	case tools.RoundsTool.ID:
		return tools.NewRounds(s), nil
	case tools.ChessTool.ID:
		return tools.NewChess(s), nil
	case tools.StopwatchTool.ID:
		return tools.NewStopwatch(s), nil
	case tools.LapTool.ID:
		return tools.NewLap(s), nil
	}
	return nil, fmt.Errorf("%s is not a timer; see 'stoppclock clock'", d.Short())
}

// printEntity writes the one-line summary of e used by action commands.
func printEntity(w io.Writer, e timer.Entity) {
	fmt.Fprintf(w, "%s  %s  %s\n", e.Name, format.Time(e), format.Status(e))
}

// actionCommand builds a "<verb> <tool>" command that applies act to the
// tool's adapter and prints the resulting entity.
func actionCommand(use, short string, act func(adapter) timer.Entity) *cobra.Command {
	return &cobra.Command{
		Use:       use + " <tool>",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: toolNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := openStore()
			if err != nil {
				return err
			}
			defer done()

			a, err := adapterFor(s, args[0])
			if err != nil {
				return err
			}
			printEntity(cmd.OutOrStdout(), act(a))
			return nil
		},
	}
}

func toolNames() []string {
	names := make([]string, 0, len(tools.All))
	for _, d := range tools.All {
		names = append(names, d.Short())
	}
	return names
}

func init() {
	rootCmd.AddCommand(
		actionCommand("start", "Start a timer", adapter.Start),
		actionCommand("pause", "Pause a timer", adapter.Pause),
		actionCommand("toggle", "Start a paused timer or pause a running one", adapter.Toggle),
		actionCommand("reset", "Reset a timer to its configured duration", adapter.Reset),
	)
}
