package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DYAI2025/stoppclock/internal/format"
	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

var lapCmd = &cobra.Command{
	Use:   "lap [stopwatch|lap]",
	Short: "Record a split on a running stopwatch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := tools.StopwatchTool.Short()
		if len(args) == 1 {
			name = args[0]
		}
		d, err := tools.Lookup(name)
		if err != nil {
			return err
		}

		s, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		var sw *tools.Stopwatch
		switch d.ID {
		case tools.StopwatchTool.ID:
			sw = tools.NewStopwatch(s)
		case tools.LapTool.ID:
			sw = tools.NewLap(s)
		default:
			return fmt.Errorf("%s does not record laps", d.Short())
		}

		lap, ok := sw.Lap()
		if !ok {
			return fmt.Errorf("%s is not running", d.Name)
		}
		cmd.Printf("Lap  %s  (total %s)\n", format.Elapsed(lap.Split), format.Elapsed(lap.Time))
		return nil
	},
}

var tapCmd = &cobra.Command{
	Use:       "tap <left|right>",
	Short:     "End the move of a chess player",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(timer.SideLeft), string(timer.SideRight)},
	RunE: func(cmd *cobra.Command, args []string) error {
		side := timer.Side(args[0])
		if !side.Valid() {
			return fmt.Errorf("invalid side %q (want left or right)", args[0])
		}
		s, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		c := tools.NewChess(s)
		e, ok := c.Tap(side)
		if !ok {
			v := c.View(e)
			if !v.Running {
				return fmt.Errorf("the chess clock is not running")
			}
			label := v.LabelLeft
			if v.Active == timer.SideRight {
				label = v.LabelRight
			}
			return fmt.Errorf("it is %s's move (%s)", label, v.Active)
		}
		v := c.View(e)
		cmd.Printf("%s %s  |  %s %s\n", v.LabelLeft, format.Remaining(v.Left), v.LabelRight, format.Remaining(v.Right))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a timer from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		id := args[0]
		if _, ok := s.Get(id); !ok {
			// Accept tool names too.
			if d, err := tools.Lookup(id); err == nil {
				id = d.ID
			}
		}
		if _, ok := s.Get(id); !ok {
			return fmt.Errorf("no active timer %q", args[0])
		}
		s.Remove(id)
		cmd.Printf("Removed %s.\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lapCmd, tapCmd, removeCmd)
}
