package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

var applyFlags struct {
	hours, minutes, seconds string
	work, rest              string
	rounds                  string
	base, increment         string
	left, right             string
}

var applyCmd = &cobra.Command{
	Use:   "apply <tool>",
	Short: "Set a new duration or configuration; the timer is paused at the new value",
	Long: `apply sets a timer's configuration. Values are clamped to the tool's range
and non-numeric values fall back to the current setting.

  countdown, analog:  --hours --minutes --seconds
  rounds:             --work M:SS --rest M:SS --rounds N
  chess:              --base MINUTES --increment SECONDS --left NAME --right NAME`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := tools.Lookup(args[0])
		if err != nil {
			return err
		}
		s, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		var e timer.Entity
		switch d.ID {
		case tools.CountdownTool.ID, tools.AnalogTool.ID, tools.PomodoroTool.ID:
			c := tools.NewCountdown(s)
			switch d.ID {
			case tools.AnalogTool.ID:
				c = tools.NewAnalog(s)
			case tools.PomodoroTool.ID:
				c = tools.NewPomodoro(s)
			}
			h, m, sec := tools.SplitMs(c.Mount().Target)
			e = c.Apply(
				tools.ParseField(applyFlags.hours, 0, 99, h),
				tools.ParseField(applyFlags.minutes, 0, 59, m),
				tools.ParseField(applyFlags.seconds, 0, 59, sec),
			)

		case tools.RoundsTool.ID:
			r := tools.NewRounds(s)
			cfg := r.View(r.Mount()).Config
			cfg.WorkMinutes, cfg.WorkSeconds = parseMinSec(applyFlags.work, cfg.WorkMinutes, cfg.WorkSeconds)
			cfg.RestMinutes, cfg.RestSeconds = parseMinSec(applyFlags.rest, cfg.RestMinutes, cfg.RestSeconds)
			cfg.Rounds = tools.ParseField(applyFlags.rounds, 1, 99, cfg.Rounds)
			e = r.Apply(cfg)

		case tools.ChessTool.ID:
			c := tools.NewChess(s)
			v := c.View(c.Mount())
			e = c.Configure(tools.ChessConfig{
				BaseMinutes:      tools.ParseField(applyFlags.base, 1, 180, v.BaseMinutes),
				IncrementSeconds: tools.ParseField(applyFlags.increment, 0, 60, v.IncrementSec),
				LabelLeft:        applyFlags.left,
				LabelRight:       applyFlags.right,
			})

		default:
			return fmt.Errorf("%s has nothing to apply", d.Short())
		}
		printEntity(cmd.OutOrStdout(), e)
		return nil
	},
}

// parseMinSec reads "M:SS" or a bare number of seconds. Empty or invalid
// parts keep the fallbacks.
func parseMinSec(text string, minutes, seconds int) (int, int) {
	if text == "" {
		return minutes, seconds
	}
	if mm, ss, ok := strings.Cut(text, ":"); ok {
		return tools.ParseField(mm, 0, 59, minutes), tools.ParseField(ss, 0, 59, seconds)
	}
	total := tools.ParseField(text, 0, 59*60+59, minutes*60+seconds)
	return total / 60, total % 60
}

func init() {
	f := applyCmd.Flags()
	f.StringVar(&applyFlags.hours, "hours", "", "hours (countdown, analog)")
	f.StringVar(&applyFlags.minutes, "minutes", "", "minutes (countdown, analog)")
	f.StringVar(&applyFlags.seconds, "seconds", "", "seconds (countdown, analog)")
	f.StringVar(&applyFlags.work, "work", "", "work phase as M:SS (rounds)")
	f.StringVar(&applyFlags.rest, "rest", "", "rest phase as M:SS (rounds)")
	f.StringVar(&applyFlags.rounds, "rounds", "", "number of rounds (rounds)")
	f.StringVar(&applyFlags.base, "base", "", "minutes per player (chess)")
	f.StringVar(&applyFlags.increment, "increment", "", "seconds added per move (chess)")
	f.StringVar(&applyFlags.left, "left", "", "left player label (chess)")
	f.StringVar(&applyFlags.right, "right", "", "right player label (chess)")
	rootCmd.AddCommand(applyCmd)
}
