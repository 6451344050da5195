package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DYAI2025/stoppclock/internal/tools"
)

var alarmCmd = &cobra.Command{
	Use:   "alarm",
	Short: "Manage daily alarms",
}

// withAlarms opens the backend, loads the alarm list and runs fn with it.
func withAlarms(fn func(*tools.Alarms) error) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(tools.LoadAlarms(b, log))
}

var alarmAddCmd = &cobra.Command{
	Use:   "add <HH:MM> [label...]",
	Short: "Add an enabled alarm",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAlarms(func(a *tools.Alarms) error {
			alarm, err := a.Add(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			cmd.Printf("Alarm %s set for %s (%s).\n", alarm.ID, alarm.Time, alarm.Label)
			return nil
		})
	},
}

var alarmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alarms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAlarms(func(a *tools.Alarms) error {
			list := a.List()
			if len(list) == 0 {
				cmd.Println("No alarms.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, al := range list {
				state := "off"
				if al.Enabled {
					state = "on"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", al.ID, al.Time, state, al.Label)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if next, at, ok := a.Next(time.Now()); ok {
				cmd.Printf("Next: %s at %s\n", next.Label, at.Format("Mon 15:04"))
			}
			return nil
		})
	},
}

var alarmToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Enable or disable an alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAlarms(func(a *tools.Alarms) error {
			alarm, err := a.Toggle(args[0])
			if err != nil {
				return err
			}
			state := "disabled"
			if alarm.Enabled {
				state = "enabled"
			}
			cmd.Printf("Alarm %s %s.\n", alarm.ID, state)
			return nil
		})
	},
}

var alarmDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAlarms(func(a *tools.Alarms) error {
			if err := a.Delete(args[0]); err != nil {
				return err
			}
			cmd.Printf("Alarm %s deleted.\n", args[0])
			return nil
		})
	},
}

func init() {
	alarmCmd.AddCommand(alarmAddCmd, alarmListCmd, alarmToggleCmd, alarmDeleteCmd)
	rootCmd.AddCommand(alarmCmd)
}
