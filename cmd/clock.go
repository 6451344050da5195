package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/tools"
)

var clockFilter string

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Show the home clock and world time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		now := time.Now()

		home, err := tools.LoadZone(c.HomeZone)
		if err != nil {
			return err
		}
		local := now.In(home)
		_, offset := local.Zone()
		cmd.Printf("%s  %s  UTC%s\n\n", local.Format("15:04:05"), local.Format("Mon, 2 Jan 2006"), tools.OffsetLabel(offset))

		cities, err := tools.World(now, c.WorldZones, clockFilter)
		if err != nil {
			log.Warn("skipping unknown zones", zap.Error(err))
		}
		if len(cities) == 0 {
			cmd.Println("No matching cities.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, ct := range cities {
			fmt.Fprintf(tw, "%s\t%s\t%s\tUTC%s\n", ct.City, ct.Time, ct.Date, ct.Offset)
		}
		return tw.Flush()
	},
}

func init() {
	clockCmd.Flags().StringVar(&clockFilter, "filter", "", "Only show cities whose name contains this text")
	rootCmd.AddCommand(clockCmd)
}
