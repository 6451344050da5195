package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/watch"
)

var watchFormat string

const clearScreen = "\033[H\033[2J"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the active timers again whenever they change",
	Long: `watch re-renders the timer list each time another stoppclock process
saves it. It never advances or modifies timers. On a terminal the screen is
redrawn in place; otherwise each update is appended.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		name := watchFormat
		if name == "" {
			name = GetConfig().DefaultFormat
		}
		redraw := term.IsTerminal(os.Stdout.Fd())
		out := cmd.OutOrStdout()

		render := func() {
			data, err := renderSnapshot(name, readSnapshot(b))
			if err != nil {
				log.Warn("failed to render timers", zap.Error(err))
				return
			}
			if redraw {
				out.Write([]byte(clearScreen))
			}
			out.Write(data)
		}
		if _, err := renderSnapshot(name, nil); err != nil {
			return err
		}
		render()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watch.Watch(ctx, storage.Locate(b, registry.Key), watch.DefaultSettle, log, render)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "Output format: text, markdown or json (overrides config)")
	rootCmd.AddCommand(watchCmd)
}
