package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DYAI2025/stoppclock/internal/engine"
	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/tools"
	"github.com/DYAI2025/stoppclock/internal/tui"
	"github.com/DYAI2025/stoppclock/internal/watch"
)

// LogFile is the name of the log written by run, inside the data directory.
const LogFile = "stoppclock.log"

var runHeadless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the timers and advance them until you quit",
	Long: `run hosts the tick engine: running timers only advance while it is open.
Timers changed meanwhile by other commands, such as "stoppclock start" in
another terminal, are merged in. Logs go to stoppclock.log in the data
directory so they do not disturb the interface. With --headless the engine runs without an interface until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		dir, err := c.ResolveDataDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		fileLog, err := newLogger(verbose, filepath.Join(dir, LogFile))
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		log = fileLog

		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		s := registry.Open(b,
			registry.WithLogger(log),
			registry.WithPersistInterval(c.PersistInterval()))
		defer s.Close()

		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(sigCtx)
		defer cancel()

		eng := engine.New(s, c.TickInterval(), log)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return eng.Run(ctx) })
		// Pick up timers started or changed by other stoppclock commands.
		g.Go(func() error {
			err := watch.Watch(ctx, storage.Locate(b, registry.Key), watch.DefaultSettle, log, func() {
				s.Reload()
			})
			if err != nil {
				// Saves still merge foreign changes; only live pickup is lost.
				log.Warn("not watching for timer changes", zap.Error(err))
			}
			return nil
		})

		if !runHeadless {
			model := tui.New(s, s.Subscribe(1), tools.LoadAlarms(b, log), tui.Options{
				BarLimit: c.BarLimit,
				HomeZone: c.HomeZone,
				Zones:    c.WorldZones,
			})
			g.Go(func() error {
				// Quitting the interface stops the engine.
				defer cancel()
				return tui.Run(ctx, model)
			})
		}

		log.Info("running", zap.Int("timers", s.Len()), zap.Bool("headless", runHeadless))
		err = g.Wait()

		// The home clock only mirrors wall time while it is being refreshed.
		tools.NewClock(s, c.HomeZone).Unpublish()
		log.Info("stopped", zap.Int("timers", s.Len()))
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "advance timers without the terminal interface")
	rootCmd.AddCommand(runCmd)
}
