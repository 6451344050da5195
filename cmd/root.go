package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/config"
	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/storage"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// log is the command logger, built in PersistentPreRunE.
var log = zap.NewNop()

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stoppclock",
	Short: "Stopwatches, countdowns, interval and chess clocks in the terminal",
	Long: `stoppclock keeps a registry of active timers on disk. Commands such as
start, pause and lap act on it directly; "stoppclock run" opens the
terminal interface and is the only command that advances running timers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		log = l

		// Skip the first-run check for the setup command itself.
		if cmd.Name() != "setup" && !config.GlobalExists() {
			// Only offer setup when stdin is an interactive terminal.
			// Non-interactive (tests, pipes): continue with defaults.
			if term.IsTerminal(os.Stdin.Fd()) {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to stoppclock! Looks like this is your first time.")
				if err := runSetup(cmd); err != nil {
					return err
				}
			}
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		log.Debug("configuration loaded",
			zap.String("storage", cfg.Storage),
			zap.Duration("tick", cfg.TickInterval()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// newLogger builds a production logger writing to paths (stderr when none).
func newLogger(debug bool, paths ...string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if len(paths) > 0 {
		zc.OutputPaths = paths
		zc.ErrorOutputPaths = paths
	}
	return zc.Build()
}

// openBackend opens the configured storage backend.
func openBackend() (storage.Backend, error) {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	b, err := storage.Open(cfg.Storage, dir)
	if err != nil {
		return nil, err
	}
	log.Debug("storage opened", zap.String("backend", cfg.Storage), zap.String("path", b.Path()))
	return b, nil
}

// openStore opens the backend and rehydrates the registry from it. The
// returned close function flushes the registry and releases the backend.
func openStore() (*registry.Store, func(), error) {
	b, err := openBackend()
	if err != nil {
		return nil, nil, err
	}
	s := registry.Open(b,
		registry.WithLogger(log),
		registry.WithPersistInterval(cfg.PersistInterval()))
	return s, func() {
		s.Close()
		if err := b.Close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
