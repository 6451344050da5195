package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/format"
	"github.com/DYAI2025/stoppclock/internal/registry"
	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/timer"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List active timers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		name := statusFormat
		if name == "" {
			name = GetConfig().DefaultFormat
		}
		data, err := renderSnapshot(name, readSnapshot(b))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active timers to a file that import can read back",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		data, err := renderSnapshot(exportFormat, readSnapshot(b))
		if err != nil {
			return err
		}
		if exportOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		cmd.Printf("Exported to %s\n", exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add the timers from an exported file, replacing timers with the same id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}
		snap, err := format.Parse(data)
		if err != nil {
			return err
		}

		s, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		n := 0
		for _, e := range snap.Timers {
			if err := e.Validate(); err != nil {
				cmd.PrintErrf("skipping timer %q: %v\n", e.ID, err)
				continue
			}
			s.Upsert(e)
			n++
		}
		cmd.Printf("Imported %d timers.\n", n)
		return nil
	},
}

// readSnapshot returns the persisted timers without opening a registry, so
// read-only commands never write. Unreadable state reads as empty.
func readSnapshot(b storage.Backend) []timer.Entity {
	data, err := b.Load(registry.Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("failed to read timers", zap.String("key", registry.Key), zap.Error(err))
		}
		return nil
	}
	list, rejected, err := registry.DecodeSnapshot(data)
	if err != nil {
		log.Warn("discarding unreadable timer snapshot", zap.String("key", registry.Key), zap.Error(err))
		return nil
	}
	for _, r := range rejected {
		log.Debug("skipping invalid timer", zap.Int("index", r.Index), zap.String("id", r.ID), zap.Error(r.Err))
	}
	return list
}

func renderSnapshot(name string, list []timer.Entity) ([]byte, error) {
	r, err := format.NewRenderer(name)
	if err != nil {
		return nil, err
	}
	return r.Render(&format.Snapshot{ExportedAt: time.Now().UTC(), Timers: list})
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "", "Output format: text, markdown or json (overrides config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", format.JSON, "Output format: json or markdown")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(statusCmd, exportCmd, importCmd)
}
