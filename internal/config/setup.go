package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// RunSetup runs the interactive setup wizard reading answers from in and
// writing prompts to out. existing supplies the default for each prompt.
func RunSetup(in io.Reader, out io.Writer, existing Config) (Config, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askInt := func(prompt string, defaultVal, lo, hi int) (int, error) {
		ans, err := ask(prompt, strconv.Itoa(defaultVal))
		if err != nil {
			return 0, err
		}
		return tools.ParseField(ans, lo, hi, defaultVal), nil
	}

	cfg := existing

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   stoppclock — setup            │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	backend, err := ask("  Storage backend (file/sqlite)", cfg.Storage)
	if err != nil {
		return Config{}, err
	}
	if backend == storage.KindSQLite {
		cfg.Storage = storage.KindSQLite
	} else {
		cfg.Storage = storage.KindFile
	}

	format, err := ask("  Default output format (text/markdown/json)", cfg.DefaultFormat)
	if err != nil {
		return Config{}, err
	}
	switch format {
	case "markdown", "json":
		cfg.DefaultFormat = format
	default:
		cfg.DefaultFormat = "text"
	}

	zone, err := ask("  Home time zone (IANA name or Local)", cfg.HomeZone)
	if err != nil {
		return Config{}, err
	}
	if _, err := tools.LoadZone(zone); err != nil {
		fmt.Fprintf(out, "  ⚠ %v, keeping %s\n", err, cfg.HomeZone)
	} else {
		cfg.HomeZone = zone
	}

	if cfg.BarLimit, err = askInt("  Timers shown in the active bar", cfg.BarLimit, 1, 10); err != nil {
		return Config{}, err
	}
	if cfg.TickIntervalMs, err = askInt("  Tick interval in ms (1-50)", cfg.TickIntervalMs, 1, 50); err != nil {
		return Config{}, err
	}

	fmt.Fprintln(out)
	return cfg, nil
}
