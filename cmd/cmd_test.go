package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DYAI2025/stoppclock/internal/format"
	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	return executeCommandContext(context.Background(), root, args...)
}

func executeCommandContext(ctx context.Context, root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err := root.ExecuteContextC(ctx)
	return buf.String(), err
}

// resetFlags restores every flag to its default and drops the context
// inherited from the previous run, so one run does not leak into the next.
func resetFlags(c *cobra.Command) {
	c.SetContext(nil)
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points every stoppclock path at fresh temp dirs and returns the
// data directory.
func isolate(t *testing.T) string {
	t.Helper()
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	return filepath.Join(data, "stoppclock")
}

// timers returns the registry as seen by "status --format json".
func timers(t *testing.T) map[string]timer.Entity {
	t.Helper()
	out, err := executeCommand(rootCmd, "status", "--format", "json")
	require.NoError(t, err)
	snap, err := format.Parse([]byte(out))
	require.NoError(t, err, out)
	byID := make(map[string]timer.Entity, len(snap.Timers))
	for _, e := range snap.Timers {
		byID[e.ID] = e
	}
	return byID
}

func TestStatusEmpty(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "status")
	require.NoError(t, err)
	assert.Equal(t, "No active timers.\n", out)
}

func TestStartThenStatus(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "start", "countdown")
	require.NoError(t, err)
	assert.Equal(t, "Countdown  05:00  running\n", out)

	out, err = executeCommand(rootCmd, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "countdown-1")
	assert.Contains(t, out, "running")

	e := timers(t)[tools.CountdownTool.ID]
	assert.True(t, e.Running)
	assert.Equal(t, int64(5*60*1000), e.Target)
}

func TestToggleAndPause(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "toggle", "/rounds")
	require.NoError(t, err)
	assert.True(t, timers(t)[tools.RoundsTool.ID].Running)

	out, err := executeCommand(rootCmd, "pause", "rounds-1")
	require.NoError(t, err)
	assert.Contains(t, out, "paused")
	assert.False(t, timers(t)[tools.RoundsTool.ID].Running)
}

func TestUnknownTool(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "start", "egg-timer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrUnknownTool), err)

	_, err = executeCommand(rootCmd, "start", "clock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a timer")
}

func TestApplyCountdown(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "start", "countdown")
	require.NoError(t, err)

	out, err := executeCommand(rootCmd, "apply", "countdown", "--minutes", "10")
	require.NoError(t, err)
	assert.Equal(t, "Countdown  10:00  paused\n", out, "apply pauses at the new target")

	// Non-numeric input keeps the current value; out-of-range is clamped.
	out, err = executeCommand(rootCmd, "apply", "countdown", "--minutes", "abc", "--seconds", "75")
	require.NoError(t, err)
	assert.Equal(t, "Countdown  10:59  paused\n", out)
}

func TestApplyAnalogAndPomodoroUseTheirOwnLimits(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "apply", "analog", "--hours", "13")
	require.NoError(t, err)
	assert.Equal(t, "Analog Timer  12:00:00  paused\n", out)

	out, err = executeCommand(rootCmd, "apply", "pomodoro", "--minutes", "5")
	require.NoError(t, err)
	assert.Equal(t, "60s Timer  01:00  paused\n", out)

	_, err = executeCommand(rootCmd, "apply", "stopwatch")
	assert.Error(t, err)
}

func TestApplyRounds(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "apply", "rounds", "--work", "1:30", "--rest", "0", "--rounds", "3")
	require.NoError(t, err)

	e := timers(t)[tools.RoundsTool.ID]
	require.NotNil(t, e.Rounds)
	assert.Equal(t, 1, e.Rounds.RoundMinutes)
	assert.Equal(t, 30, e.Rounds.RoundSeconds)
	assert.Equal(t, int64(0), e.Rounds.RestMs())
	assert.Equal(t, 3, e.Rounds.TotalRounds)
	assert.Equal(t, int64(90_000), e.Current)
}

func TestChessCommands(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "apply", "chess", "--base", "3", "--increment", "2", "--left", "Ann")
	require.NoError(t, err)

	_, err = executeCommand(rootCmd, "tap", "left")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")

	_, err = executeCommand(rootCmd, "start", "chess")
	require.NoError(t, err)

	_, err = executeCommand(rootCmd, "tap", "right")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ann's move")

	out, err := executeCommand(rootCmd, "tap", "left")
	require.NoError(t, err)
	assert.Contains(t, out, "Ann 03:02")

	e := timers(t)[tools.ChessTool.ID]
	assert.Equal(t, timer.SideRight, e.Chess.ActiveSide)

	_, err = executeCommand(rootCmd, "tap", "middle")
	assert.Error(t, err)
}

func TestLapRequiresRunningStopwatch(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "lap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")

	_, err = executeCommand(rootCmd, "start", "lap")
	require.NoError(t, err)
	out, err := executeCommand(rootCmd, "lap", "lap")
	require.NoError(t, err)
	assert.Contains(t, out, "Lap  00:00.00")

	e := timers(t)[tools.LapTool.ID]
	require.NotNil(t, e.Laps)
	assert.Len(t, e.Laps.Laps, 1)

	_, err = executeCommand(rootCmd, "lap", "countdown")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "start", "countdown")
	require.NoError(t, err)

	out, err := executeCommand(rootCmd, "remove", "countdown")
	require.NoError(t, err)
	assert.Equal(t, "Removed countdown-1.\n", out)
	assert.Empty(t, timers(t))

	_, err = executeCommand(rootCmd, "remove", "countdown-1")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	isolate(t)
	exported := filepath.Join(t.TempDir(), "timers.md")

	_, err := executeCommand(rootCmd, "start", "countdown")
	require.NoError(t, err)
	_, err = executeCommand(rootCmd, "apply", "chess", "--base", "10")
	require.NoError(t, err)
	before := timers(t)

	out, err := executeCommand(rootCmd, "export", "--format", "markdown", "-o", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to")

	for _, id := range []string{"countdown-1", "chess-1"} {
		_, err := executeCommand(rootCmd, "remove", id)
		require.NoError(t, err)
	}
	require.Empty(t, timers(t))

	out, err = executeCommand(rootCmd, "import", exported)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 timers.\n", out)
	assert.Equal(t, before, timers(t))
}

func TestImportRejectsOtherFiles(t *testing.T) {
	isolate(t)
	bogus := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(bogus, []byte("# just notes\n"), 0o644))

	_, err := executeCommand(rootCmd, "import", bogus)
	require.Error(t, err)
	assert.True(t, errors.Is(err, format.ErrNotSnapshot), err)

	_, err = executeCommand(rootCmd, "import", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestAlarmCommands(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "alarm", "add", "7:05", "Wake", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "07:05 (Wake up)")
	id := strings.Fields(out)[1]

	out, err = executeCommand(rootCmd, "alarm", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Wake up")
	assert.Contains(t, out, "Next: Wake up")

	out, err = executeCommand(rootCmd, "alarm", "toggle", id)
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	_, err = executeCommand(rootCmd, "alarm", "add", "25:00")
	assert.Error(t, err)

	_, err = executeCommand(rootCmd, "alarm", "delete", id)
	require.NoError(t, err)
	out, err = executeCommand(rootCmd, "alarm", "list")
	require.NoError(t, err)
	assert.Equal(t, "No alarms.\n", out)

	_, err = executeCommand(rootCmd, "alarm", "delete", id)
	assert.True(t, errors.Is(err, tools.ErrAlarmNotFound), err)
}

func TestClockFilter(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "clock", "--filter", "TOK")
	require.NoError(t, err)
	assert.Contains(t, out, "Tokyo")
	assert.Contains(t, out, "UTC+9")
	assert.NotContains(t, out, "London")

	out, err = executeCommand(rootCmd, "clock", "--filter", "atlantis")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching cities.")
}

func TestRunHeadlessAdvancesTimers(t *testing.T) {
	dataDir := isolate(t)

	_, err := executeCommand(rootCmd, "start", "stopwatch")
	require.NoError(t, err)
	_, err = executeCommand(rootCmd, "start", "countdown")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = executeCommandContext(ctx, rootCmd, "run", "--headless")
	require.NoError(t, err)

	got := timers(t)
	assert.Greater(t, got[tools.StopwatchTool.ID].Current, int64(0))
	assert.Less(t, got[tools.CountdownTool.ID].Current, int64(5*60*1000))
	_, ok := got[tools.ClockTool.ID]
	assert.False(t, ok, "home clock is not left behind")

	assert.FileExists(t, filepath.Join(dataDir, LogFile))
}

func TestProjectConfigSelectsSQLite(t *testing.T) {
	dataDir := isolate(t)
	require.NoError(t, os.WriteFile(".stoppclock.yaml", []byte("storage: sqlite\n"), 0o644))

	_, err := executeCommand(rootCmd, "start", "pomodoro")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dataDir, "stoppclock.db"))
	assert.NoFileExists(t, filepath.Join(dataDir, "stoppclock-active-timers.json"))
	e := timers(t)[tools.PomodoroTool.ID]
	assert.Equal(t, int64(60_000), e.Target)
}

func TestSetupWritesGlobalConfig(t *testing.T) {
	isolate(t)
	rootCmd.SetIn(strings.NewReader("file\njson\nUTC\n5\n\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := executeCommand(rootCmd, "setup")
	require.NoError(t, err)
	assert.Contains(t, out, "Config saved to")

	out, err = executeCommand(rootCmd, "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"timers": []`, "status uses the configured default format")
	assert.Equal(t, 5, GetConfig().BarLimit)
}

func TestWatchPrintsUntilCancelled(t *testing.T) {
	isolate(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	out, err := executeCommandContext(ctx, rootCmd, "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "No active timers.")

	_, err = executeCommand(rootCmd, "watch", "--format", "yaml")
	assert.Error(t, err)
}
