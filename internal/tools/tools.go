// Package tools contains one adapter per timer tool. An adapter turns user
// actions into the next entity value and stores it through the registry; it
// never advances time itself, that is the tick engine's job.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// ErrUnknownTool is returned by Lookup for names that match no tool.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is the subset of the registry store adapters use.
type Registry interface {
	Get(id string) (timer.Entity, bool)
	Update(id string, fn func(cur timer.Entity, ok bool) (timer.Entity, bool)) (timer.Entity, bool)
	Remove(id string)
}

// Descriptor is the fixed identity of a registry-backed tool.
type Descriptor struct {
	ID    string
	Kind  timer.Kind
	Name  string
	Color string
	Path  string
}

// Entity returns a bare entity carrying the descriptor's identity.
func (d Descriptor) Entity() timer.Entity {
	return timer.Entity{ID: d.ID, Kind: d.Kind, Name: d.Name, Color: d.Color, Path: d.Path}
}

// Short is the name used on the command line.
func (d Descriptor) Short() string {
	return strings.TrimPrefix(d.Path, "/")
}

var (
	CountdownTool = Descriptor{ID: "countdown-1", Kind: timer.KindCountdown, Name: "Countdown", Color: "countdown", Path: "/countdown"}
	AnalogTool    = Descriptor{ID: "analog-1", Kind: timer.KindAnalog, Name: "Analog Timer", Color: "analog", Path: "/analog"}
	PomodoroTool  = Descriptor{ID: "pomodoro-1", Kind: timer.KindCountdown, Name: "60s Timer", Color: "alarm", Path: "/pomodoro"}
	RoundsTool    = Descriptor{ID: "rounds-1", Kind: timer.KindRounds, Name: "Rounds Timer", Color: "interval", Path: "/rounds"}
	ChessTool     = Descriptor{ID: "chess-1", Kind: timer.KindChess, Name: "Chess Clock", Color: "chess", Path: "/chess"}
	StopwatchTool = Descriptor{ID: "stopwatch-1", Kind: timer.KindStopwatch, Name: "Stopwatch", Color: "stopwatch", Path: "/stopwatch"}
	LapTool       = Descriptor{ID: "lap-1", Kind: timer.KindLap, Name: "Lap Timer", Color: "lap", Path: "/lap"}
	ClockTool     = Descriptor{ID: "clock-home", Kind: timer.KindClock, Name: "Clock", Color: "clock", Path: "/clock"}
)

// All lists the registry-backed tools in menu order.
var All = []Descriptor{
	StopwatchTool, CountdownTool, PomodoroTool, RoundsTool, AnalogTool, ChessTool, LapTool, ClockTool,
}

// Lookup resolves a tool by short name ("countdown"), route ("/countdown")
// or entity id ("countdown-1").
func Lookup(name string) (Descriptor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, d := range All {
		if key == d.ID || key == d.Path || key == d.Short() {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// ByPath returns the tool owning a route, used when navigating from the bar.
func ByPath(path string) (Descriptor, bool) {
	for _, d := range All {
		if d.Path == path {
			return d, true
		}
	}
	return Descriptor{}, false
}
