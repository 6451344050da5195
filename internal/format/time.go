// Package format turns entities into the strings and fractions presentation
// surfaces show, and serializes registry snapshots for export and import.
package format

import (
	"fmt"
	"time"

	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// ExpiringBelow is the remaining time under which a countdown is highlighted.
const ExpiringBelow = 10 * time.Second

// Time renders the time field of e the way its tool shows it.
func Time(e timer.Entity) string {
	switch {
	case e.Kind == timer.KindClock:
		return ClockTime(e)
	case e.Kind.CountsUp():
		return Elapsed(e.Current)
	default:
		return Remaining(e.Current)
	}
}

// Elapsed renders milliseconds as mm:ss.cc, or hh:mm:ss.cc from one hour.
func Elapsed(ms int64) string {
	ms = max(0, ms)
	total := ms / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	cs := (ms % 1000) / 10
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, cs)
	}
	return fmt.Sprintf("%02d:%02d.%02d", m, s, cs)
}

// Remaining renders milliseconds as mm:ss, or hh:mm:ss from one hour.
// Partial seconds are dropped.
func Remaining(ms int64) string {
	total := max(0, ms) / 1000
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ClockTime renders the wall time mirrored by a clock entity in its zone.
func ClockTime(e timer.Entity) string {
	loc := time.Local
	if e.Clock != nil {
		if l, err := tools.LoadZone(e.Clock.Zone); err == nil {
			loc = l
		}
	}
	return time.UnixMilli(e.Current).In(loc).Format("15:04:05")
}

// Progress is the fraction of the target still remaining, in [0, 1]. It is
// 0 for entities without a target.
func Progress(e timer.Entity) float64 {
	if e.Target <= 0 {
		return 0
	}
	return min(max(float64(e.Current)/float64(e.Target), 0), 1)
}

// Expiring reports whether a countdown-like entity is about to run out.
func Expiring(e timer.Entity) bool {
	if e.Kind != timer.KindCountdown && e.Kind != timer.KindAnalog {
		return false
	}
	return e.Current > 0 && e.Current < ExpiringBelow.Milliseconds()
}

// Status names the state an entity is in.
func Status(e timer.Entity) string {
	switch {
	case e.Kind == timer.KindClock:
		return "live"
	case e.Running:
		if e.Kind == timer.KindRounds && !e.InWork() {
			return "resting"
		}
		return "running"
	case e.Kind == timer.KindChess && e.Chess != nil && e.Chess.OutOfTime:
		return "flag fallen"
	case e.Kind == timer.KindRounds && e.Current == 0:
		return "complete"
	case (e.Kind == timer.KindCountdown || e.Kind == timer.KindAnalog) && e.Current == 0:
		return "expired"
	default:
		return "paused"
	}
}

// Cap returns at most limit entities for display and how many were left
// out. A limit of zero or less shows everything.
func Cap(list []timer.Entity, limit int) ([]timer.Entity, int) {
	if limit <= 0 || len(list) <= limit {
		return list, 0
	}
	return list[:limit], len(list) - limit
}
