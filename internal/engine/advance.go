package engine

import (
	"time"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// Advance applies one tick of length period to e and returns the next value.
// The second result is false when e is left untouched: it is paused, its kind
// is not driven by the engine, or its meta is malformed for its kind.
//
// Phase transitions replace the whole entity in one step, so no caller ever
// observes a rounds entity at zero in the middle of a phase switch.
func Advance(e timer.Entity, period time.Duration) (timer.Entity, bool) {
	if !e.Running {
		return e, false
	}
	step := period.Milliseconds()

	switch e.Kind {
	case timer.KindStopwatch, timer.KindLap:
		next := e.Clone()
		next.Current += step
		return next, true

	case timer.KindCountdown, timer.KindAnalog:
		next := e.Clone()
		next.Current = max(0, e.Current-step)
		if next.Current == 0 {
			next.Running = false
		}
		return next, true

	case timer.KindRounds:
		return advanceRounds(e, step)

	case timer.KindChess:
		return advanceChess(e, step)
	}
	return e, false
}

// Malformed reports whether e lacks the meta its kind's tick rule needs.
func Malformed(e timer.Entity) bool {
	switch e.Kind {
	case timer.KindRounds:
		return e.Rounds == nil || e.Rounds.TotalRounds < 1 || e.Rounds.CurrentRound < 1
	case timer.KindChess:
		return e.Chess == nil || !e.Chess.ActiveSide.Valid()
	}
	return false
}

func advanceRounds(e timer.Entity, step int64) (timer.Entity, bool) {
	if Malformed(e) {
		return e, false
	}
	next := e.Clone()
	m := next.Rounds

	next.Current = e.Current - step
	if next.Current > 0 {
		return next, true
	}

	work, rest := m.WorkMs(), m.RestMs()
	if next.InWork() && rest > 0 {
		next.Working = timer.Bool(false)
		next.Current = rest
		next.Target = rest
		return next, true
	}

	// Rest is over, or work is over and there is no rest phase.
	m.CurrentRound++
	if m.CurrentRound > m.TotalRounds {
		next.Running = false
		next.Current = 0
		return next, true
	}
	next.Working = timer.Bool(true)
	next.Current = work
	next.Target = work
	return next, true
}

func advanceChess(e timer.Entity, step int64) (timer.Entity, bool) {
	if Malformed(e) {
		return e, false
	}
	next := e.Clone()
	m := next.Chess
	side := m.ActiveSide

	left := max(0, m.Remaining(side)-step)
	m.SetRemaining(side, left)
	next.Current = left
	if left == 0 {
		next.Running = false
		m.OutOfTime = true
	}
	return next, true
}

// RoundsComplete reports whether a rounds entity has run past its last round.
func RoundsComplete(e timer.Entity) bool {
	return e.Rounds != nil && e.Rounds.CurrentRound > e.Rounds.TotalRounds
}
