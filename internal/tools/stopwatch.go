package tools

import (
	"github.com/DYAI2025/stoppclock/internal/timer"
)

// Stopwatch drives the stopwatch and lap timer tools. A paused stopwatch at
// zero is indistinguishable from no stopwatch, so it is kept out of the
// registry.
type Stopwatch struct {
	reg  Registry
	desc Descriptor
}

// NewStopwatch returns the stopwatch adapter.
func NewStopwatch(reg Registry) *Stopwatch {
	return &Stopwatch{reg: reg, desc: StopwatchTool}
}

// NewLap returns the lap timer adapter.
func NewLap(reg Registry) *Stopwatch {
	return &Stopwatch{reg: reg, desc: LapTool}
}

// Descriptor returns the tool identity.
func (s *Stopwatch) Descriptor() Descriptor { return s.desc }

// Mount returns the stored entity, or a paused zero entity.
func (s *Stopwatch) Mount() timer.Entity {
	cur, ok := s.reg.Get(s.desc.ID)
	return s.base(cur, ok)
}

// Toggle starts or pauses.
func (s *Stopwatch) Toggle() timer.Entity {
	return s.update(func(e timer.Entity) timer.Entity {
		e.Running = !e.Running
		return e
	})
}

// Start runs the stopwatch.
func (s *Stopwatch) Start() timer.Entity {
	return s.update(func(e timer.Entity) timer.Entity {
		e.Running = true
		return e
	})
}

// Pause stops the stopwatch in place.
func (s *Stopwatch) Pause() timer.Entity {
	return s.update(func(e timer.Entity) timer.Entity {
		e.Running = false
		return e
	})
}

// Lap records a split while running. The split is the time since the
// previous lap; laps are kept newest first. The second result is false when
// the stopwatch is paused.
func (s *Stopwatch) Lap() (timer.Lap, bool) {
	var lap timer.Lap
	recorded := false
	s.update(func(e timer.Entity) timer.Entity {
		if !e.Running {
			return e
		}
		lap = timer.Lap{Time: e.Current, Split: e.Current - e.Laps.LastLapMs}
		e.Laps.Laps = append([]timer.Lap{lap}, e.Laps.Laps...)
		e.Laps.LastLapMs = e.Current
		recorded = true
		return e
	})
	return lap, recorded
}

// Reset discards the elapsed time and laps.
func (s *Stopwatch) Reset() timer.Entity {
	s.reg.Remove(s.desc.ID)
	return s.base(timer.Entity{}, false)
}

func (s *Stopwatch) update(fn func(timer.Entity) timer.Entity) timer.Entity {
	e, ok := s.reg.Update(s.desc.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := fn(s.base(cur, ok))
		return next, next.Running || next.Current > 0
	})
	if !ok {
		return s.base(timer.Entity{}, false)
	}
	return e
}

func (s *Stopwatch) base(cur timer.Entity, ok bool) timer.Entity {
	next := s.desc.Entity()
	next.Laps = &timer.LapMeta{}
	if !ok {
		return next
	}
	next.Current = cur.Current
	next.Running = cur.Running
	if cur.Laps != nil {
		next.Laps = &timer.LapMeta{
			Laps:      append([]timer.Lap(nil), cur.Laps.Laps...),
			LastLapMs: cur.Laps.LastLapMs,
		}
	}
	return next
}
