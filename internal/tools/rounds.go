package tools

import (
	"github.com/DYAI2025/stoppclock/internal/engine"
	"github.com/DYAI2025/stoppclock/internal/timer"
)

// RoundsConfig is the user-editable part of a rounds session. It only takes
// effect through Rounds.Apply.
type RoundsConfig struct {
	WorkMinutes int
	WorkSeconds int
	RestMinutes int
	RestSeconds int
	Rounds      int
}

// DefaultRoundsConfig is 40 seconds of work and 20 of rest, ten times.
var DefaultRoundsConfig = RoundsConfig{WorkSeconds: 40, RestSeconds: 20, Rounds: 10}

// Normalize clamps every field into range. A session needs some work time,
// so an all-zero work phase becomes one second.
func (c RoundsConfig) Normalize() RoundsConfig {
	c.WorkMinutes = Clamp(c.WorkMinutes, 0, 59)
	c.WorkSeconds = Clamp(c.WorkSeconds, 0, 59)
	c.RestMinutes = Clamp(c.RestMinutes, 0, 59)
	c.RestSeconds = Clamp(c.RestSeconds, 0, 59)
	c.Rounds = Clamp(c.Rounds, 1, 99)
	if c.WorkMinutes == 0 && c.WorkSeconds == 0 {
		c.WorkSeconds = 1
	}
	return c
}

// Phase names the half of a round a session is in.
type Phase string

const (
	PhaseWork     Phase = "work"
	PhaseRest     Phase = "rest"
	PhaseComplete Phase = "complete"
)

// RoundsView is the read model for rendering a rounds session.
type RoundsView struct {
	Phase     Phase
	Round     int
	Total     int
	Remaining int64
	Target    int64
	Running   bool
	Config    RoundsConfig
}

// Rounds drives the interval timer.
type Rounds struct {
	reg Registry
}

// NewRounds returns the rounds adapter.
func NewRounds(reg Registry) *Rounds {
	return &Rounds{reg: reg}
}

// Descriptor returns the tool identity.
func (r *Rounds) Descriptor() Descriptor { return RoundsTool }

// Mount returns the stored session, or a paused default session.
func (r *Rounds) Mount() timer.Entity {
	cur, ok := r.reg.Get(RoundsTool.ID)
	return r.base(cur, ok)
}

// View summarizes e for display.
func (r *Rounds) View(e timer.Entity) RoundsView {
	e = r.base(e, true)
	m := e.Rounds
	v := RoundsView{
		Phase:     PhaseWork,
		Round:     m.CurrentRound,
		Total:     m.TotalRounds,
		Remaining: e.Current,
		Target:    e.Target,
		Running:   e.Running,
		Config:    configOf(m),
	}
	switch {
	case complete(e):
		v.Phase = PhaseComplete
		v.Round = min(m.CurrentRound, m.TotalRounds)
	case !e.InWork():
		v.Phase = PhaseRest
	}
	return v
}

// Apply replaces the configuration and restarts the session paused at the
// first work phase.
func (r *Rounds) Apply(cfg RoundsConfig) timer.Entity {
	cfg = cfg.Normalize()
	e, _ := r.reg.Update(RoundsTool.ID, func(timer.Entity, bool) (timer.Entity, bool) {
		return newRoundsEntity(cfg), true
	})
	return e
}

// Toggle starts or pauses the session. Starting a finished session begins
// again at round one.
func (r *Rounds) Toggle() timer.Entity {
	e, _ := r.reg.Update(RoundsTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := r.base(cur, ok)
		if next.Running {
			next.Running = false
			return next, true
		}
		return r.start(next), true
	})
	return e
}

// Start runs the session; it is a no-op when already running.
func (r *Rounds) Start() timer.Entity {
	e, _ := r.reg.Update(RoundsTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		return r.start(r.base(cur, ok)), true
	})
	return e
}

// Pause stops the session in place.
func (r *Rounds) Pause() timer.Entity {
	e, ok := r.reg.Update(RoundsTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		cur.Running = false
		return cur, ok
	})
	if !ok {
		return r.Mount()
	}
	return e
}

// Reset returns to round one, work phase, paused, keeping the configuration.
func (r *Rounds) Reset() timer.Entity {
	e, _ := r.reg.Update(RoundsTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		return newRoundsEntity(configOf(r.base(cur, ok).Rounds)), true
	})
	return e
}

func (r *Rounds) start(e timer.Entity) timer.Entity {
	if e.Running {
		return e
	}
	if e.Current == 0 || complete(e) {
		e = newRoundsEntity(configOf(e.Rounds))
	}
	e.Running = true
	return e
}

// base normalizes a stored entity so that it is never malformed for the
// engine, or builds the default session.
func (r *Rounds) base(cur timer.Entity, ok bool) timer.Entity {
	if !ok || cur.Rounds == nil {
		return newRoundsEntity(DefaultRoundsConfig)
	}
	next := cur.Clone()
	id := RoundsTool.Entity()
	next.ID, next.Kind, next.Name, next.Color, next.Path = id.ID, id.Kind, id.Name, id.Color, id.Path
	if next.Working == nil {
		next.Working = timer.Bool(true)
	}
	if next.Rounds.TotalRounds < 1 {
		next.Rounds.TotalRounds = 1
	}
	if next.Rounds.CurrentRound < 1 {
		next.Rounds.CurrentRound = 1
	}
	return next
}

func newRoundsEntity(cfg RoundsConfig) timer.Entity {
	e := RoundsTool.Entity()
	e.Rounds = &timer.RoundsMeta{
		RoundMinutes: cfg.WorkMinutes,
		RoundSeconds: cfg.WorkSeconds,
		RestMinutes:  cfg.RestMinutes,
		RestSeconds:  cfg.RestSeconds,
		TotalRounds:  cfg.Rounds,
		CurrentRound: 1,
	}
	e.Working = timer.Bool(true)
	e.Target = e.Rounds.WorkMs()
	e.Current = e.Target
	return e
}

func configOf(m *timer.RoundsMeta) RoundsConfig {
	return RoundsConfig{
		WorkMinutes: m.RoundMinutes,
		WorkSeconds: m.RoundSeconds,
		RestMinutes: m.RestMinutes,
		RestSeconds: m.RestSeconds,
		Rounds:      m.TotalRounds,
	}
}

func complete(e timer.Entity) bool {
	return engine.RoundsComplete(e) || (!e.Running && e.Current == 0)
}
