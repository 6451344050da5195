package tools

import (
	"time"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// CountdownState is the user-facing state of a countdown-like tool.
type CountdownState int

const (
	CountdownIdle CountdownState = iota
	CountdownRunning
	CountdownExpired
)

func (s CountdownState) String() string {
	switch s {
	case CountdownRunning:
		return "running"
	case CountdownExpired:
		return "expired"
	default:
		return "idle"
	}
}

// CountdownStateOf derives the state from a stored entity.
func CountdownStateOf(e timer.Entity) CountdownState {
	switch {
	case e.Running:
		return CountdownRunning
	case e.Current == 0:
		return CountdownExpired
	default:
		return CountdownIdle
	}
}

const (
	defaultCountdownTarget = 5 * time.Minute
	maxCountdownTarget     = 99*time.Hour + 59*time.Minute + 59*time.Second
	maxAnalogTarget        = 12 * time.Hour
	pomodoroTarget         = 60 * time.Second
)

// Countdown drives the countdown, analog and sixty-second tools. They share
// one state machine and differ only in their limits.
type Countdown struct {
	reg  Registry
	desc Descriptor

	defaultTarget int64
	minTarget     int64
	maxTarget     int64
	fixed         bool // Apply always restores defaultTarget
	resetDefault  bool // Reset restores defaultTarget rather than the applied one
}

// NewCountdown returns the adapter for the countdown tool (up to 99 hours).
func NewCountdown(reg Registry) *Countdown {
	return &Countdown{
		reg:           reg,
		desc:          CountdownTool,
		defaultTarget: defaultCountdownTarget.Milliseconds(),
		minTarget:     time.Second.Milliseconds(),
		maxTarget:     maxCountdownTarget.Milliseconds(),
	}
}

// NewAnalog returns the adapter for the analog timer (1 second to 12 hours).
func NewAnalog(reg Registry) *Countdown {
	return &Countdown{
		reg:           reg,
		desc:          AnalogTool,
		defaultTarget: defaultCountdownTarget.Milliseconds(),
		minTarget:     time.Second.Milliseconds(),
		maxTarget:     maxAnalogTarget.Milliseconds(),
		resetDefault:  true,
	}
}

// NewPomodoro returns the adapter for the fixed sixty-second timer.
func NewPomodoro(reg Registry) *Countdown {
	ms := pomodoroTarget.Milliseconds()
	return &Countdown{
		reg:           reg,
		desc:          PomodoroTool,
		defaultTarget: ms,
		minTarget:     ms,
		maxTarget:     ms,
		fixed:         true,
	}
}

// Descriptor returns the tool identity.
func (c *Countdown) Descriptor() Descriptor { return c.desc }

// Mount returns the stored entity, or the paused default when none exists.
func (c *Countdown) Mount() timer.Entity {
	cur, ok := c.reg.Get(c.desc.ID)
	return c.base(cur, ok)
}

// Toggle starts or pauses. Starting an expired countdown reloads its target.
func (c *Countdown) Toggle() timer.Entity {
	e, _ := c.reg.Update(c.desc.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		if next.Running {
			next.Running = false
			return next, true
		}
		return c.start(next), true
	})
	return e
}

// Start runs the countdown; it is a no-op when already running.
func (c *Countdown) Start() timer.Entity {
	e, _ := c.reg.Update(c.desc.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		return c.start(c.base(cur, ok)), true
	})
	return e
}

// Pause stops the countdown where it is. Pausing a tool with no stored
// entity stores nothing.
func (c *Countdown) Pause() timer.Entity {
	e, ok := c.reg.Update(c.desc.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		cur.Running = false
		return cur, ok
	})
	if !ok {
		return c.Mount()
	}
	return e
}

// Reset pauses and refills the countdown.
func (c *Countdown) Reset() timer.Entity {
	e, _ := c.reg.Update(c.desc.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		if c.resetDefault {
			next.Target = c.defaultTarget
		}
		next.Current = next.Target
		next.Running = false
		return next, true
	})
	return e
}

// Apply sets a new duration from hours, minutes and seconds. Fields are
// clamped first; the result is paused at the new target even if the
// countdown was running.
func (c *Countdown) Apply(hours, minutes, seconds int) timer.Entity {
	target := c.defaultTarget
	if !c.fixed {
		target = hmsToMs(Clamp(hours, 0, 99), Clamp(minutes, 0, 59), Clamp(seconds, 0, 59))
		target = min(max(target, c.minTarget), c.maxTarget)
	}
	e, _ := c.reg.Update(c.desc.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		next.Target = target
		next.Current = target
		next.Running = false
		return next, true
	})
	return e
}

func (c *Countdown) start(e timer.Entity) timer.Entity {
	if e.Running {
		return e
	}
	if e.Current == 0 {
		e.Current = e.Target
	}
	e.Running = true
	return e
}

// base normalizes a stored entity, or builds the default one.
func (c *Countdown) base(cur timer.Entity, ok bool) timer.Entity {
	next := c.desc.Entity()
	if !ok {
		next.Target = c.defaultTarget
		next.Current = c.defaultTarget
		return next
	}
	next.Current = cur.Current
	next.Running = cur.Running
	next.Target = cur.Target
	if next.Target <= 0 {
		next.Target = c.defaultTarget
	}
	return next
}
