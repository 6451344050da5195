package tools

import (
	"strings"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

const (
	defaultChessMinutes = 5
	defaultLabelLeft    = "Player A"
	defaultLabelRight   = "Player B"
)

// ChessConfig is the match setup. Empty labels keep the current ones.
type ChessConfig struct {
	BaseMinutes      int
	IncrementSeconds int
	LabelLeft        string
	LabelRight       string
}

// ChessView is the read model for rendering a chess clock.
type ChessView struct {
	Left, Right  int64
	Active       timer.Side
	Running      bool
	Lost         timer.Side // empty unless a flag has fallen
	LabelLeft    string
	LabelRight   string
	BaseMinutes  int
	IncrementSec int
}

// Chess drives the two-player clock.
type Chess struct {
	reg Registry
}

// NewChess returns the chess clock adapter.
func NewChess(reg Registry) *Chess {
	return &Chess{reg: reg}
}

// Descriptor returns the tool identity.
func (c *Chess) Descriptor() Descriptor { return ChessTool }

// Mount returns the stored match, or a paused default match.
func (c *Chess) Mount() timer.Entity {
	cur, ok := c.reg.Get(ChessTool.ID)
	return c.base(cur, ok)
}

// View summarizes e for display.
func (c *Chess) View(e timer.Entity) ChessView {
	e = c.base(e, true)
	m := e.Chess
	v := ChessView{
		Left:         m.LeftMs,
		Right:        m.RightMs,
		Active:       m.ActiveSide,
		Running:      e.Running,
		LabelLeft:    m.LabelLeft,
		LabelRight:   m.LabelRight,
		BaseMinutes:  m.BaseMinutes,
		IncrementSec: m.Increment,
	}
	if !e.Running && m.Remaining(m.ActiveSide) == 0 {
		v.Lost = m.ActiveSide
	}
	return v
}

// Configure sets base time, increment and labels, and resets the match.
func (c *Chess) Configure(cfg ChessConfig) timer.Entity {
	e, _ := c.reg.Update(ChessTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		m := next.Chess
		m.BaseMinutes = Clamp(cfg.BaseMinutes, 1, 180)
		m.Increment = Clamp(cfg.IncrementSeconds, 0, 60)
		if l := strings.TrimSpace(cfg.LabelLeft); l != "" {
			m.LabelLeft = l
		}
		if l := strings.TrimSpace(cfg.LabelRight); l != "" {
			m.LabelRight = l
		}
		return resetMatch(next), true
	})
	return e
}

// Toggle starts or pauses the match. Starting refills any flagged clock and
// gives the move to the left player.
func (c *Chess) Toggle() timer.Entity {
	e, _ := c.reg.Update(ChessTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		if next.Running {
			next.Running = false
			return next, true
		}
		return startMatch(next), true
	})
	return e
}

// Start runs the match; it is a no-op when already running.
func (c *Chess) Start() timer.Entity {
	e, _ := c.reg.Update(ChessTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		if next.Running {
			return next, true
		}
		return startMatch(next), true
	})
	return e
}

// Pause stops both clocks in place.
func (c *Chess) Pause() timer.Entity {
	e, ok := c.reg.Update(ChessTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		cur.Running = false
		return cur, ok
	})
	if !ok {
		return c.Mount()
	}
	return e
}

// Tap ends the move of side. It is accepted only while the match runs and
// side is the one on move; an accepted tap credits the increment to side and
// passes the move. The second result reports acceptance.
func (c *Chess) Tap(side timer.Side) (timer.Entity, bool) {
	accepted := false
	e, _ := c.reg.Update(ChessTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		next := c.base(cur, ok)
		m := next.Chess
		if !next.Running || side != m.ActiveSide {
			return next, ok
		}
		m.SetRemaining(side, max(0, m.Remaining(side)+m.IncrementMs()))
		m.ActiveSide = side.Other()
		next.Current = m.Remaining(m.ActiveSide)
		accepted = true
		return next, true
	})
	if !accepted && e.ID == "" {
		e = c.Mount()
	}
	return e, accepted
}

// Reset refills both clocks from the base time and pauses.
func (c *Chess) Reset() timer.Entity {
	e, _ := c.reg.Update(ChessTool.ID, func(cur timer.Entity, ok bool) (timer.Entity, bool) {
		return resetMatch(c.base(cur, ok)), true
	})
	return e
}

func (c *Chess) base(cur timer.Entity, ok bool) timer.Entity {
	if !ok || cur.Chess == nil {
		e := ChessTool.Entity()
		e.Chess = &timer.ChessMeta{
			BaseMinutes: defaultChessMinutes,
			LabelLeft:   defaultLabelLeft,
			LabelRight:  defaultLabelRight,
		}
		return resetMatch(e)
	}
	next := cur.Clone()
	id := ChessTool.Entity()
	next.ID, next.Kind, next.Name, next.Color, next.Path = id.ID, id.Kind, id.Name, id.Color, id.Path
	m := next.Chess
	if !m.ActiveSide.Valid() {
		m.ActiveSide = timer.SideLeft
	}
	if m.BaseMinutes < 1 {
		m.BaseMinutes = defaultChessMinutes
	}
	if m.LabelLeft == "" {
		m.LabelLeft = defaultLabelLeft
	}
	if m.LabelRight == "" {
		m.LabelRight = defaultLabelRight
	}
	return next
}

func resetMatch(e timer.Entity) timer.Entity {
	m := e.Chess
	base := int64(m.BaseMinutes) * 60_000
	m.LeftMs, m.RightMs = base, base
	m.ActiveSide = timer.SideLeft
	m.OutOfTime = false
	e.Current = base
	e.Running = false
	return e
}

func startMatch(e timer.Entity) timer.Entity {
	m := e.Chess
	base := int64(m.BaseMinutes) * 60_000
	if m.LeftMs == 0 {
		m.LeftMs = base
	}
	if m.RightMs == 0 {
		m.RightMs = base
	}
	m.ActiveSide = timer.SideLeft
	m.OutOfTime = false
	e.Current = m.LeftMs
	e.Running = true
	return e
}
