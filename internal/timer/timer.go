// Package timer defines the shape of one tracked timer instance. Entities are
// plain values: the tick engine and the tool adapters compute the next value
// and hand it to the registry, which is the only place they are stored.
package timer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind selects the tick rule and the display format of an entity.
type Kind string

const (
	KindStopwatch Kind = "stopwatch"
	KindCountdown Kind = "countdown"
	KindRounds    Kind = "rounds"
	KindAnalog    Kind = "analog"
	KindChess     Kind = "chess"
	KindClock     Kind = "clock"
	KindLap       Kind = "lap"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindStopwatch, KindCountdown, KindRounds, KindAnalog, KindChess, KindClock, KindLap}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// CountsUp reports whether the time field holds elapsed rather than remaining time.
func (k Kind) CountsUp() bool {
	return k == KindStopwatch || k == KindLap
}

// Side names one half of a chess clock.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Valid reports whether s is left or right.
func (s Side) Valid() bool { return s == SideLeft || s == SideRight }

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Entity is one active timer. Current holds elapsed milliseconds for
// count-up kinds and remaining milliseconds for everything else.
//
// Exactly one of the meta pointers is meaningful for a given kind; a nil
// pointer where the kind needs one marks the entity as malformed.
type Entity struct {
	ID      string
	Kind    Kind
	Name    string
	Color   string
	Current int64
	Running bool
	Target  int64 // 0 when the kind has no target
	Working *bool // rounds phase: true=work, false=rest
	Path    string

	Chess  *ChessMeta
	Rounds *RoundsMeta
	Laps   *LapMeta
	Clock  *ClockMeta
}

// ChessMeta carries both clocks of a chess entity.
type ChessMeta struct {
	ActiveSide  Side   `json:"activeSide"`
	LeftMs      int64  `json:"leftMs"`
	RightMs     int64  `json:"rightMs"`
	Increment   int    `json:"increment"` // seconds
	BaseMinutes int    `json:"baseMinutes"`
	LabelLeft   string `json:"labelLeft,omitempty"`
	LabelRight  string `json:"labelRight,omitempty"`
	OutOfTime   bool   `json:"outOfTime,omitempty"`
}

// Remaining returns the clock of the given side.
func (m *ChessMeta) Remaining(side Side) int64 {
	if side == SideRight {
		return m.RightMs
	}
	return m.LeftMs
}

// SetRemaining replaces the clock of the given side.
func (m *ChessMeta) SetRemaining(side Side, ms int64) {
	if side == SideRight {
		m.RightMs = ms
		return
	}
	m.LeftMs = ms
}

// IncrementMs is the bonus added to a side on each legal tap.
func (m *ChessMeta) IncrementMs() int64 {
	return int64(m.Increment) * 1000
}

// Label returns the player label of a side.
func (m *ChessMeta) Label(side Side) string {
	if side == SideRight {
		return m.LabelRight
	}
	return m.LabelLeft
}

// RoundsMeta carries the configured session and its progress.
type RoundsMeta struct {
	RoundMinutes int `json:"roundMinutes"`
	RoundSeconds int `json:"roundSeconds"`
	RestMinutes  int `json:"restMinutes"`
	RestSeconds  int `json:"restSeconds"`
	TotalRounds  int `json:"totalRounds"`
	CurrentRound int `json:"currentRound"`
}

// WorkMs is the work phase target.
func (m *RoundsMeta) WorkMs() int64 {
	return int64(m.RoundMinutes*60+m.RoundSeconds) * 1000
}

// RestMs is the rest phase target.
func (m *RoundsMeta) RestMs() int64 {
	return int64(m.RestMinutes*60+m.RestSeconds) * 1000
}

// Lap is one recorded split.
type Lap struct {
	Time  int64 `json:"time"`
	Split int64 `json:"split"`
}

// LapMeta holds the splits of a stopwatch or lap entity, newest first.
type LapMeta struct {
	Laps      []Lap `json:"laps"`
	LastLapMs int64 `json:"lastLapMs"`
}

// ClockMeta records the zone a clock entity is rendered in.
type ClockMeta struct {
	Zone string `json:"zone,omitempty"`
}

// InWork reports whether a rounds entity is in its work phase. An unset
// flag counts as work.
func (e Entity) InWork() bool {
	return e.Working == nil || *e.Working
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Clone returns a deep copy so callers can mutate the result freely.
func (e Entity) Clone() Entity {
	out := e
	if e.Working != nil {
		out.Working = Bool(*e.Working)
	}
	if e.Chess != nil {
		c := *e.Chess
		out.Chess = &c
	}
	if e.Rounds != nil {
		r := *e.Rounds
		out.Rounds = &r
	}
	if e.Laps != nil {
		l := LapMeta{LastLapMs: e.Laps.LastLapMs}
		if e.Laps.Laps != nil {
			l.Laps = append([]Lap(nil), e.Laps.Laps...)
		}
		out.Laps = &l
	}
	if e.Clock != nil {
		c := *e.Clock
		out.Clock = &c
	}
	return out
}

var (
	errMissingID   = errors.New("missing id")
	errNegativeMs  = errors.New("negative time value")
	errUnknownKind = errors.New("unknown kind")
)

// Validate checks the invariants every stored entity must hold. It does not
// check per-kind meta; a missing variant is tolerated and skipped by the engine.
func (e Entity) Validate() error {
	if e.ID == "" {
		return errMissingID
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w %q", errUnknownKind, e.Kind)
	}
	if e.Current < 0 || e.Target < 0 {
		return errNegativeMs
	}
	return nil
}

// NewInstanceID mints a fresh id for tools that allow several instances.
func NewInstanceID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// wireEntity is the persisted JSON shape.
type wireEntity struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"type"`
	Name    string          `json:"name"`
	Color   string          `json:"color"`
	Current int64           `json:"currentTime"`
	Running bool            `json:"isRunning"`
	Target  int64           `json:"targetTime,omitempty"`
	Working *bool           `json:"isWorking,omitempty"`
	Path    string          `json:"path"`
	Meta    json.RawMessage `json:"meta,omitempty"`
}

// MarshalJSON writes the entity with its kind's meta variant under "meta".
func (e Entity) MarshalJSON() ([]byte, error) {
	w := wireEntity{
		ID:      e.ID,
		Kind:    e.Kind,
		Name:    e.Name,
		Color:   e.Color,
		Current: e.Current,
		Running: e.Running,
		Target:  e.Target,
		Working: e.Working,
		Path:    e.Path,
	}
	var meta any
	switch e.Kind {
	case KindChess:
		if e.Chess != nil {
			meta = e.Chess
		}
	case KindRounds:
		if e.Rounds != nil {
			meta = e.Rounds
		}
	case KindStopwatch, KindLap:
		if e.Laps != nil {
			meta = e.Laps
		}
	case KindClock:
		if e.Clock != nil {
			meta = e.Clock
		}
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("marshal %s meta: %w", e.Kind, err)
		}
		w.Meta = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the persisted shape. A meta object that does not fit
// the kind's variant leaves the variant nil instead of failing the entity.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var w wireEntity
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Entity{
		ID:      w.ID,
		Kind:    w.Kind,
		Name:    w.Name,
		Color:   w.Color,
		Current: w.Current,
		Running: w.Running,
		Target:  w.Target,
		Working: w.Working,
		Path:    w.Path,
	}
	if len(w.Meta) == 0 || string(w.Meta) == "null" {
		return nil
	}
	switch w.Kind {
	case KindChess:
		var m ChessMeta
		if json.Unmarshal(w.Meta, &m) == nil {
			e.Chess = &m
		}
	case KindRounds:
		var m RoundsMeta
		if json.Unmarshal(w.Meta, &m) == nil {
			e.Rounds = &m
		}
	case KindStopwatch, KindLap:
		var m LapMeta
		if json.Unmarshal(w.Meta, &m) == nil {
			e.Laps = &m
		}
	case KindClock:
		var m ClockMeta
		if json.Unmarshal(w.Meta, &m) == nil {
			e.Clock = &m
		}
	}
	return nil
}
