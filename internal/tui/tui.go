// Package tui provides the Bubble Tea interface: one screen per tool plus
// an active-timer bar that follows the registry.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DYAI2025/stoppclock/internal/format"
	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// ── Screens ─────────────────

type screenID int

const (
	screenStopwatch screenID = iota
	screenCountdown
	screenPomodoro
	screenRounds
	screenAnalog
	screenChess
	screenLap
	screenClock
	screenAlarms
	screenMetronome
	screenCount
)

var screenNames = [screenCount]string{
	"Stopwatch", "Countdown", "60s", "Rounds", "Analog", "Chess", "Lap", "Clock", "Alarms", "Metronome",
}

// screenTools maps registry-backed screens to their tool.
var screenTools = map[screenID]tools.Descriptor{
	screenStopwatch: tools.StopwatchTool,
	screenCountdown: tools.CountdownTool,
	screenPomodoro:  tools.PomodoroTool,
	screenRounds:    tools.RoundsTool,
	screenAnalog:    tools.AnalogTool,
	screenChess:     tools.ChessTool,
	screenLap:       tools.LapTool,
	screenClock:     tools.ClockTool,
}

func screenFor(d tools.Descriptor) (screenID, bool) {
	for id, t := range screenTools {
		if t.ID == d.ID {
			return id, true
		}
	}
	return 0, false
}

// ── Messages ─────────────────

type snapshotMsg []timer.Entity

type clockTickMsg time.Time

// beatMsg carries the generation it was scheduled in; beats from an older
// generation (before a stop or tempo change) are dropped.
type beatMsg struct{ gen int }

func waitForSnapshot(updates <-chan []timer.Entity) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		list, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(list)
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockTickMsg(t) })
}

func beat(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return beatMsg{gen: gen} })
}

// ── Model ────────────────────

// Store is what the interface needs from the registry: adapter access plus
// a read-only listing.
type Store interface {
	tools.Registry
	List() []timer.Entity
}

// Options configures presentation.
type Options struct {
	BarLimit int          // timers shown in the active bar; 0 or less shows all
	HomeZone string       // zone of the published home clock
	Zones    []tools.Zone // world clock cities
	Now      func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	store   Store
	updates <-chan []timer.Entity
	opts    Options

	countdown *tools.Countdown
	analog    *tools.Countdown
	pomodoro  *tools.Countdown
	rounds    *tools.Rounds
	chess     *tools.Chess
	stopwatch *tools.Stopwatch
	lap       *tools.Stopwatch
	clock     *tools.Clock
	alarms    *tools.Alarms
	metronome *tools.Metronome

	entities     []timer.Entity
	active       screenID
	focus        int // next bar entry the focus key jumps to
	alarmCursor  int
	clockMounted bool
	now          time.Time
	ringing      string // label of the alarm currently ringing
	rung         string // alarm id and minute last rung
	beatGen      int
	notice       string

	help     help.Model
	progress progress.Model
	width    int
	height   int
	ready    bool
}

// New creates the model. updates is the registry subscription the bar and
// screens render from; alarms may be nil to hide saved alarms.
func New(store Store, updates <-chan []timer.Entity, alarms *tools.Alarms, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		store:     store,
		updates:   updates,
		opts:      opts,
		countdown: tools.NewCountdown(store),
		analog:    tools.NewAnalog(store),
		pomodoro:  tools.NewPomodoro(store),
		rounds:    tools.NewRounds(store),
		chess:     tools.NewChess(store),
		stopwatch: tools.NewStopwatch(store),
		lap:       tools.NewLap(store),
		clock:     tools.NewClock(store, opts.HomeZone),
		alarms:    alarms,
		metronome: tools.NewMetronome(tools.DefaultBPM),
		entities:  store.List(),
		now:       opts.Now(),
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.updates), clockTick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.entities = []timer.Entity(msg)
		return m, waitForSnapshot(m.updates)

	case clockTickMsg:
		m.now = time.Time(msg)
		if m.clockMounted {
			m.clock.Publish(m.now)
			m.entities = m.store.List()
		}
		m.checkAlarms()
		return m, clockTick()

	case beatMsg:
		if msg.gen != m.beatGen || !m.metronome.Running() {
			return m, nil
		}
		m.metronome.Step()
		return m, beat(m.metronome.Interval(), m.beatGen)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-8, 60))
		m.ready = true
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.ringing = ""
	m.notice = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, keys.Next):
		m.show((m.active + 1) % screenCount)
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.show((m.active - 1 + screenCount) % screenCount)
		return m, nil
	case key.Matches(msg, keys.Focus):
		m.focusNext()
		return m, nil
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		n := int(s[0]-'0') - 1
		if n < 0 {
			n = 9
		}
		m.show(screenID(n))
		return m, nil
	}

	var cmd tea.Cmd
	switch m.active {
	case screenMetronome:
		cmd = m.metronomeKey(msg)
	case screenAlarms:
		m.alarmsKey(msg)
	case screenClock:
	default:
		m.toolKey(msg)
	}
	m.entities = m.store.List()
	return m, cmd
}

// toolKey handles the keys of the registry-backed timer screens.
func (m *Model) toolKey(msg tea.KeyMsg) {
	switch m.active {
	case screenStopwatch, screenLap:
		sw := m.stopwatch
		if m.active == screenLap {
			sw = m.lap
		}
		switch {
		case key.Matches(msg, keys.Toggle):
			sw.Toggle()
		case key.Matches(msg, keys.Reset):
			sw.Reset()
		case key.Matches(msg, keys.Lap):
			if _, ok := sw.Lap(); !ok {
				m.notice = "laps are recorded while running"
			}
		}

	case screenCountdown, screenAnalog, screenPomodoro:
		c := m.countdownFor(m.active)
		switch {
		case key.Matches(msg, keys.Toggle):
			c.Toggle()
		case key.Matches(msg, keys.Reset):
			c.Reset()
		case key.Matches(msg, keys.Plus):
			m.nudgeCountdown(c, time.Minute)
		case key.Matches(msg, keys.Minus):
			m.nudgeCountdown(c, -time.Minute)
		}

	case screenRounds:
		switch {
		case key.Matches(msg, keys.Toggle):
			m.rounds.Toggle()
		case key.Matches(msg, keys.Reset):
			m.rounds.Reset()
		case key.Matches(msg, keys.Plus), key.Matches(msg, keys.Minus):
			cfg := m.rounds.View(m.rounds.Mount()).Config
			cfg.Rounds += delta(msg)
			m.rounds.Apply(cfg)
		}

	case screenChess:
		switch {
		case key.Matches(msg, keys.Toggle):
			m.chess.Toggle()
		case key.Matches(msg, keys.Reset):
			m.chess.Reset()
		case key.Matches(msg, keys.TapLeft):
			m.chess.Tap(timer.SideLeft)
		case key.Matches(msg, keys.TapRight):
			m.chess.Tap(timer.SideRight)
		case key.Matches(msg, keys.Plus), key.Matches(msg, keys.Minus):
			v := m.chess.View(m.chess.Mount())
			m.chess.Configure(tools.ChessConfig{
				BaseMinutes:      v.BaseMinutes + delta(msg),
				IncrementSeconds: v.IncrementSec,
			})
		}
	}
}

func (m *Model) countdownFor(id screenID) *tools.Countdown {
	switch id {
	case screenAnalog:
		return m.analog
	case screenPomodoro:
		return m.pomodoro
	}
	return m.countdown
}

// nudgeCountdown changes the target by step, which pauses the countdown at
// the new target.
func (m *Model) nudgeCountdown(c *tools.Countdown, step time.Duration) {
	e := c.Mount()
	h, mm, s := tools.SplitMs(max(0, e.Target+step.Milliseconds()))
	c.Apply(h, mm, s)
}

func (m *Model) metronomeKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Toggle):
		m.metronome.Toggle()
	case key.Matches(msg, keys.Reset):
		m.metronome.Stop()
	case key.Matches(msg, keys.Plus), key.Matches(msg, keys.Minus):
		m.metronome.SetBPM(m.metronome.BPM() + 5*delta(msg))
	default:
		return nil
	}
	m.beatGen++
	if !m.metronome.Running() {
		return nil
	}
	return beat(m.metronome.Interval(), m.beatGen)
}

func (m *Model) alarmsKey(msg tea.KeyMsg) {
	if m.alarms == nil {
		return
	}
	list := m.alarms.List()
	switch {
	case key.Matches(msg, keys.Up):
		m.alarmCursor = max(0, m.alarmCursor-1)
	case key.Matches(msg, keys.Down):
		m.alarmCursor = max(0, min(len(list)-1, m.alarmCursor+1))
	case key.Matches(msg, keys.Enable), key.Matches(msg, keys.Toggle):
		if m.alarmCursor < len(list) {
			if _, err := m.alarms.Toggle(list[m.alarmCursor].ID); err != nil {
				m.notice = err.Error()
			}
		}
	case key.Matches(msg, keys.Delete):
		if m.alarmCursor < len(list) {
			if err := m.alarms.Delete(list[m.alarmCursor].ID); err != nil {
				m.notice = err.Error()
			}
			m.alarmCursor = max(0, min(m.alarmCursor, len(list)-2))
		}
	}
}

// show switches screens. Entering the clock screen mounts the home clock,
// which then keeps publishing every second.
func (m *Model) show(id screenID) {
	if id < 0 || id >= screenCount {
		return
	}
	m.active = id
	if id == screenClock && !m.clockMounted {
		m.clockMounted = true
		m.clock.Publish(m.opts.Now())
		m.entities = m.store.List()
	}
}

// focusNext navigates to the screen of the next timer in the active bar.
func (m *Model) focusNext() {
	bar, _ := format.Cap(m.entities, m.opts.BarLimit)
	if len(bar) == 0 {
		return
	}
	e := bar[m.focus%len(bar)]
	m.focus++
	if d, ok := tools.ByPath(e.Path); ok {
		if id, ok := screenFor(d); ok {
			m.show(id)
		}
	}
}

// checkAlarms rings each enabled alarm once in the minute it is set for.
func (m *Model) checkAlarms() {
	if m.alarms == nil {
		return
	}
	hhmm := m.now.Format("15:04")
	for _, a := range m.alarms.List() {
		if !a.Enabled || a.Time != hhmm {
			continue
		}
		mark := a.ID + "@" + m.now.Format("2006-01-02 15:04")
		if m.rung == mark {
			continue
		}
		m.rung = mark
		m.ringing = a.Label
	}
}

// entity returns the registry copy of a tool's entity, or its default.
func (m Model) entity(d tools.Descriptor, mount func() timer.Entity) timer.Entity {
	for _, e := range m.entities {
		if e.ID == d.ID {
			return e
		}
	}
	return mount()
}

func delta(msg tea.KeyMsg) int {
	if key.Matches(msg, keys.Minus) {
		return -1
	}
	return 1
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
