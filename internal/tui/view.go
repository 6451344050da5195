package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/DYAI2025/stoppclock/internal/format"
	"github.com/DYAI2025/stoppclock/internal/timer"
	"github.com/DYAI2025/stoppclock/internal/tools"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bigTimeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4)

	expiringStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("160"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	ringingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("196")).
			Padding(0, 2)

	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Padding(0, 1)
)

// toolColors maps entity color tokens to terminal colors.
var toolColors = map[string]lipgloss.Color{
	"countdown": lipgloss.Color("39"),
	"analog":    lipgloss.Color("141"),
	"interval":  lipgloss.Color("208"),
	"chess":     lipgloss.Color("252"),
	"alarm":     lipgloss.Color("196"),
	"lap":       lipgloss.Color("43"),
	"stopwatch": lipgloss.Color("82"),
	"clock":     lipgloss.Color("178"),
}

func colorFor(token string) lipgloss.Color {
	if c, ok := toolColors[token]; ok {
		return c
	}
	return lipgloss.Color("245")
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  stoppclock  " + screenNames[m.active])

	var tabParts []string
	for i := screenID(0); i < screenCount; i++ {
		label := fmt.Sprintf(" %d %s ", (i+1)%10, screenNames[i])
		if i == m.active {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < screenCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	rows := []string{title, tabRow, m.renderBar(), m.renderScreen()}
	if m.ringing != "" {
		rows = append(rows, ringingStyle.Render("⏰ "+m.ringing))
	}
	if m.notice != "" {
		rows = append(rows, dimStyle.Render("  "+m.notice))
	}
	rows = append(rows, "  "+m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderBar draws the active-timer bar, capped at the configured limit.
func (m Model) renderBar() string {
	shown, more := format.Cap(m.entities, m.opts.BarLimit)
	if len(shown) == 0 {
		return barStyle.Width(m.width).Render(dimStyle.Render("no active timers"))
	}
	var chips []string
	for _, e := range shown {
		state := "❚❚"
		if e.Running {
			state = "▶"
		}
		text := fmt.Sprintf(" %s %s %s ", state, e.Name, format.Time(e))
		style := lipgloss.NewStyle().Foreground(colorFor(e.Color))
		if format.Expiring(e) {
			style = expiringStyle
		}
		chips = append(chips, style.Render(text))
	}
	if more > 0 {
		chips = append(chips, dimStyle.Render(fmt.Sprintf(" +%d more", more)))
	}
	return barStyle.Width(m.width).Render(strings.Join(chips, " "))
}

func (m Model) renderScreen() string {
	switch m.active {
	case screenStopwatch:
		return m.renderStopwatch(m.entity(tools.StopwatchTool, m.stopwatch.Mount))
	case screenLap:
		return m.renderStopwatch(m.entity(tools.LapTool, m.lap.Mount))
	case screenCountdown, screenAnalog, screenPomodoro:
		c := m.countdownFor(m.active)
		return m.renderCountdown(m.entity(c.Descriptor(), c.Mount))
	case screenRounds:
		return m.renderRounds(m.entity(tools.RoundsTool, m.rounds.Mount))
	case screenChess:
		return m.renderChess(m.entity(tools.ChessTool, m.chess.Mount))
	case screenClock:
		return m.renderClock()
	case screenAlarms:
		return m.renderAlarms()
	case screenMetronome:
		return m.renderMetronome()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n"
}

func bigTime(e timer.Entity) string {
	style := bigTimeStyle.Foreground(colorFor(e.Color))
	if format.Expiring(e) {
		style = style.Foreground(lipgloss.Color("196"))
	}
	return style.Render(format.Time(e))
}

func (m Model) renderCountdown(e timer.Entity) string {
	var sb strings.Builder
	sb.WriteString(heading(e.Name))
	sb.WriteString(bigTime(e) + "\n")
	sb.WriteString("  " + m.progress.ViewAs(format.Progress(e)) + "\n\n")
	sb.WriteString(labelStyle.Render("  Status:") + "  " + format.Status(e) + "\n")
	sb.WriteString(labelStyle.Render("  Target:") + "  " + format.Remaining(e.Target) + "\n")
	return sb.String()
}

func (m Model) renderRounds(e timer.Entity) string {
	v := m.rounds.View(e)
	var sb strings.Builder
	sb.WriteString(heading(e.Name))
	sb.WriteString(bigTime(e) + "\n")
	if v.Target > 0 {
		sb.WriteString("  " + m.progress.ViewAs(float64(v.Remaining)/float64(v.Target)) + "\n\n")
	}
	sb.WriteString(labelStyle.Render("  Round:") + fmt.Sprintf("   %d/%d  %s\n", v.Round, v.Total, v.Phase))
	c := v.Config
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  work %d:%02d  rest %d:%02d",
		c.WorkMinutes, c.WorkSeconds, c.RestMinutes, c.RestSeconds)) + "\n")
	return sb.String()
}

func (m Model) renderChess(e timer.Entity) string {
	v := m.chess.View(e)
	side := func(s timer.Side, label string, ms int64) string {
		text := fmt.Sprintf("%s\n%s", label, format.Remaining(ms))
		style := lipgloss.NewStyle().Padding(1, 3).Border(lipgloss.RoundedBorder())
		switch {
		case v.Lost == s:
			style = style.BorderForeground(lipgloss.Color("196")).Foreground(lipgloss.Color("196"))
			text += "\nflag fallen"
		case v.Active == s && v.Running:
			style = style.BorderForeground(lipgloss.Color("82")).Bold(true)
		default:
			style = style.BorderForeground(lipgloss.Color("240"))
		}
		return style.Render(text)
	}
	var sb strings.Builder
	sb.WriteString(heading(e.Name))
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		"  ", side(timer.SideLeft, v.LabelLeft, v.Left), "  ", side(timer.SideRight, v.LabelRight, v.Right)) + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d min + %ds", v.BaseMinutes, v.IncrementSec)) + "\n")
	return sb.String()
}

const maxLapsShown = 10

func (m Model) renderStopwatch(e timer.Entity) string {
	var sb strings.Builder
	sb.WriteString(heading(e.Name))
	sb.WriteString(bigTime(e) + "\n")
	if e.Laps == nil || len(e.Laps.Laps) == 0 {
		sb.WriteString(dimStyle.Render("  (no laps)") + "\n")
		return sb.String()
	}
	laps := e.Laps.Laps
	for i, l := range laps[:min(len(laps), maxLapsShown)] {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			labelStyle.Render(fmt.Sprintf("Lap %-3d", len(laps)-i)),
			format.Elapsed(l.Split),
			dimStyle.Render(format.Elapsed(l.Time))))
	}
	if len(laps) > maxLapsShown {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d earlier", len(laps)-maxLapsShown)) + "\n")
	}
	return sb.String()
}

func (m Model) renderClock() string {
	var sb strings.Builder
	sb.WriteString(heading("Clock"))
	home := m.entity(tools.ClockTool, func() timer.Entity {
		e := tools.ClockTool.Entity()
		e.Current = m.now.UnixMilli()
		e.Clock = &timer.ClockMeta{Zone: m.opts.HomeZone}
		return e
	})
	sb.WriteString(bigTime(home) + "\n")

	cities, err := tools.World(m.now, m.opts.Zones, "")
	if len(cities) > 0 {
		sb.WriteString(heading("World"))
	}
	for _, c := range cities {
		sb.WriteString(fmt.Sprintf("  %-14s %s  %s  %s\n",
			c.City, c.Time, dimStyle.Render(c.Date), dimStyle.Render("UTC"+c.Offset)))
	}
	if err != nil {
		sb.WriteString(dimStyle.Render("  "+err.Error()) + "\n")
	}
	return sb.String()
}

func (m Model) renderAlarms() string {
	var sb strings.Builder
	sb.WriteString(heading("Alarms"))
	if m.alarms == nil {
		sb.WriteString(dimStyle.Render("  (alarms unavailable)") + "\n")
		return sb.String()
	}
	list := m.alarms.List()
	if len(list) == 0 {
		sb.WriteString(dimStyle.Render("  (none; add one with `stoppclock alarm add HH:MM`)") + "\n")
		return sb.String()
	}
	for i, a := range list {
		mark := "○"
		if a.Enabled {
			mark = "●"
		}
		row := fmt.Sprintf("  %s  %s  %s", mark, a.Time, a.Label)
		if i == m.alarmCursor {
			row = selectedRowStyle.Render(row)
		}
		sb.WriteString(row + "\n")
	}
	if next, at, ok := m.alarms.Next(m.now); ok {
		sb.WriteString("\n" + labelStyle.Render("  Next:") + fmt.Sprintf("  %s at %s (in %s)\n",
			next.Label, at.Format("Mon 15:04"), at.Sub(m.now).Round(time.Minute)))
	}
	return sb.String()
}

func (m Model) renderMetronome() string {
	var sb strings.Builder
	sb.WriteString(heading("Metronome"))
	sb.WriteString(bigTimeStyle.Render(fmt.Sprintf("%d BPM", m.metronome.BPM())) + "\n")
	dots := make([]string, tools.BeatsPerBar)
	for i := range dots {
		switch {
		case m.metronome.Running() && i == m.metronome.Beat():
			dots[i] = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("●")
		default:
			dots[i] = dimStyle.Render("○")
		}
	}
	sb.WriteString("    " + strings.Join(dots, " ") + "\n")
	return sb.String()
}
