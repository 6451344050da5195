package format

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// Names of the supported output formats.
const (
	Text     = "text"
	Markdown = "markdown"
	JSON     = "json"
)

const (
	markdownSentinel = "<!-- stoppclock-snapshot-version: 1 -->"
	markdownPrefix   = "<!-- stoppclock-data: "
	markdownSuffix   = " -->"
)

// Snapshot is an exported copy of the registry.
type Snapshot struct {
	ExportedAt time.Time      `json:"exported_at"`
	Timers     []timer.Entity `json:"timers"`
}

// Renderer serializes a snapshot.
type Renderer interface {
	Render(s *Snapshot) ([]byte, error)
}

// NewRenderer returns the renderer for a format name.
func NewRenderer(name string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", Text:
		return &TextRenderer{}, nil
	case Markdown, "md":
		return &MarkdownRenderer{}, nil
	case JSON:
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want text, markdown or json)", name)
}

// JSONRenderer renders indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(s *Snapshot) ([]byte, error) {
	out := *s
	if out.Timers == nil {
		out.Timers = []timer.Entity{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// TextRenderer renders an aligned table for terminals.
type TextRenderer struct{}

func (r *TextRenderer) Render(s *Snapshot) ([]byte, error) {
	if len(s.Timers) == 0 {
		return []byte("No active timers.\n"), nil
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTATUS\tDETAIL")
	for _, e := range s.Timers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, Time(e), Status(e), Detail(e))
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// MarkdownRenderer renders a readable table with the snapshot embedded as
// base64 JSON so the file can be imported again.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(s *Snapshot) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(markdownSentinel + "\n")
	sb.WriteString(markdownPrefix + base64.StdEncoding.EncodeToString(payload) + markdownSuffix + "\n\n")

	fmt.Fprintf(&sb, "# Active timers — %s\n\n", s.ExportedAt.Format("2006-01-02 15:04:05 MST"))
	if len(s.Timers) == 0 {
		sb.WriteString("_No active timers._\n")
		return []byte(sb.String()), nil
	}
	sb.WriteString("| Timer | Time | Status | Detail | Route |\n")
	sb.WriteString("|-------|------|--------|--------|-------|\n")
	for _, e := range s.Timers {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | `%s` |\n", e.Name, Time(e), Status(e), Detail(e), e.Path)
	}
	return []byte(sb.String()), nil
}

// Detail is a short kind-specific annotation: round progress, the chess
// clocks, or the lap count.
func Detail(e timer.Entity) string {
	switch e.Kind {
	case timer.KindRounds:
		if e.Rounds == nil {
			return ""
		}
		phase := "work"
		if !e.InWork() {
			phase = "rest"
		}
		round := min(e.Rounds.CurrentRound, e.Rounds.TotalRounds)
		return fmt.Sprintf("round %d/%d %s", round, e.Rounds.TotalRounds, phase)
	case timer.KindChess:
		if e.Chess == nil {
			return ""
		}
		return fmt.Sprintf("%s %s / %s %s, %s to move",
			e.Chess.Label(timer.SideLeft), Remaining(e.Chess.LeftMs),
			e.Chess.Label(timer.SideRight), Remaining(e.Chess.RightMs),
			e.Chess.Label(e.Chess.ActiveSide))
	case timer.KindStopwatch, timer.KindLap:
		if e.Laps == nil || len(e.Laps.Laps) == 0 {
			return ""
		}
		return fmt.Sprintf("%d laps", len(e.Laps.Laps))
	case timer.KindCountdown, timer.KindAnalog:
		return "of " + Remaining(e.Target)
	case timer.KindClock:
		if e.Clock != nil && e.Clock.Zone != "" {
			return e.Clock.Zone
		}
	}
	return ""
}
