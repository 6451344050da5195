package tools

import "time"

const (
	MinBPM      = 40
	MaxBPM      = 240
	DefaultBPM  = 120
	BeatsPerBar = 4
)

// Metronome counts beats of a four-beat bar. It keeps no registry entity and
// is driven by whoever owns it calling Step once per Interval.
type Metronome struct {
	bpm     int
	beat    int
	running bool
}

// NewMetronome returns a stopped metronome at bpm (clamped).
func NewMetronome(bpm int) *Metronome {
	return &Metronome{bpm: Clamp(bpm, MinBPM, MaxBPM)}
}

func (m *Metronome) BPM() int      { return m.bpm }
func (m *Metronome) Beat() int     { return m.beat }
func (m *Metronome) Running() bool { return m.running }

// SetBPM changes the tempo, clamped to [MinBPM, MaxBPM].
func (m *Metronome) SetBPM(bpm int) {
	m.bpm = Clamp(bpm, MinBPM, MaxBPM)
}

// Interval is the time between beats.
func (m *Metronome) Interval() time.Duration {
	return time.Minute / time.Duration(m.bpm)
}

func (m *Metronome) Start() { m.running = true }

// Stop halts the metronome and rewinds to the first beat.
func (m *Metronome) Stop() {
	m.running = false
	m.beat = 0
}

// Toggle starts or stops.
func (m *Metronome) Toggle() {
	if m.running {
		m.Stop()
		return
	}
	m.Start()
}

// Step advances one beat while running and returns the current beat.
func (m *Metronome) Step() int {
	if m.running {
		m.beat = (m.beat + 1) % BeatsPerBar
	}
	return m.beat
}
