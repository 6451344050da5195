package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DYAI2025/stoppclock/internal/storage"
	"github.com/DYAI2025/stoppclock/internal/timer"
)

// AlarmsKey is the storage key of the alarm list. It is tool-local state kept
// apart from the registry key.
const AlarmsKey = "stoppclock-alarms"

// ErrAlarmNotFound is returned when an alarm id is unknown.
var ErrAlarmNotFound = errors.New("alarm not found")

// Alarm is one daily alarm.
type Alarm struct {
	ID      string `json:"id"`
	Time    string `json:"time"` // HH:MM
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Alarms is the persisted alarm list.
type Alarms struct {
	backend storage.Backend
	log     *zap.Logger

	mu   sync.Mutex
	list []Alarm
}

// LoadAlarms reads the alarm list from backend. A missing or unreadable
// list starts empty; the latter is logged.
func LoadAlarms(backend storage.Backend, log *zap.Logger) *Alarms {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Alarms{backend: backend, log: log}
	data, err := backend.Load(AlarmsKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		log.Warn("failed to load alarms", zap.String("key", AlarmsKey), zap.Error(err))
	default:
		if err := json.Unmarshal(data, &a.list); err != nil {
			log.Warn("discarding unreadable alarms", zap.String("key", AlarmsKey), zap.Error(err))
			a.list = nil
		}
	}
	return a
}

// List returns the alarms in creation order.
func (a *Alarms) List() []Alarm {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Alarm(nil), a.list...)
}

// Add creates an enabled alarm. An empty label becomes "Alarm".
func (a *Alarms) Add(at, label string) (Alarm, error) {
	h, m, err := ParseAlarmTime(at)
	if err != nil {
		return Alarm{}, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = "Alarm"
	}
	alarm := Alarm{
		ID:      timer.NewInstanceID("alarm"),
		Time:    fmt.Sprintf("%02d:%02d", h, m),
		Label:   label,
		Enabled: true,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = append(a.list, alarm)
	a.saveLocked()
	return alarm, nil
}

// Toggle flips an alarm between enabled and disabled.
func (a *Alarms) Toggle(id string) (Alarm, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.list {
		if a.list[i].ID == id {
			a.list[i].Enabled = !a.list[i].Enabled
			a.saveLocked()
			return a.list[i], nil
		}
	}
	return Alarm{}, fmt.Errorf("%w: %s", ErrAlarmNotFound, id)
}

// Delete removes an alarm.
func (a *Alarms) Delete(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.list {
		if a.list[i].ID == id {
			a.list = append(a.list[:i], a.list[i+1:]...)
			a.saveLocked()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAlarmNotFound, id)
}

// Next returns the enabled alarm that rings soonest after now, and when.
func (a *Alarms) Next(now time.Time) (Alarm, time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var (
		best   Alarm
		bestAt time.Time
		found  bool
	)
	for _, alarm := range a.list {
		if !alarm.Enabled {
			continue
		}
		at, err := alarm.NextAfter(now)
		if err != nil {
			continue
		}
		if !found || at.Before(bestAt) {
			best, bestAt, found = alarm, at, true
		}
	}
	return best, bestAt, found
}

// NextAfter returns the first time strictly after now at which the alarm
// rings, in now's location.
func (al Alarm) NextAfter(now time.Time) (time.Time, error) {
	h, m, err := ParseAlarmTime(al.Time)
	if err != nil {
		return time.Time{}, err
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}

// ParseAlarmTime parses "HH:MM" (24-hour clock, one-digit hours allowed).
func ParseAlarmTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid alarm time %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func (a *Alarms) saveLocked() {
	list := a.list
	if list == nil {
		list = []Alarm{}
	}
	data, err := json.Marshal(list)
	if err == nil {
		err = a.backend.Save(AlarmsKey, data)
	}
	if err != nil {
		a.log.Warn("failed to persist alarms", zap.String("key", AlarmsKey), zap.Error(err))
	}
}
