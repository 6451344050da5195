package tools

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // world clock zones must resolve without a system zoneinfo

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// Zone is one world clock city.
type Zone struct {
	City string `yaml:"city" json:"city"`
	TZ   string `yaml:"zone" json:"zone"`
}

// PresetZones is the default world clock list.
var PresetZones = []Zone{
	{City: "UTC", TZ: "UTC"},
	{City: "San Francisco", TZ: "America/Los_Angeles"},
	{City: "New York", TZ: "America/New_York"},
	{City: "São Paulo", TZ: "America/Sao_Paulo"},
	{City: "London", TZ: "Europe/London"},
	{City: "Berlin", TZ: "Europe/Berlin"},
	{City: "Dubai", TZ: "Asia/Dubai"},
	{City: "Mumbai", TZ: "Asia/Kolkata"},
	{City: "Singapore", TZ: "Asia/Singapore"},
	{City: "Tokyo", TZ: "Asia/Tokyo"},
	{City: "Sydney", TZ: "Australia/Sydney"},
}

// CityTime is one rendered world clock row.
type CityTime struct {
	Zone
	Time   string // 15:04:05
	Date   string // Mon, 2 Jan
	Offset string // UTC offset in hours, e.g. "+5.5"
}

// Clock publishes the home clock into the registry. The entity mirrors wall
// time and is refreshed by its owner; the tick engine leaves it alone.
type Clock struct {
	reg  Registry
	zone string
}

// NewClock returns the home clock adapter for an IANA zone ("" or "Local"
// for the system zone).
func NewClock(reg Registry, zone string) *Clock {
	return &Clock{reg: reg, zone: zone}
}

// Descriptor returns the tool identity.
func (c *Clock) Descriptor() Descriptor { return ClockTool }

// Publish stores the wall time now as the home clock entity.
func (c *Clock) Publish(now time.Time) timer.Entity {
	e, _ := c.reg.Update(ClockTool.ID, func(timer.Entity, bool) (timer.Entity, bool) {
		next := ClockTool.Entity()
		next.Current = now.UnixMilli()
		next.Running = true
		next.Clock = &timer.ClockMeta{Zone: c.zone}
		return next, true
	})
	return e
}

// Unpublish removes the home clock from the registry.
func (c *Clock) Unpublish() {
	c.reg.Remove(ClockTool.ID)
}

// LoadZone resolves an IANA zone name; "" and "Local" mean the system zone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}

// World renders zones at now, keeping cities whose name contains filter
// (case-insensitive). Zones that fail to load are skipped and reported in
// the returned error.
func World(now time.Time, zones []Zone, filter string) ([]CityTime, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	var (
		out  []CityTime
		errs []error
	)
	for _, z := range zones {
		if filter != "" && !strings.Contains(strings.ToLower(z.City), filter) {
			continue
		}
		loc, err := LoadZone(z.TZ)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		local := now.In(loc)
		_, offset := local.Zone()
		out = append(out, CityTime{
			Zone:   z,
			Time:   local.Format("15:04:05"),
			Date:   local.Format("Mon, 2 Jan"),
			Offset: OffsetLabel(offset),
		})
	}
	return out, errors.Join(errs...)
}

// OffsetLabel formats a UTC offset in seconds as signed hours with at most
// one decimal.
func OffsetLabel(seconds int) string {
	hours := float64(seconds) / 3600
	hours = math.Round(hours*10) / 10
	s := strconv.FormatFloat(hours, 'f', -1, 64)
	if hours >= 0 {
		return "+" + s
	}
	return s
}
