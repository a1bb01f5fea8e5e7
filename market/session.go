package market

import (
	"fmt"
	"time"
)

const clockLayout = "15:04"

// Session describes one trading session of a day, e.g. the NY cash open.
type Session struct {
	Label            string `json:"label" yaml:"label"`
	Start            string `json:"start" yaml:"start"` // "09:30", local to Timezone
	End              string `json:"end" yaml:"end"`
	FormationMinutes int    `json:"formation_minutes" yaml:"formation_minutes"`
	Timezone         string `json:"timezone" yaml:"timezone"` // IANA name, empty = UTC
}

// SessionWindow holds the absolute bounds of a session on one day.
type SessionWindow struct {
	Start        time.Time
	FormationEnd time.Time
	End          time.Time
}

func (s Session) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("session.label is required")
	}
	if s.FormationMinutes <= 0 {
		return fmt.Errorf("session.formation_minutes must be positive")
	}
	start, err := time.Parse(clockLayout, s.Start)
	if err != nil {
		return fmt.Errorf("session.start: %w", err)
	}
	end, err := time.Parse(clockLayout, s.End)
	if err != nil {
		return fmt.Errorf("session.end: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("session.end must be after session.start")
	}
	if start.Add(time.Duration(s.FormationMinutes) * time.Minute).After(end) {
		return fmt.Errorf("session formation window exceeds session")
	}
	if _, err := s.location(); err != nil {
		return fmt.Errorf("session.timezone: %w", err)
	}
	return nil
}

// Window resolves the session clock times on the calendar date of day.
// Returned times are UTC.
func (s Session) Window(day time.Time) (SessionWindow, error) {
	loc, err := s.location()
	if err != nil {
		return SessionWindow{}, err
	}
	start, err := at(day, s.Start, loc)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session.start: %w", err)
	}
	end, err := at(day, s.End, loc)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session.end: %w", err)
	}
	return SessionWindow{
		Start:        start,
		FormationEnd: start.Add(time.Duration(s.FormationMinutes) * time.Minute),
		End:          end,
	}, nil
}

func (s Session) location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

func at(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	c, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc).UTC(), nil
}
