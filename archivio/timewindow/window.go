// Package timewindow decides whether a date/time-bounded entity is active.
//
// Windows are expressed the way admins author them: a start date
// ("2006-01-02"), an optional end date naming the day the window closes, and
// wall-clock start/end times ("15:04"). An end time earlier than the start
// time on a single-day window means it runs past midnight into the following
// day.
//
// Evaluation never returns an error. Malformed input yields an inactive
// window so a broken definition can never be used.
package timewindow

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Window is a parsed, absolute activity interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolve turns authored date/time fields into an absolute window in loc.
// An empty endDate means a single-day window.
func Resolve(startDate, endDate, startTime, endTime string, loc *time.Location) (Window, bool) {
	if loc == nil {
		loc = time.UTC
	}
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)
	startTime = strings.TrimSpace(startTime)
	endTime = strings.TrimSpace(endTime)

	if endDate == "" {
		endDate = startDate
	}

	sd, err := time.ParseInLocation(DateLayout, startDate, loc)
	if err != nil {
		return Window{}, false
	}
	ed, err := time.ParseInLocation(DateLayout, endDate, loc)
	if err != nil {
		return Window{}, false
	}
	st, ok := ParseClock(startTime)
	if !ok {
		return Window{}, false
	}
	et, ok := ParseClock(endTime)
	if !ok {
		return Window{}, false
	}

	start := at(sd, st, loc)
	end := at(ed, et, loc)
	// Clocks are validated as zero-padded HH:MM above, so string order is
	// time-of-day order. The end rolls to the next day only when it would
	// otherwise precede the start.
	if endTime < startTime && end.Before(start) {
		end = at(ed.AddDate(0, 0, 1), et, loc)
	}

	return Window{Start: start, End: end}, true
}

// IsActive reports whether now falls inside the authored window. Dates and
// times are interpreted in now's location.
func IsActive(startDate, endDate, startTime, endTime string, now time.Time) bool {
	w, ok := Resolve(startDate, endDate, startTime, endTime, now.Location())
	if !ok {
		return false
	}
	return w.Contains(now)
}

// ParseClock parses a zero-padded "HH:MM" wall-clock time.
func ParseClock(s string) (time.Duration, bool) {
	if len(s) != len(ClockLayout) {
		return 0, false
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// ValidDate reports whether s is a well-formed "YYYY-MM-DD" date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

// ValidClock reports whether s is a well-formed "HH:MM" time.
func ValidClock(s string) bool {
	_, ok := ParseClock(strings.TrimSpace(s))
	return ok
}

// Blocked reports whether a plain deadline is still in the future.
func Blocked(until *time.Time, now time.Time) bool {
	return until != nil && now.Before(*until)
}

func at(day time.Time, clock time.Duration, loc *time.Location) time.Time {
	h := int(clock / time.Hour)
	m := int((clock % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
}
