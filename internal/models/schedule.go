package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday is a day of the week encoded as a three-letter name ("Mon".."Sun").
type Weekday time.Weekday

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Week lists the days Monday first, the order pages render them in.
var Week = []Weekday{
	Weekday(time.Monday), Weekday(time.Tuesday), Weekday(time.Wednesday),
	Weekday(time.Thursday), Weekday(time.Friday), Weekday(time.Saturday), Weekday(time.Sunday),
}

func (d Weekday) String() string {
	if d < 0 || int(d) >= len(weekdayNames) {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday accepts short or full English day names, case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for i, name := range weekdayNames {
		full := time.Weekday(i).String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, full) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid day %q", s)
}

func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Weekday) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ClockTime is a time of day in seconds since midnight.
type ClockTime int

const secondsPerDay = 24 * 60 * 60

// ParseClockTime accepts "HH:MM" or "HH:MM:SS".
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", s)
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c ClockTime) String() string {
	h, m, s := int(c)/3600, int(c)%3600/60, int(c)%60
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ScheduleEntry opens a valve on Day between Begin and End.
type ScheduleEntry struct {
	Day   Weekday   `json:"day"`
	Begin ClockTime `json:"begin"`
	End   ClockTime `json:"end"`
}

// Validate checks the time range.
func (e ScheduleEntry) Validate() error {
	if e.Day < 0 || int(e.Day) >= len(weekdayNames) {
		return fmt.Errorf("invalid day %d", int(e.Day))
	}
	if e.Begin < 0 || e.End > secondsPerDay {
		return fmt.Errorf("time range %s-%s out of day bounds", e.Begin, e.End)
	}
	if e.Begin >= e.End {
		return fmt.Errorf("begin %s must be before end %s", e.Begin, e.End)
	}
	return nil
}

// Covers reports whether t falls strictly inside the entry on its weekday.
func (e ScheduleEntry) Covers(t time.Time) bool {
	if Weekday(t.Weekday()) != e.Day {
		return false
	}
	c := ClockOf(t)
	return e.Begin < c && c < e.End
}
