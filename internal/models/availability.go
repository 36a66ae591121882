package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeWindow is a daily range expressed as offsets from midnight.
type TimeWindow struct {
	StartOfDay time.Duration `json:"-"`
	EndOfDay   time.Duration `json:"-"`
}

// NewTimeWindow builds a window from hour/minute pairs.
func NewTimeWindow(startHour, startMinute, endHour, endMinute int) TimeWindow {
	return TimeWindow{
		StartOfDay: time.Duration(startHour)*time.Hour + time.Duration(startMinute)*time.Minute,
		EndOfDay:   time.Duration(endHour)*time.Hour + time.Duration(endMinute)*time.Minute,
	}
}

// Valid enforces start < end within a single day.
func (w TimeWindow) Valid() bool {
	return w.StartOfDay >= 0 && w.StartOfDay < w.EndOfDay && w.EndOfDay < 24*time.Hour
}

// Contains reports whether the time-of-day offset falls inside [start, end).
func (w TimeWindow) Contains(offset time.Duration) bool {
	return offset >= w.StartOfDay && offset < w.EndOfDay
}

// String renders the window as HH:MM-HH:MM.
func (w TimeWindow) String() string {
	return formatClock(w.StartOfDay) + "-" + formatClock(w.EndOfDay)
}

// MarshalJSON encodes the window in its textual form.
func (w TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func formatClock(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeOfDay returns the offset of t from its local midnight.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

// WeekdaySet is a set of weekdays stored as a bit mask indexed by time.Weekday.
type WeekdaySet uint8

// DefaultWeekdays is Monday through Friday.
var DefaultWeekdays = NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// weekOrder lists weekdays Monday first.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var set WeekdaySet
	for _, day := range days {
		set = set.With(day)
	}
	return set
}

// With returns a copy of the set including day.
func (s WeekdaySet) With(day time.Weekday) WeekdaySet {
	if day < time.Sunday || day > time.Saturday {
		return s
	}
	return s | 1<<uint(day)
}

// Contains reports membership.
func (s WeekdaySet) Contains(day time.Weekday) bool {
	return s&(1<<uint(day)) != 0
}

// Len returns the number of days in the set.
func (s WeekdaySet) Len() int {
	count := 0
	for _, day := range weekOrder {
		if s.Contains(day) {
			count++
		}
	}
	return count
}

// IsEmpty reports whether no day is set.
func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Days returns the members Monday first.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, day := range weekOrder {
		if s.Contains(day) {
			days = append(days, day)
		}
	}
	return days
}

// String renders the set as short English names, e.g. "Mon, Wed".
func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, day := range s.Days() {
		names = append(names, day.String()[:3])
	}
	return strings.Join(names, ", ")
}

// MarshalJSON encodes the set as a list of English day names.
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, 7)
	for _, day := range s.Days() {
		names = append(names, day.String())
	}
	return json.Marshal(names)
}

// CandidateSlot is a start time satisfying day, window and duration constraints.
type CandidateSlot struct {
	Start           time.Time        `json:"start"`
	DurationMinutes int              `json:"duration_minutes"`
	Conflict        ConflictSeverity `json:"conflict"`
}

// End returns Start + duration.
func (s CandidateSlot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
