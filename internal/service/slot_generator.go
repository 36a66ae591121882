package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/session-scheduler/internal/models"
)

const defaultRescheduleWeeks = 12

var businessHoursWindow = models.NewTimeWindow(8, 0, 20, 0)

// isoWeekdays maps ISO day numbers (1=Monday .. 7=Sunday) to time.Weekday.
var isoWeekdays = map[int]time.Weekday{
	1: time.Monday,
	2: time.Tuesday,
	3: time.Wednesday,
	4: time.Thursday,
	5: time.Friday,
	6: time.Saturday,
	7: time.Sunday,
}

// SlotGenerator produces candidate slots for the two-party search and for reschedules.
type SlotGenerator struct {
	parser *PreferenceParser
	weeks  int
}

// NewSlotGenerator wraps a parser. weeks bounds the reschedule horizon.
func NewSlotGenerator(parser *PreferenceParser, weeks int) *SlotGenerator {
	if parser == nil {
		parser = NewPreferenceParser(nil)
	}
	if weeks <= 0 {
		weeks = defaultRescheduleWeeks
	}
	return &SlotGenerator{parser: parser, weeks: weeks}
}

// Generate delegates to the parser's candidate enumeration.
func (g *SlotGenerator) Generate(
	weekdays models.WeekdaySet,
	windows []models.TimeWindow,
	durationMinutes int,
	earliestStart time.Time,
	weeksAhead int,
	now time.Time,
) ([]time.Time, error) {
	return g.parser.GenerateCandidateStarts(weekdays, windows, durationMinutes, earliestStart, weeksAhead, now)
}

// GenerateForDays is the single-party mode used for reschedules. Days are ISO numbers
// and ranges are HH:MM-HH:MM; starts step by the smaller of one hour and the duration.
// Without usable ranges the 08:00-20:00 business window applies.
func (g *SlotGenerator) GenerateForDays(daysOfWeek []int, timeRanges []string, durationMinutes int, now time.Time) ([]models.CandidateSlot, []string) {
	var warnings []string
	if durationMinutes <= 0 {
		return nil, []string{"duration must be positive"}
	}

	var weekdays models.WeekdaySet
	for _, number := range daysOfWeek {
		day, ok := isoWeekdays[number]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("day of week %d ignored, expected 1-7", number))
			continue
		}
		weekdays = weekdays.With(day)
	}
	if weekdays.IsEmpty() {
		return nil, append(warnings, "no valid days of week supplied")
	}

	var windows []models.TimeWindow
	for _, raw := range timeRanges {
		window, err := parseTimeRange(raw)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		windows = append(windows, window)
	}
	if len(windows) == 0 {
		windows = []models.TimeWindow{businessHoursWindow}
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Hour
	if duration < step {
		step = duration
	}

	firstDay := startOfDay(now)
	seen := make(map[int64]bool)
	var slots []models.CandidateSlot
	for i := 0; i < g.weeks*7; i++ {
		day := firstDay.AddDate(0, 0, i)
		if !weekdays.Contains(day.Weekday()) {
			continue
		}
		for _, window := range windows {
			for offset := window.StartOfDay; offset+duration <= window.EndOfDay; offset += step {
				start := atTimeOfDay(day, offset)
				if !start.After(now) || seen[start.UnixNano()] {
					continue
				}
				seen[start.UnixNano()] = true
				slots = append(slots, models.CandidateSlot{Start: start, DurationMinutes: durationMinutes})
			}
		}
	}
	sortSlots(slots)
	return slots, warnings
}
