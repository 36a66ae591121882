package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/models"
	appErrors "github.com/noah-isme/session-scheduler/pkg/errors"
)

// slotGap separates consecutive candidate starts inside one window.
const slotGap = 30 * time.Minute

var (
	defaultTimeWindow = models.NewTimeWindow(9, 0, 17, 0)
	timeRangePattern  = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])-([01][0-9]|2[0-3]):([0-5][0-9])$`)
	dayFolder         = cases.Fold()
)

// dayNameIndex maps folded English and German day names onto weekdays.
var dayNameIndex = map[string]time.Weekday{
	"monday":     time.Monday,
	"mon":        time.Monday,
	"montag":     time.Monday,
	"tuesday":    time.Tuesday,
	"tue":        time.Tuesday,
	"dienstag":   time.Tuesday,
	"wednesday":  time.Wednesday,
	"wed":        time.Wednesday,
	"mittwoch":   time.Wednesday,
	"thursday":   time.Thursday,
	"thu":        time.Thursday,
	"donnerstag": time.Thursday,
	"friday":     time.Friday,
	"fri":        time.Friday,
	"freitag":    time.Friday,
	"saturday":   time.Saturday,
	"sat":        time.Saturday,
	"samstag":    time.Saturday,
	"sonnabend":  time.Saturday,
	"sunday":     time.Sunday,
	"sun":        time.Sunday,
	"sonntag":    time.Sunday,
}

// PreferenceParser turns raw day and time-range strings into typed preferences.
type PreferenceParser struct {
	logger *zap.Logger
}

// NewPreferenceParser builds a parser.
func NewPreferenceParser(logger *zap.Logger) *PreferenceParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceParser{logger: logger}
}

// ParseWeekdays resolves day names case-insensitively. Unknown or blank entries are
// skipped with a warning; an empty result falls back to Monday through Friday.
func (p *PreferenceParser) ParseWeekdays(names []string) (models.WeekdaySet, []string) {
	var (
		set      models.WeekdaySet
		warnings []string
	)
	for _, raw := range names {
		day, err := lookupDay(raw)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		set = set.With(day)
	}
	if set.IsEmpty() {
		set = models.DefaultWeekdays
	}
	if len(warnings) > 0 {
		p.logger.Debug("skipped invalid day names", zap.Strings("warnings", warnings))
	}
	return set, warnings
}

// ParseTimeWindows parses HH:MM-HH:MM entries. Invalid entries are skipped with a
// warning; no valid entry yields the 09:00-17:00 default.
func (p *PreferenceParser) ParseTimeWindows(ranges []string) ([]models.TimeWindow, []string) {
	var (
		windows  []models.TimeWindow
		warnings []string
	)
	for _, raw := range ranges {
		window, err := parseTimeRange(raw)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		windows = append(windows, window)
	}
	if len(windows) == 0 {
		windows = []models.TimeWindow{defaultTimeWindow}
	}
	if len(warnings) > 0 {
		p.logger.Debug("skipped invalid time ranges", zap.Strings("warnings", warnings))
	}
	return windows, warnings
}

// Validate runs the parsing checks without applying defaults and reports every violation.
// Empty lists are valid because parsing supplies defaults for them.
func (p *PreferenceParser) Validate(names, ranges []string) dto.PreferenceValidation {
	result := dto.PreferenceValidation{IsValid: true, Errors: []string{}}
	for _, raw := range names {
		if _, err := lookupDay(raw); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	for _, raw := range ranges {
		if _, err := parseTimeRange(raw); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// GenerateCandidateStarts enumerates session starts in [earliestStart, earliestStart+weeksAhead*7d)
// on selected weekdays. Inside each window starts advance by duration+30m of wall-clock time
// while the session still ends within the window. Only starts strictly after now are
// returned, sorted.
func (p *PreferenceParser) GenerateCandidateStarts(
	weekdays models.WeekdaySet,
	windows []models.TimeWindow,
	durationMinutes int,
	earliestStart time.Time,
	weeksAhead int,
	now time.Time,
) ([]time.Time, error) {
	if weekdays.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "weekdays must not be empty")
	}
	if len(windows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "time windows must not be empty")
	}
	if durationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "duration must be positive")
	}
	if weeksAhead <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "weeks ahead must be positive")
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := duration + slotGap
	firstDay := startOfDay(earliestStart)
	horizonEnd := earliestStart.AddDate(0, 0, weeksAhead*7)

	seen := make(map[int64]bool)
	var starts []time.Time
	// one extra day covers the morning of the last day in range.
	for i := 0; i <= weeksAhead*7; i++ {
		day := firstDay.AddDate(0, 0, i)
		if !weekdays.Contains(day.Weekday()) {
			continue
		}
		for _, window := range windows {
			for offset := window.StartOfDay; offset+duration <= window.EndOfDay; offset += step {
				start := atTimeOfDay(day, offset)
				if !start.After(now) || start.Before(earliestStart) || !start.Before(horizonEnd) {
					continue
				}
				key := start.UnixNano()
				if seen[key] {
					continue
				}
				seen[key] = true
				starts = append(starts, start)
			}
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts, nil
}

func lookupDay(raw string) (time.Weekday, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return 0, fmt.Errorf("empty day name ignored")
	}
	day, ok := dayNameIndex[dayFolder.String(name)]
	if !ok {
		return 0, fmt.Errorf("unknown day name %q ignored", name)
	}
	return day, nil
}

func parseTimeRange(raw string) (models.TimeWindow, error) {
	value := strings.TrimSpace(raw)
	matches := timeRangePattern.FindStringSubmatch(value)
	if matches == nil {
		return models.TimeWindow{}, fmt.Errorf("time range %q must match HH:MM-HH:MM", raw)
	}
	parts := make([]int, 4)
	for i := range parts {
		parts[i], _ = strconv.Atoi(matches[i+1])
	}
	window := models.NewTimeWindow(parts[0], parts[1], parts[2], parts[3])
	if window.StartOfDay >= window.EndOfDay {
		return models.TimeWindow{}, fmt.Errorf("time range %q must start before it ends", raw)
	}
	return window, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// atTimeOfDay returns the wall-clock time offset after midnight on day's date. Building it
// from the calendar keeps 14:00 at 14:00 on days where the zone shifts its UTC offset.
func atTimeOfDay(day time.Time, offset time.Duration) time.Time {
	year, month, date := day.Date()
	minutes := int(offset / time.Minute)
	return time.Date(year, month, date, minutes/60, minutes%60, 0, 0, day.Location())
}
