package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/models"
)

const (
	windowExpansion = time.Hour
	earliestRelaxed = 6 * time.Hour
	latestRelaxed   = 23 * time.Hour
)

type relaxation struct {
	description string
	weekdays    models.WeekdaySet
	windows     []models.TimeWindow
	confidence  float64
	deviation   float64
}

// AlternativeOptionGenerator proposes relaxed preferences when a request cannot be met.
type AlternativeOptionGenerator struct {
	finder mutualSlotFinder
	logger *zap.Logger
}

// NewAlternativeOptionGenerator builds the generator.
func NewAlternativeOptionGenerator(finder mutualSlotFinder, logger *zap.Logger) *AlternativeOptionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlternativeOptionGenerator{finder: finder, logger: logger}
}

// Generate tests up to three relaxations and returns those reaching SessionsNeeded,
// highest confidence first.
func (g *AlternativeOptionGenerator) Generate(ctx context.Context, req dto.SchedulingRequest, now time.Time) ([]dto.AlternativeOption, error) {
	options := make([]dto.AlternativeOption, 0, 3)
	for _, candidate := range relaxationsFor(req) {
		slots, err := g.finder.FindMutualSlots(ctx, req.PartyAID, req.PartyBID, candidate.weekdays, candidate.windows, req.SessionsNeeded, req.SessionDurationMinutes, now)
		if err != nil {
			return nil, err
		}
		if len(slots) < req.SessionsNeeded {
			g.logger.Debug("relaxation insufficient",
				zap.String("relaxation", candidate.description),
				zap.Int("available", len(slots)),
			)
			continue
		}
		options = append(options, dto.AlternativeOption{
			Description:        candidate.description,
			RelaxedWeekdays:    candidate.weekdays,
			RelaxedTimeWindows: candidate.windows,
			AvailableCount:     len(slots),
			ConfidenceScore:    candidate.confidence,
			DeviationScore:     candidate.deviation,
		})
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].ConfidenceScore > options[j].ConfidenceScore })
	return options, nil
}

// relaxationsFor lists the variants that differ from the request.
func relaxationsFor(req dto.SchedulingRequest) []relaxation {
	var out []relaxation

	if adjacent := adjacentDays(req.Weekdays); adjacent != req.Weekdays {
		out = append(out, relaxation{
			description: "Include adjacent days: " + adjacent.String(),
			weekdays:    adjacent,
			windows:     req.TimeWindows,
			confidence:  0.8,
			deviation:   0.2,
		})
	}

	if widened := widenWindows(req.TimeWindows); !sameWindows(widened, req.TimeWindows) {
		out = append(out, relaxation{
			description: "Expand time windows by one hour: " + describeWindows(widened),
			weekdays:    req.Weekdays,
			windows:     widened,
			confidence:  0.7,
			deviation:   0.3,
		})
	}

	if !req.Weekdays.Contains(time.Saturday) && !req.Weekdays.Contains(time.Sunday) {
		out = append(out, relaxation{
			description: "Include weekends",
			weekdays:    req.Weekdays.With(time.Saturday).With(time.Sunday),
			windows:     req.TimeWindows,
			confidence:  0.6,
			deviation:   0.4,
		})
	}
	return out
}

// adjacentDays adds the day before and after each requested day; weekend days are only
// added when the request already contains them.
func adjacentDays(set models.WeekdaySet) models.WeekdaySet {
	result := set
	for _, day := range set.Days() {
		for _, neighbour := range []time.Weekday{(day + 6) % 7, (day + 1) % 7} {
			if isWeekend(neighbour) && !set.Contains(neighbour) {
				continue
			}
			result = result.With(neighbour)
		}
	}
	return result
}

// widenWindows moves every edge out by an hour without crossing 06:00 or 23:00.
// Edges already outside that range are left where they are.
func widenWindows(windows []models.TimeWindow) []models.TimeWindow {
	widened := make([]models.TimeWindow, 0, len(windows))
	for _, window := range windows {
		start := window.StartOfDay - windowExpansion
		if start < earliestRelaxed {
			start = earliestRelaxed
		}
		if start > window.StartOfDay {
			start = window.StartOfDay
		}
		end := window.EndOfDay + windowExpansion
		if end > latestRelaxed {
			end = latestRelaxed
		}
		if end < window.EndOfDay {
			end = window.EndOfDay
		}
		widened = append(widened, models.TimeWindow{StartOfDay: start, EndOfDay: end})
	}
	return widened
}

func sameWindows(a, b []models.TimeWindow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func describeWindows(windows []models.TimeWindow) string {
	parts := make([]string, 0, len(windows))
	for _, window := range windows {
		parts = append(parts, window.String())
	}
	return strings.Join(parts, ", ")
}

func isWeekend(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}
