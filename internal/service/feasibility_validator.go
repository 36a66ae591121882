package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/models"
)

type mutualSlotFinder interface {
	FindMutualSlots(
		ctx context.Context,
		partyAID, partyBID string,
		weekdays models.WeekdaySet,
		windows []models.TimeWindow,
		sessionsNeeded, durationMinutes int,
		now time.Time,
	) ([]models.CandidateSlot, error)
}

// FeasibilityValidator judges whether a request can be satisfied and explains why not.
type FeasibilityValidator struct {
	finder mutualSlotFinder
	logger *zap.Logger
}

// NewFeasibilityValidator builds a validator on top of a slot finder.
func NewFeasibilityValidator(finder mutualSlotFinder, logger *zap.Logger) *FeasibilityValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeasibilityValidator{finder: finder, logger: logger}
}

// Validate probes for twice the requested sessions to measure headroom.
func (v *FeasibilityValidator) Validate(ctx context.Context, req dto.SchedulingRequest, now time.Time) (dto.FeasibilityResult, error) {
	requested := req.SessionsNeeded
	slots, err := v.finder.FindMutualSlots(ctx, req.PartyAID, req.PartyBID, req.Weekdays, req.TimeWindows, 2*requested, req.SessionDurationMinutes, now)
	if err != nil {
		return dto.FeasibilityResult{}, err
	}

	available := len(slots)
	result := dto.FeasibilityResult{
		IsFeasible:      available >= requested,
		AvailableCount:  available,
		RequestedCount:  requested,
		Warnings:        []string{},
		Recommendations: []string{},
	}

	switch {
	case available == 0:
		result.Warnings = append(result.Warnings, "No available slots found for the requested preferences")
		result.Recommendations = append(result.Recommendations,
			"Add more preferred days",
			"Widen the preferred time windows",
		)
	case available < requested:
		result.Warnings = append(result.Warnings, fmt.Sprintf("Only %d of %d requested slots are available", available, requested))
		result.Recommendations = append(result.Recommendations,
			"Add more preferred days or widen the time windows",
			fmt.Sprintf("Reduce the number of sessions to %d", available),
		)
	case float64(available) < 1.5*float64(requested):
		result.Warnings = append(result.Warnings, fmt.Sprintf("Limited flexibility: %d slots available for %d sessions", available, requested))
		result.Recommendations = append(result.Recommendations, "Add alternative days to keep room for rescheduling")
	}

	if available >= 2 {
		gap := meanGapDays(slots)
		if req.MinDaysBetween > 0 && gap < float64(req.MinDaysBetween) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Sessions may cluster: average gap of %.1f days is below the minimum of %d", gap, req.MinDaysBetween))
			result.Recommendations = append(result.Recommendations, "Enable even distribution or add days later in the week")
		}
		if req.MaxDaysBetween > 0 && gap > float64(req.MaxDaysBetween) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Sessions may be too spread out: average gap of %.1f days exceeds the maximum of %d", gap, req.MaxDaysBetween))
			result.Recommendations = append(result.Recommendations, "Add more preferred days per week")
		}
	}

	v.logger.Debug("feasibility evaluated",
		zap.Bool("feasible", result.IsFeasible),
		zap.Int("available", available),
		zap.Int("requested", requested),
	)
	return result, nil
}

// meanGapDays averages the distance between consecutive slots, in days.
func meanGapDays(slots []models.CandidateSlot) float64 {
	if len(slots) < 2 {
		return 0
	}
	var total time.Duration
	for i := 1; i < len(slots); i++ {
		total += slots[i].Start.Sub(slots[i-1].Start)
	}
	mean := total / time.Duration(len(slots)-1)
	return mean.Hours() / 24
}
