package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/session-scheduler/internal/models"
)

// slotFinderStub serves a fixed slot list, truncated to the requested count.
type slotFinderStub struct {
	slots     []models.CandidateSlot
	available func(weekdays models.WeekdaySet, windows []models.TimeWindow) int
	err       error
	requested []int
}

func (s *slotFinderStub) FindMutualSlots(
	_ context.Context,
	_, _ string,
	weekdays models.WeekdaySet,
	windows []models.TimeWindow,
	sessionsNeeded, _ int,
	_ time.Time,
) ([]models.CandidateSlot, error) {
	s.requested = append(s.requested, sessionsNeeded)
	if s.err != nil {
		return nil, s.err
	}
	slots := s.slots
	if s.available != nil {
		slots = dailySlots(s.available(weekdays, windows))
	}
	if len(slots) > sessionsNeeded {
		slots = slots[:sessionsNeeded]
	}
	return slots, nil
}

func spacedSlots(count, days int) []models.CandidateSlot {
	starts := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		starts = append(starts, at(19, 14, 0).AddDate(0, 0, i*days))
	}
	return slotsAt(starts...)
}

func TestFeasibilityExactlyEnoughSlots(t *testing.T) {
	finder := &slotFinderStub{slots: spacedSlots(5, 2)}
	validator := NewFeasibilityValidator(finder, nil)

	result, err := validator.Validate(context.Background(), proposalRequest(5), mondayMorning)

	require.NoError(t, err)
	assert.True(t, result.IsFeasible)
	assert.Equal(t, 5, result.AvailableCount)
	assert.Equal(t, 5, result.RequestedCount)
	assert.Equal(t, []int{10}, finder.requested)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Limited flexibility")
}

func TestFeasibilityOneShort(t *testing.T) {
	validator := NewFeasibilityValidator(&slotFinderStub{slots: spacedSlots(5, 2)}, nil)

	result, err := validator.Validate(context.Background(), proposalRequest(6), mondayMorning)

	require.NoError(t, err)
	assert.False(t, result.IsFeasible)
	assert.Equal(t, 5, result.AvailableCount)
	assert.Equal(t, 6, result.RequestedCount)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "Only 5 of 6 requested slots are available", result.Warnings[0])
	assert.Contains(t, result.Recommendations, "Reduce the number of sessions to 5")
}

func TestFeasibilityNoSlots(t *testing.T) {
	validator := NewFeasibilityValidator(&slotFinderStub{}, nil)

	result, err := validator.Validate(context.Background(), proposalRequest(2), mondayMorning)

	require.NoError(t, err)
	assert.False(t, result.IsFeasible)
	assert.Equal(t, []string{"No available slots found for the requested preferences"}, result.Warnings)
	assert.Len(t, result.Recommendations, 2)
}

func TestFeasibilityAmpleSlotsHasNoWarnings(t *testing.T) {
	validator := NewFeasibilityValidator(&slotFinderStub{slots: spacedSlots(20, 2)}, nil)

	result, err := validator.Validate(context.Background(), proposalRequest(5), mondayMorning)

	require.NoError(t, err)
	assert.True(t, result.IsFeasible)
	assert.Equal(t, 10, result.AvailableCount)
	assert.NotNil(t, result.Warnings)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Recommendations)
}

func TestFeasibilityFlagsSpacing(t *testing.T) {
	clustered := proposalRequest(3)
	clustered.MinDaysBetween = 3
	validator := NewFeasibilityValidator(&slotFinderStub{slots: spacedSlots(10, 1)}, nil)

	result, err := validator.Validate(context.Background(), clustered, mondayMorning)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Sessions may cluster")

	spread := proposalRequest(3)
	spread.MaxDaysBetween = 7
	validator = NewFeasibilityValidator(&slotFinderStub{slots: spacedSlots(10, 14)}, nil)

	result, err = validator.Validate(context.Background(), spread, mondayMorning)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "too spread out")
}

func TestFeasibilityPropagatesFinderError(t *testing.T) {
	finderErr := errors.New("store down")
	validator := NewFeasibilityValidator(&slotFinderStub{err: finderErr}, nil)

	_, err := validator.Validate(context.Background(), proposalRequest(2), mondayMorning)

	assert.ErrorIs(t, err, finderErr)
}

func TestMeanGapDays(t *testing.T) {
	assert.Equal(t, 0.0, meanGapDays(spacedSlots(1, 3)))
	assert.InDelta(t, 3.0, meanGapDays(spacedSlots(4, 3)), 1e-9)
}
