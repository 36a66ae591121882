package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/session-scheduler/internal/models"
	appErrors "github.com/noah-isme/session-scheduler/pkg/errors"
)

const (
	defaultLeadTime       = 2 * time.Hour
	defaultMinSearchWeeks = 4
)

// CommitmentStore is the external appointment store. Implementations must leave out
// cancelled and no-show records and be safe for concurrent calls.
type CommitmentStore interface {
	GetActiveCommitments(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error)
}

// AvailabilityConfig tunes the mutual search.
type AvailabilityConfig struct {
	LeadTime       time.Duration
	MinSearchWeeks int
}

// MutualAvailabilityFinder finds slots free for both parties.
type MutualAvailabilityFinder struct {
	store    CommitmentStore
	slots    *SlotGenerator
	leadTime time.Duration
	minWeeks int
	logger   *zap.Logger
}

// NewMutualAvailabilityFinder wires the finder.
func NewMutualAvailabilityFinder(store CommitmentStore, slots *SlotGenerator, logger *zap.Logger, cfg AvailabilityConfig) *MutualAvailabilityFinder {
	if slots == nil {
		slots = NewSlotGenerator(nil, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = defaultLeadTime
	}
	if cfg.MinSearchWeeks <= 0 {
		cfg.MinSearchWeeks = defaultMinSearchWeeks
	}
	return &MutualAvailabilityFinder{
		store:    store,
		slots:    slots,
		leadTime: cfg.LeadTime,
		minWeeks: cfg.MinSearchWeeks,
		logger:   logger,
	}
}

// FindMutualSlots returns up to sessionsNeeded of the earliest candidate slots that
// overlap no active commitment of either party. A short list is a valid result.
func (f *MutualAvailabilityFinder) FindMutualSlots(
	ctx context.Context,
	partyAID, partyBID string,
	weekdays models.WeekdaySet,
	windows []models.TimeWindow,
	sessionsNeeded, durationMinutes int,
	now time.Time,
) ([]models.CandidateSlot, error) {
	if sessionsNeeded <= 0 {
		return []models.CandidateSlot{}, nil
	}

	weeks := f.searchWeeks(sessionsNeeded, weekdays.Len())
	candidates, err := f.slots.Generate(weekdays, windows, durationMinutes, now.Add(f.leadTime), weeks, now)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.CandidateSlot{}, nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	rangeStart := candidates[0]
	rangeEnd := candidates[len(candidates)-1].Add(duration)

	busyA, busyB, err := f.loadCommitments(ctx, partyAID, partyBID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	busy := append(activeOnly(busyA), activeOnly(busyB)...)

	result := make([]models.CandidateSlot, 0, sessionsNeeded)
	for _, start := range candidates {
		end := start.Add(duration)
		if overlapsAny(busy, start, end) {
			continue
		}
		result = append(result, models.CandidateSlot{Start: start, DurationMinutes: durationMinutes})
		if len(result) == sessionsNeeded {
			break
		}
	}

	f.logger.Debug("mutual slot search finished",
		zap.String("party_a", partyAID),
		zap.String("party_b", partyBID),
		zap.Int("weeks", weeks),
		zap.Int("candidates", len(candidates)),
		zap.Int("found", len(result)),
		zap.Int("requested", sessionsNeeded),
	)
	return result, nil
}

func (f *MutualAvailabilityFinder) searchWeeks(sessionsNeeded, days int) int {
	if days <= 0 {
		return f.minWeeks
	}
	weeks := sessionsNeeded/days + 2
	if weeks < f.minWeeks {
		return f.minWeeks
	}
	return weeks
}

// loadCommitments fetches both snapshots concurrently; either failure aborts both.
func (f *MutualAvailabilityFinder) loadCommitments(ctx context.Context, partyAID, partyBID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, []models.ExistingCommitment, error) {
	snapshots, err := fetchCommitments(ctx, f.store, []string{partyAID, partyBID}, rangeStart, rangeEnd)
	if err != nil {
		f.logger.Warn("failed to load commitments",
			zap.String("party_a", partyAID),
			zap.String("party_b", partyBID),
			zap.Error(err),
		)
		return nil, nil, err
	}
	return snapshots[0], snapshots[1], nil
}

// fetchCommitments loads one snapshot per owner in parallel. The result is only
// returned once every lookup succeeded.
func fetchCommitments(ctx context.Context, store CommitmentStore, ownerIDs []string, rangeStart, rangeEnd time.Time) ([][]models.ExistingCommitment, error) {
	if store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "commitment store unavailable")
	}
	snapshots := make([][]models.ExistingCommitment, len(ownerIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, ownerID := range ownerIDs {
		i, ownerID := i, ownerID
		group.Go(func() error {
			items, err := store.GetActiveCommitments(groupCtx, ownerID, rangeStart, rangeEnd)
			if err != nil {
				return err
			}
			snapshots[i] = items
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitments")
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commitment lookup cancelled")
	}
	return snapshots, nil
}

func activeOnly(items []models.ExistingCommitment) []models.ExistingCommitment {
	result := make([]models.ExistingCommitment, 0, len(items))
	for _, item := range items {
		if item.Status.IsActive() {
			result = append(result, item)
		}
	}
	return result
}

func overlapsAny(commitments []models.ExistingCommitment, start, end time.Time) bool {
	for _, commitment := range commitments {
		if overlaps(start, end, commitment.Start, commitment.End()) {
			return true
		}
	}
	return false
}

func sortSlots(slots []models.CandidateSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
}
