package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/session-scheduler/internal/models"
)

// mondayMorning is Monday 2026-10-19 08:00 UTC.
var mondayMorning = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, time.UTC)
}

type storeCall struct {
	ownerID    string
	rangeStart time.Time
	rangeEnd   time.Time
}

type commitmentStoreStub struct {
	mu          sync.Mutex
	commitments map[string][]models.ExistingCommitment
	errs        map[string]error
	calls       []storeCall
}

func newCommitmentStoreStub() *commitmentStoreStub {
	return &commitmentStoreStub{
		commitments: map[string][]models.ExistingCommitment{},
		errs:        map[string]error{},
	}
}

func (s *commitmentStoreStub) add(ownerID string, items ...models.ExistingCommitment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments[ownerID] = append(s.commitments[ownerID], items...)
}

func (s *commitmentStoreStub) GetActiveCommitments(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, storeCall{ownerID: ownerID, rangeStart: rangeStart, rangeEnd: rangeEnd})
	if err := s.errs[ownerID]; err != nil {
		return nil, err
	}
	out := make([]models.ExistingCommitment, len(s.commitments[ownerID]))
	copy(out, s.commitments[ownerID])
	return out, nil
}

func (s *commitmentStoreStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func commitment(id string, start time.Time, minutes int, status models.CommitmentStatus) models.ExistingCommitment {
	return models.ExistingCommitment{
		ID:              id,
		OwnerID:         "owner",
		CounterpartyID:  "other-" + id,
		Title:           "Session " + id,
		Start:           start,
		DurationMinutes: minutes,
		Status:          status,
	}
}

func slotsAt(starts ...time.Time) []models.CandidateSlot {
	out := make([]models.CandidateSlot, 0, len(starts))
	for _, start := range starts {
		out = append(out, models.CandidateSlot{Start: start, DurationMinutes: 60})
	}
	return out
}

func startsOf(slots []models.CandidateSlot) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.Start)
	}
	return out
}
