package service

import (
	"sort"
	"time"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/models"
)

// DefaultConflictBuffer keeps sessions from being booked back to back.
const DefaultConflictBuffer = 15 * time.Minute

// ConflictDetector checks proposed intervals against a party's commitments.
type ConflictDetector struct {
	buffer time.Duration
}

// NewConflictDetector builds a detector. A negative buffer selects the default; zero disables it.
func NewConflictDetector(buffer time.Duration) *ConflictDetector {
	if buffer < 0 {
		buffer = DefaultConflictBuffer
	}
	return &ConflictDetector{buffer: buffer}
}

// Buffer returns the padding applied after each commitment.
func (d *ConflictDetector) Buffer() time.Duration {
	return d.buffer
}

// FindConflict returns the most severe commitment overlapping [start, start+duration),
// treating each commitment as ending buffer later than booked. excludeID skips the
// commitment being moved. Nil means the interval is free.
func (d *ConflictDetector) FindConflict(
	commitments []models.ExistingCommitment,
	start time.Time,
	durationMinutes int,
	excludeID string,
) *dto.ConflictRecord {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	var found *models.ExistingCommitment
	for i := range commitments {
		commitment := &commitments[i]
		if excludeID != "" && commitment.ID == excludeID {
			continue
		}
		severity := commitment.Status.Severity()
		if severity == models.ConflictSeverityNone {
			continue
		}
		if !overlaps(start, end, commitment.Start, commitment.End().Add(d.buffer)) {
			continue
		}
		if found == nil || moreDisruptive(commitment, found) {
			found = commitment
		}
	}
	if found == nil {
		return nil
	}
	record := toConflictRecord(*found)
	return &record
}

// ListConflicts returns every active commitment overlapping [rangeStart, rangeEnd), by start.
func (d *ConflictDetector) ListConflicts(commitments []models.ExistingCommitment, rangeStart, rangeEnd time.Time) []dto.ConflictRecord {
	records := make([]dto.ConflictRecord, 0)
	for _, commitment := range commitments {
		if !commitment.Status.IsActive() {
			continue
		}
		if !overlaps(rangeStart, rangeEnd, commitment.Start, commitment.End()) {
			continue
		}
		records = append(records, toConflictRecord(commitment))
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Start.Before(records[j].Start) })
	return records
}

// overlaps is the strict interval test: start1 < end2 && end1 > start2.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

func moreDisruptive(candidate, current *models.ExistingCommitment) bool {
	cs, ps := candidate.Status.Severity(), current.Status.Severity()
	if cs != ps {
		return cs > ps
	}
	return candidate.Start.Before(current.Start)
}

func toConflictRecord(c models.ExistingCommitment) dto.ConflictRecord {
	return dto.ConflictRecord{
		CommitmentID:    c.ID,
		Title:           c.Title,
		Start:           c.Start,
		End:             c.End(),
		DurationMinutes: c.DurationMinutes,
		StatusLabel:     c.Status.Label(),
		OtherPartyID:    c.CounterpartyID,
		Severity:        c.Status.Severity(),
	}
}
