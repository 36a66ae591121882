package service

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/models"
)

const (
	offPreferencePenalty = 0.3
	peakConfidence       = 0.8
	offPeakNote          = "Outside peak preferred hours"
)

// ProposalBuilder turns chosen slots into proposed sessions.
type ProposalBuilder struct {
	logger *zap.Logger
}

// NewProposalBuilder builds a proposal builder.
func NewProposalBuilder(logger *zap.Logger) *ProposalBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalBuilder{logger: logger}
}

// Select picks which slots become sessions. With DistributeEvenly and a surplus of slots it
// walks greedily from the earliest slot keeping MinDaysBetween between picks; if the walk
// falls short it reverts to the earliest SessionsNeeded slots and returns a warning.
func (b *ProposalBuilder) Select(slots []models.CandidateSlot, req dto.SchedulingRequest) ([]models.CandidateSlot, []string) {
	needed := req.SessionsNeeded
	if needed <= 0 {
		return []models.CandidateSlot{}, nil
	}
	if req.DistributeEvenly && len(slots) > needed {
		if spaced, ok := spreadSlots(slots, needed, req.MinDaysBetween); ok {
			return spaced, nil
		}
		b.logger.Info("even distribution fell back to earliest slots",
			zap.Int("slots", len(slots)),
			zap.Int("needed", needed),
			zap.Int("min_days_between", req.MinDaysBetween),
		)
		warning := fmt.Sprintf("could not keep %d days between all %d sessions; using the earliest available slots", req.MinDaysBetween, needed)
		return take(slots, needed), []string{warning}
	}
	return take(slots, needed), nil
}

// BuildProposals selects slots for the request and turns them into proposed sessions.
// The returned warnings come from the distribution pass.
func (b *ProposalBuilder) BuildProposals(slots []models.CandidateSlot, req dto.SchedulingRequest) ([]dto.ProposedSession, []string) {
	selected, warnings := b.Select(slots, req)
	return b.assemble(selected, req), warnings
}

// assemble assigns sequence numbers, roles and confidence to already selected slots.
func (b *ProposalBuilder) assemble(slots []models.CandidateSlot, req dto.SchedulingRequest) []dto.ProposedSession {
	proposals := make([]dto.ProposedSession, 0, len(slots))
	for i, slot := range slots {
		sequence := i + 1
		organizer, participant := req.PartyAID, req.PartyBID
		if req.AlternatingRoles && sequence%2 == 0 {
			organizer, participant = participant, organizer
		}
		score := confidenceFor(slot, req)
		proposal := dto.ProposedSession{
			ScheduledAt:     slot.Start,
			DurationMinutes: slot.DurationMinutes,
			SequenceNumber:  sequence,
			OrganizerID:     organizer,
			ParticipantID:   participant,
			ConflictLevel:   slot.Conflict,
			ConfidenceScore: score,
		}
		if proposal.DurationMinutes == 0 {
			proposal.DurationMinutes = req.SessionDurationMinutes
		}
		if score < peakConfidence {
			proposal.Note = offPeakNote
		}
		proposals = append(proposals, proposal)
	}
	return proposals
}

// confidenceFor scores how well a slot matches the stated preferences.
func confidenceFor(slot models.CandidateSlot, req dto.SchedulingRequest) float64 {
	score := 1.0
	if !req.Weekdays.Contains(slot.Start.Weekday()) {
		score -= offPreferencePenalty
	}
	offset := models.TimeOfDay(slot.Start)
	inWindow := false
	for _, window := range req.TimeWindows {
		if window.Contains(offset) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		score -= offPreferencePenalty
	}
	// round away float noise from the subtraction
	score = math.Round(score*100) / 100
	return math.Max(0, score)
}

func spreadSlots(slots []models.CandidateSlot, needed, minDaysBetween int) ([]models.CandidateSlot, bool) {
	gap := time.Duration(minDaysBetween) * 24 * time.Hour
	chosen := make([]models.CandidateSlot, 0, needed)
	for _, slot := range slots {
		if len(chosen) > 0 && slot.Start.Sub(chosen[len(chosen)-1].Start) < gap {
			continue
		}
		chosen = append(chosen, slot)
		if len(chosen) == needed {
			return chosen, true
		}
	}
	return nil, false
}

func take(slots []models.CandidateSlot, n int) []models.CandidateSlot {
	if len(slots) <= n {
		out := make([]models.CandidateSlot, len(slots))
		copy(out, slots)
		return out
	}
	out := make([]models.CandidateSlot, n)
	copy(out, slots[:n])
	return out
}
