package dto

import (
	"time"

	"github.com/noah-isme/session-scheduler/internal/models"
)

// PlanRequest carries raw, user-entered preferences for a two-party search.
type PlanRequest struct {
	PartyAID         string   `json:"partyAId" validate:"required"`
	PartyBID         string   `json:"partyBId" validate:"required,nefield=PartyAID"`
	Days             []string `json:"days"`
	TimeRanges       []string `json:"timeRanges"`
	DurationMinutes  int      `json:"durationMinutes" validate:"required,min=1,max=720"`
	SessionsNeeded   int      `json:"sessionsNeeded" validate:"required,min=1,max=200"`
	DistributeEvenly bool     `json:"distributeEvenly"`
	MinDaysBetween   int      `json:"minDaysBetween" validate:"min=0"`
	MaxDaysBetween   int      `json:"maxDaysBetween" validate:"min=0"`
	AlternatingRoles bool     `json:"alternatingRoles"`
}

// SchedulingRequest is the parsed form of a PlanRequest.
type SchedulingRequest struct {
	PartyAID               string              `json:"partyAId"`
	PartyBID               string              `json:"partyBId"`
	Weekdays               models.WeekdaySet   `json:"weekdays"`
	TimeWindows            []models.TimeWindow `json:"timeWindows"`
	SessionDurationMinutes int                 `json:"sessionDurationMinutes"`
	SessionsNeeded         int                 `json:"sessionsNeeded"`
	DistributeEvenly       bool                `json:"distributeEvenly"`
	MinDaysBetween         int                 `json:"minDaysBetween"`
	MaxDaysBetween         int                 `json:"maxDaysBetween"`
	AlternatingRoles       bool                `json:"alternatingRoles"`
}

// ConflictRecord describes an existing commitment overlapping a proposed interval.
type ConflictRecord struct {
	CommitmentID    string                  `json:"commitmentId"`
	Title           string                  `json:"title"`
	Start           time.Time               `json:"start"`
	End             time.Time               `json:"end"`
	DurationMinutes int                     `json:"durationMinutes"`
	StatusLabel     string                  `json:"statusLabel"`
	OtherPartyID    string                  `json:"otherPartyId,omitempty"`
	Severity        models.ConflictSeverity `json:"severity"`
}

// ProposedSession is a concrete session suggestion built from a free slot.
type ProposedSession struct {
	ScheduledAt     time.Time               `json:"scheduledAt"`
	DurationMinutes int                     `json:"durationMinutes"`
	SequenceNumber  int                     `json:"sequenceNumber"`
	OrganizerID     string                  `json:"organizerId"`
	ParticipantID   string                  `json:"participantId"`
	ConflictLevel   models.ConflictSeverity `json:"conflictLevel"`
	ConfidenceScore float64                 `json:"confidenceScore"`
	Note            string                  `json:"note,omitempty"`
}

// FeasibilityResult summarises whether a request can be satisfied.
type FeasibilityResult struct {
	IsFeasible      bool     `json:"isFeasible"`
	AvailableCount  int      `json:"availableCount"`
	RequestedCount  int      `json:"requestedCount"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// AlternativeOption is a relaxed preference set and the slots it unlocks.
type AlternativeOption struct {
	Description        string              `json:"description"`
	RelaxedWeekdays    models.WeekdaySet   `json:"relaxedWeekdays"`
	RelaxedTimeWindows []models.TimeWindow `json:"relaxedTimeWindows"`
	AvailableCount     int                 `json:"availableCount"`
	ConfidenceScore    float64             `json:"confidenceScore"`
	DeviationScore     float64             `json:"deviationScore"`
}

// PreferenceValidation lists every problem found in raw preference input.
type PreferenceValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// SchedulingPlan is the full answer to a PlanRequest.
type SchedulingPlan struct {
	PlanID       string              `json:"planId"`
	GeneratedAt  time.Time           `json:"generatedAt"`
	Request      SchedulingRequest   `json:"request"`
	Proposals    []ProposedSession   `json:"proposals"`
	Warnings     []string            `json:"warnings,omitempty"`
	Feasibility  *FeasibilityResult  `json:"feasibility,omitempty"`
	Alternatives []AlternativeOption `json:"alternatives,omitempty"`
}

// RescheduleRequest asks for free slots to move an existing session to.
type RescheduleRequest struct {
	OwnerID         string   `json:"ownerId" validate:"required"`
	CounterpartyID  string   `json:"counterpartyId"`
	CommitmentID    string   `json:"commitmentId"`
	DaysOfWeek      []int    `json:"daysOfWeek" validate:"required,min=1,dive,min=1,max=7"`
	TimeRanges      []string `json:"timeRanges"`
	DurationMinutes int      `json:"durationMinutes" validate:"required,min=1,max=720"`
	Limit           int      `json:"limit" validate:"min=0"`
}

// RescheduleOption is a slot free of blocking commitments for the reschedule.
type RescheduleOption struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
}

// RescheduleResult returns options plus any input warnings.
type RescheduleResult struct {
	Options  []RescheduleOption `json:"options"`
	Warnings []string           `json:"warnings,omitempty"`
}
