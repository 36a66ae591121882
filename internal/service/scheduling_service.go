package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/session-scheduler/internal/dto"
	"github.com/noah-isme/session-scheduler/internal/models"
	appErrors "github.com/noah-isme/session-scheduler/pkg/errors"
)

// SchedulingConfig governs engine behaviour.
type SchedulingConfig struct {
	// ConflictBuffer pads every commitment. Zero books back to back; negative selects DefaultConflictBuffer.
	ConflictBuffer         time.Duration
	LeadTime               time.Duration
	MinSearchWeeks         int
	RescheduleWeeks        int
	DistributeSearchFactor int
	RescheduleLimit        int
}

// SchedulingService runs the two-party scheduling pipeline. Every public call captures
// the clock once and hands that instant to each stage.
type SchedulingService struct {
	store           CommitmentStore
	clock           Clock
	parser          *PreferenceParser
	slots           *SlotGenerator
	conflicts       *ConflictDetector
	finder          *MutualAvailabilityFinder
	builder         *ProposalBuilder
	feasibility     *FeasibilityValidator
	alternatives    *AlternativeOptionGenerator
	validator       *validator.Validate
	metrics         *MetricsService
	logger          *zap.Logger
	searchFactor    int
	rescheduleLimit int
}

// NewSchedulingService wires scheduler dependencies.
func NewSchedulingService(
	store CommitmentStore,
	clock Clock,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SchedulingConfig,
) *SchedulingService {
	if clock == nil {
		clock = SystemClock{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DistributeSearchFactor <= 0 {
		cfg.DistributeSearchFactor = 3
	}
	if cfg.RescheduleLimit <= 0 {
		cfg.RescheduleLimit = 10
	}

	parser := NewPreferenceParser(logger)
	slots := NewSlotGenerator(parser, cfg.RescheduleWeeks)
	finder := NewMutualAvailabilityFinder(store, slots, logger, AvailabilityConfig{
		LeadTime:       cfg.LeadTime,
		MinSearchWeeks: cfg.MinSearchWeeks,
	})
	return &SchedulingService{
		store:           store,
		clock:           clock,
		parser:          parser,
		slots:           slots,
		conflicts:       NewConflictDetector(cfg.ConflictBuffer),
		finder:          finder,
		builder:         NewProposalBuilder(logger),
		feasibility:     NewFeasibilityValidator(finder, logger),
		alternatives:    NewAlternativeOptionGenerator(finder, logger),
		validator:       validate,
		metrics:         metrics,
		logger:          logger,
		searchFactor:    cfg.DistributeSearchFactor,
		rescheduleLimit: cfg.RescheduleLimit,
	}
}

// ValidatePreferences reports every problem in raw day names and time ranges.
func (s *SchedulingService) ValidatePreferences(days, timeRanges []string) dto.PreferenceValidation {
	return s.parser.Validate(days, timeRanges)
}

// ParseRequest converts raw preferences into a SchedulingRequest plus parse warnings.
func (s *SchedulingService) ParseRequest(req dto.PlanRequest) (dto.SchedulingRequest, []string) {
	weekdays, dayWarnings := s.parser.ParseWeekdays(req.Days)
	windows, windowWarnings := s.parser.ParseTimeWindows(req.TimeRanges)
	parsed := dto.SchedulingRequest{
		PartyAID:               req.PartyAID,
		PartyBID:               req.PartyBID,
		Weekdays:               weekdays,
		TimeWindows:            windows,
		SessionDurationMinutes: req.DurationMinutes,
		SessionsNeeded:         req.SessionsNeeded,
		DistributeEvenly:       req.DistributeEvenly,
		MinDaysBetween:         req.MinDaysBetween,
		MaxDaysBetween:         req.MaxDaysBetween,
		AlternatingRoles:       req.AlternatingRoles,
	}
	return parsed, append(dayWarnings, windowWarnings...)
}

// Plan finds mutual slots, builds proposals and, when short, attaches a feasibility
// report and relaxed alternatives.
func (s *SchedulingService) Plan(ctx context.Context, req dto.PlanRequest) (plan *dto.SchedulingPlan, err error) {
	started := time.Now()
	defer func() {
		found := 0
		if plan != nil {
			found = len(plan.Proposals)
		}
		s.metrics.ObserveOperation("plan", time.Since(started), found, err)
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}

	parsed, warnings := s.ParseRequest(req)
	now := s.clock.Now()

	want := parsed.SessionsNeeded
	if parsed.DistributeEvenly {
		want *= s.searchFactor
	}
	slots, err := s.finder.FindMutualSlots(ctx, parsed.PartyAID, parsed.PartyBID, parsed.Weekdays, parsed.TimeWindows, want, parsed.SessionDurationMinutes, now)
	if err != nil {
		return nil, err
	}

	proposals, buildWarnings := s.builder.BuildProposals(slots, parsed)
	result := &dto.SchedulingPlan{
		PlanID:      uuid.NewString(),
		GeneratedAt: now,
		Request:     parsed,
		Proposals:   proposals,
		Warnings:    append(warnings, buildWarnings...),
	}

	if len(proposals) < parsed.SessionsNeeded {
		s.metrics.RecordInfeasible()
		feasibility, err := s.feasibility.Validate(ctx, parsed, now)
		if err != nil {
			return nil, err
		}
		alternatives, err := s.alternatives.Generate(ctx, parsed, now)
		if err != nil {
			return nil, err
		}
		result.Feasibility = &feasibility
		result.Alternatives = alternatives
	}

	s.logger.Info("scheduling plan built",
		zap.String("plan_id", result.PlanID),
		zap.String("party_a", parsed.PartyAID),
		zap.String("party_b", parsed.PartyBID),
		zap.Int("requested", parsed.SessionsNeeded),
		zap.Int("proposed", len(proposals)),
		zap.Int("alternatives", len(result.Alternatives)),
	)
	return result, nil
}

// CheckFeasibility reports whether the request can be fully scheduled.
func (s *SchedulingService) CheckFeasibility(ctx context.Context, req dto.PlanRequest) (result *dto.FeasibilityResult, err error) {
	started := time.Now()
	defer func() {
		found := 0
		if result != nil {
			found = result.AvailableCount
		}
		s.metrics.ObserveOperation("feasibility", time.Since(started), found, err)
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}
	parsed, warnings := s.ParseRequest(req)
	feasibility, err := s.feasibility.Validate(ctx, parsed, s.clock.Now())
	if err != nil {
		return nil, err
	}
	feasibility.Warnings = append(warnings, feasibility.Warnings...)
	if !feasibility.IsFeasible {
		s.metrics.RecordInfeasible()
	}
	return &feasibility, nil
}

// Alternatives returns relaxed preference sets that would satisfy the request.
func (s *SchedulingService) Alternatives(ctx context.Context, req dto.PlanRequest) (options []dto.AlternativeOption, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveOperation("alternatives", time.Since(started), len(options), err)
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling payload")
	}
	parsed, _ := s.ParseRequest(req)
	return s.alternatives.Generate(ctx, parsed, s.clock.Now())
}

// RescheduleOptions lists slots an existing session could move to. The moved session is
// excluded from conflict checks and the configured buffer is kept around other bookings.
// When a counterparty is given, its commitments are checked as well.
func (s *SchedulingService) RescheduleOptions(ctx context.Context, req dto.RescheduleRequest) (result *dto.RescheduleResult, err error) {
	started := time.Now()
	defer func() {
		found := 0
		if result != nil {
			found = len(result.Options)
		}
		s.metrics.ObserveOperation("reschedule", time.Since(started), found, err)
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.rescheduleLimit
	}

	now := s.clock.Now()
	slots, warnings := s.slots.GenerateForDays(req.DaysOfWeek, req.TimeRanges, req.DurationMinutes, now)
	result = &dto.RescheduleResult{Options: []dto.RescheduleOption{}, Warnings: warnings}
	if len(slots) == 0 {
		return result, nil
	}

	owners := []string{req.OwnerID}
	if req.CounterpartyID != "" && req.CounterpartyID != req.OwnerID {
		owners = append(owners, req.CounterpartyID)
	}
	rangeStart := slots[0].Start.Add(-s.conflicts.Buffer())
	rangeEnd := slots[len(slots)-1].End()
	snapshots, err := fetchCommitments(ctx, s.store, owners, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	var busy []models.ExistingCommitment
	for _, snapshot := range snapshots {
		busy = append(busy, snapshot...)
	}

	for _, slot := range slots {
		if s.conflicts.FindConflict(busy, slot.Start, slot.DurationMinutes, req.CommitmentID) != nil {
			continue
		}
		result.Options = append(result.Options, dto.RescheduleOption{
			Start:           slot.Start,
			End:             slot.End(),
			DurationMinutes: slot.DurationMinutes,
		})
		if len(result.Options) == limit {
			break
		}
	}
	return result, nil
}

// Conflicts lists a party's active commitments within the range.
func (s *SchedulingService) Conflicts(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]dto.ConflictRecord, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	if !rangeStart.Before(rangeEnd) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range start must be before range end")
	}
	snapshots, err := fetchCommitments(ctx, s.store, []string{ownerID}, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	return s.conflicts.ListConflicts(snapshots[0], rangeStart, rangeEnd), nil
}
