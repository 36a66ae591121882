package models

import "time"

// CommitmentStatus is the lifecycle state of a booked session as recorded by the appointment store.
type CommitmentStatus string

const (
	CommitmentStatusPending           CommitmentStatus = "PENDING"
	CommitmentStatusReschedulePending CommitmentStatus = "RESCHEDULE_PENDING"
	CommitmentStatusConfirmed         CommitmentStatus = "CONFIRMED"
	CommitmentStatusAwaitingPayment   CommitmentStatus = "AWAITING_PAYMENT"
	CommitmentStatusPaymentCompleted  CommitmentStatus = "PAYMENT_COMPLETED"
	CommitmentStatusInProgress        CommitmentStatus = "IN_PROGRESS"
	CommitmentStatusCompleted         CommitmentStatus = "COMPLETED"
	CommitmentStatusCancelled         CommitmentStatus = "CANCELLED"
	CommitmentStatusNoShow            CommitmentStatus = "NO_SHOW"
)

// InactiveCommitmentStatuses never count as booked time.
var InactiveCommitmentStatuses = []CommitmentStatus{CommitmentStatusCancelled, CommitmentStatusNoShow}

// ConflictSeverity ranks how disruptive an overlapping commitment is.
type ConflictSeverity int

const (
	ConflictSeverityNone ConflictSeverity = iota
	ConflictSeverityMinor
	ConflictSeverityModerate
	ConflictSeverityMajor
)

var severityNames = map[ConflictSeverity]string{
	ConflictSeverityNone:     "NONE",
	ConflictSeverityMinor:    "MINOR",
	ConflictSeverityModerate: "MODERATE",
	ConflictSeverityMajor:    "MAJOR",
}

// String returns the upper-case severity label.
func (s ConflictSeverity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "NONE"
}

// MarshalText encodes the severity by name.
func (s ConflictSeverity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText; unknown names decode to None.
func (s *ConflictSeverity) UnmarshalText(text []byte) error {
	for severity, name := range severityNames {
		if name == string(text) {
			*s = severity
			return nil
		}
	}
	*s = ConflictSeverityNone
	return nil
}

// Severity is the single mapping from status to conflict weight.
// Completed, cancelled and no-show sessions never block new bookings.
func (s CommitmentStatus) Severity() ConflictSeverity {
	switch s {
	case CommitmentStatusPending, CommitmentStatusReschedulePending:
		return ConflictSeverityMinor
	case CommitmentStatusConfirmed, CommitmentStatusAwaitingPayment:
		return ConflictSeverityModerate
	case CommitmentStatusPaymentCompleted, CommitmentStatusInProgress:
		return ConflictSeverityMajor
	default:
		return ConflictSeverityNone
	}
}

// IsActive reports whether the commitment still occupies its time.
func (s CommitmentStatus) IsActive() bool {
	for _, inactive := range InactiveCommitmentStatuses {
		if s == inactive {
			return false
		}
	}
	return true
}

var statusLabels = map[CommitmentStatus]string{
	CommitmentStatusPending:           "Pending",
	CommitmentStatusReschedulePending: "Reschedule pending",
	CommitmentStatusConfirmed:         "Confirmed",
	CommitmentStatusAwaitingPayment:   "Awaiting payment",
	CommitmentStatusPaymentCompleted:  "Paid",
	CommitmentStatusInProgress:        "In progress",
	CommitmentStatusCompleted:         "Completed",
	CommitmentStatusCancelled:         "Cancelled",
	CommitmentStatusNoShow:            "No-show",
}

// Label returns a human readable status.
func (s CommitmentStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ExistingCommitment is a read-only snapshot of a session already booked for a party.
type ExistingCommitment struct {
	ID              string           `db:"id" json:"id"`
	OwnerID         string           `db:"owner_id" json:"owner_id"`
	CounterpartyID  string           `db:"counterparty_id" json:"counterparty_id"`
	Title           string           `db:"title" json:"title"`
	Start           time.Time        `db:"scheduled_at" json:"start"`
	DurationMinutes int              `db:"duration_minutes" json:"duration_minutes"`
	Status          CommitmentStatus `db:"status" json:"status"`
}

// End returns the instant the commitment finishes.
func (c ExistingCommitment) End() time.Time {
	return c.Start.Add(time.Duration(c.DurationMinutes) * time.Minute)
}
