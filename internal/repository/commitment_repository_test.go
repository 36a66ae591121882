package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/session-scheduler/internal/models"
)

func newCommitmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var commitmentColumns = []string{"id", "owner_id", "counterparty_id", "title", "scheduled_at", "duration_minutes", "status"}

func TestCommitmentRepositoryGetActiveCommitments(t *testing.T) {
	db, mock, cleanup := newCommitmentRepoMock(t)
	defer cleanup()
	repo := NewCommitmentRepository(db)

	rangeStart := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, time.November, 16, 0, 0, 0, 0, time.UTC)
	first := time.Date(2026, time.October, 19, 14, 0, 0, 0, time.UTC)
	second := time.Date(2026, time.October, 21, 9, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(commitmentColumns).
		AddRow("appt-1", "party-a", "party-b", "Intro call", first, 60, "CONFIRMED").
		AddRow("appt-2", "party-a", "party-c", "", second, 45, "PAYMENT_COMPLETED")
	mock.ExpectQuery(`SELECT id,.+FROM appointments\s+WHERE organizer_id = \$1.+UNION ALL.+WHERE participant_id = \$1.+ORDER BY scheduled_at ASC`).
		WithArgs("party-a", sqlmock.AnyArg(), rangeStart, rangeEnd).
		WillReturnRows(rows)

	items, err := repo.GetActiveCommitments(context.Background(), "party-a", rangeStart, rangeEnd)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, models.ExistingCommitment{
		ID:              "appt-1",
		OwnerID:         "party-a",
		CounterpartyID:  "party-b",
		Title:           "Intro call",
		Start:           first,
		DurationMinutes: 60,
		Status:          models.CommitmentStatusConfirmed,
	}, items[0])
	assert.Equal(t, models.CommitmentStatusPaymentCompleted, items[1].Status)
	assert.Equal(t, second.Add(45*time.Minute), items[1].End())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitmentRepositoryGetActiveCommitmentsEmpty(t *testing.T) {
	db, mock, cleanup := newCommitmentRepoMock(t)
	defer cleanup()
	repo := NewCommitmentRepository(db)

	mock.ExpectQuery("FROM appointments").WillReturnRows(sqlmock.NewRows(commitmentColumns))

	items, err := repo.GetActiveCommitments(context.Background(), "party-a", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitmentRepositoryGetActiveCommitmentsError(t *testing.T) {
	db, mock, cleanup := newCommitmentRepoMock(t)
	defer cleanup()
	repo := NewCommitmentRepository(db)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery("FROM appointments").WillReturnError(dbErr)

	_, err := repo.GetActiveCommitments(context.Background(), "party-a", time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "party-a")
	assert.NoError(t, mock.ExpectationsWereMet())
}
