package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeWindowContainsIsHalfOpen(t *testing.T) {
	window := NewTimeWindow(9, 0, 17, 30)

	assert.True(t, window.Valid())
	assert.True(t, window.Contains(9*time.Hour))
	assert.True(t, window.Contains(17*time.Hour+29*time.Minute))
	assert.False(t, window.Contains(17*time.Hour+30*time.Minute))
	assert.False(t, window.Contains(8*time.Hour+59*time.Minute))
	assert.False(t, NewTimeWindow(10, 0, 9, 0).Valid())
	assert.Equal(t, "09:00-17:30", window.String())
}

func TestWeekdaySet(t *testing.T) {
	set := NewWeekdaySet(time.Sunday, time.Wednesday).With(time.Monday)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Sunday}, set.Days())
	assert.Equal(t, "Mon, Wed, Sun", set.String())
	assert.False(t, set.Contains(time.Friday))
	assert.True(t, WeekdaySet(0).IsEmpty())
	assert.Equal(t, 5, DefaultWeekdays.Len())
}

func TestAvailabilityJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Days    WeekdaySet       `json:"days"`
		Windows []TimeWindow     `json:"windows"`
		Level   ConflictSeverity `json:"level"`
	}{
		Days:    NewWeekdaySet(time.Monday, time.Friday),
		Windows: []TimeWindow{NewTimeWindow(14, 0, 16, 0)},
		Level:   ConflictSeverityModerate,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"days":["Monday","Friday"],"windows":["14:00-16:00"],"level":"MODERATE"}`, string(payload))

	var decoded ConflictSeverity
	require.NoError(t, decoded.UnmarshalText([]byte("MAJOR")))
	assert.Equal(t, ConflictSeverityMajor, decoded)
}

func TestCommitmentStatusHelpers(t *testing.T) {
	assert.False(t, CommitmentStatusCancelled.IsActive())
	assert.False(t, CommitmentStatusNoShow.IsActive())
	assert.True(t, CommitmentStatusCompleted.IsActive())
	assert.Equal(t, ConflictSeverityNone, CommitmentStatusCompleted.Severity())
	assert.Equal(t, "Awaiting payment", CommitmentStatusAwaitingPayment.Label())
	assert.Equal(t, "UNKNOWN", CommitmentStatus("UNKNOWN").Label())
	assert.Equal(t, ConflictSeverityNone, CommitmentStatus("UNKNOWN").Severity())
}
