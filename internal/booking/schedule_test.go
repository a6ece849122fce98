package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

func TestValidateWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"ordinary event", now.Add(time.Hour), now.Add(3 * time.Hour), false},
		{"minimum duration", now.Add(time.Hour), now.Add(time.Hour + 15*time.Minute), false},
		{"maximum duration", now.Add(time.Hour), now.Add(9 * time.Hour), false},
		{"end equals start", now.Add(time.Hour), now.Add(time.Hour), true},
		{"end before start", now.Add(2 * time.Hour), now.Add(time.Hour), true},
		{"ten minute event", now.Add(10 * time.Minute), now.Add(20 * time.Minute), true},
		{"fourteen minutes", now.Add(time.Hour), now.Add(time.Hour + 14*time.Minute), true},
		{"over eight hours", now.Add(time.Hour), now.Add(time.Hour + 8*time.Hour + time.Minute), true},
		{"starts now", now, now.Add(time.Hour), true},
		{"starts in the past", now.Add(-time.Hour), now.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.start, tt.end, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// day builds a same-day timestamp for readable schedule tests.
func day(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestFindConflict(t *testing.T) {
	// One existing event, 10:00-11:00. Both its window and the candidate's
	// are padded by 60 minutes, so a later event conflicts until its start is
	// a full two hours past the existing end.
	existing := []model.Event{
		{ID: "ev-a", Title: "Robotics Demo", StartTime: day(10, 0), EndTime: day(11, 0)},
	}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"thirty minute gap", day(11, 30), day(12, 30), true},
		{"just over an hour gap", day(12, 1), day(13, 0), true},
		{"overlapping outright", day(10, 30), day(11, 30), true},
		{"identical window", day(10, 0), day(11, 0), true},
		{"one minute inside the boundary", day(12, 59), day(13, 59), true},
		{"exactly at the buffer boundary", day(13, 0), day(14, 0), false},
		{"well clear after", day(15, 0), day(16, 0), false},
		{"one minute inside the earlier boundary", day(7, 1), day(8, 1), true},
		{"exactly at the earlier boundary", day(7, 0), day(8, 0), false},
		{"well clear before", day(5, 0), day(6, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindConflict(tt.start, tt.end, existing)
			if tt.conflict {
				require.NotNil(t, got)
				assert.Equal(t, "ev-a", got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestFindConflictReportsFirstInOrder(t *testing.T) {
	existing := []model.Event{
		{ID: "morning", StartTime: day(9, 0), EndTime: day(10, 0)},
		{ID: "noon", StartTime: day(12, 0), EndTime: day(13, 0)},
	}

	// The candidate overlaps both; the scan order is the given order, so the
	// earlier event is the one reported.
	got := FindConflict(day(10, 30), day(11, 30), existing)
	require.NotNil(t, got)
	assert.Equal(t, "morning", got.ID)
}

func TestFindConflictEmptyVenue(t *testing.T) {
	assert.Nil(t, FindConflict(day(10, 0), day(11, 0), nil))
}

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := &ConflictError{EventID: "ev-a", Title: "Robotics Demo", Start: day(10, 0), End: day(11, 0)}
	assert.ErrorIs(t, err, ErrScheduleConflict)
	assert.Contains(t, err.Error(), "Robotics Demo")
	assert.Contains(t, err.Error(), "10:00")
}

func TestCheckCapacityChange(t *testing.T) {
	seatsLeft, err := CheckCapacityChange(100, 40)
	require.NoError(t, err)
	assert.Equal(t, 60, seatsLeft)

	// Shrinking to exactly the booked count leaves zero seats but is legal.
	seatsLeft, err = CheckCapacityChange(40, 40)
	require.NoError(t, err)
	assert.Equal(t, 0, seatsLeft)

	_, err = CheckCapacityChange(39, 40)
	assert.ErrorIs(t, err, ErrCapacityTooLow)
}
