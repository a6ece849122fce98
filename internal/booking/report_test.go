package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

func TestBuildReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	ev := &model.Event{
		Title:    "Spring Concert",
		EndTime:  now.Add(-time.Hour),
		Capacity: 100,
		Price:    10.00,
	}

	report, err := BuildReport(ev, 40, 30, now)
	require.NoError(t, err)

	assert.Equal(t, "Spring Concert", report.EventTitle)
	assert.Equal(t, 40, report.TotalSold)
	assert.Equal(t, 30, report.TotalCheckedIn)
	assert.Equal(t, 400.00, report.TotalRevenue)
	assert.Equal(t, 1000.00, report.PotentialRevenue)
	assert.Equal(t, 75.0, report.AttendanceRate)
	assert.Equal(t, 40.0, report.SellThroughRate)
}

func TestBuildReportNotReady(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ev := &model.Event{EndTime: now.Add(time.Minute), Capacity: 10, Price: 5}

	_, err := BuildReport(ev, 0, 0, now)
	assert.ErrorIs(t, err, ErrReportNotReady)

	// An event that ended exactly now is reportable.
	ev.EndTime = now
	_, err = BuildReport(ev, 0, 0, now)
	assert.NoError(t, err)
}

func TestBuildReportZeroDivisors(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)

	// Nothing sold: attendance rate is 0, not NaN.
	ev := &model.Event{EndTime: now.Add(-time.Hour), Capacity: 50, Price: 10}
	report, err := BuildReport(ev, 0, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.AttendanceRate)
	assert.Equal(t, 0.0, report.SellThroughRate)
	assert.Equal(t, 0.00, report.TotalRevenue)

	// Degenerate zero capacity: sell-through rate is 0, not NaN.
	ev = &model.Event{EndTime: now.Add(-time.Hour), Capacity: 0, Price: 10}
	report, err = BuildReport(ev, 0, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.SellThroughRate)
}

func TestBuildReportRounding(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	ev := &model.Event{EndTime: now.Add(-time.Hour), Capacity: 3, Price: 9.99}

	report, err := BuildReport(ev, 2, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 19.98, report.TotalRevenue)
	assert.Equal(t, 29.97, report.PotentialRevenue)
	assert.Equal(t, 50.0, report.AttendanceRate)
	assert.Equal(t, 66.7, report.SellThroughRate)
}
