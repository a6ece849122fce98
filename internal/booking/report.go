package booking

import (
	"math"
	"time"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

// BuildReport computes the organizer's summary for a finished event. Reports
// are withheld until the event has ended; partial figures for a running event
// would be misleading.
func BuildReport(ev *model.Event, totalSold, totalCheckedIn int, now time.Time) (*model.Report, error) {
	if ev.EndTime.After(now) {
		return nil, ErrReportNotReady
	}

	var attendanceRate, sellThroughRate float64
	if totalSold > 0 {
		attendanceRate = round1(float64(totalCheckedIn) / float64(totalSold) * 100)
	}
	if ev.Capacity > 0 {
		sellThroughRate = round1(float64(totalSold) / float64(ev.Capacity) * 100)
	}

	return &model.Report{
		EventTitle:       ev.Title,
		EventEndTime:     ev.EndTime,
		PricePerTicket:   round2(ev.Price),
		Capacity:         ev.Capacity,
		TotalSold:        totalSold,
		TotalCheckedIn:   totalCheckedIn,
		TotalRevenue:     round2(float64(totalSold) * ev.Price),
		PotentialRevenue: round2(float64(ev.Capacity) * ev.Price),
		AttendanceRate:   attendanceRate,
		SellThroughRate:  sellThroughRate,
	}, nil
}

// round2 rounds to two decimals for money figures.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 rounds to one decimal for rate figures.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
