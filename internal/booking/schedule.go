package booking

import (
	"time"

	"github.com/campuslabs/campus-ticketing/internal/model"
)

const (
	// VenueBuffer is the mandatory gap applied to both ends of every event
	// window when checking for venue conflicts. Both the candidate and each
	// existing window are expanded, so two events clear each other only when
	// separated by at least twice this buffer.
	VenueBuffer = 60 * time.Minute

	// MinDuration and MaxDuration bound the length of an event.
	MinDuration = 15 * time.Minute
	MaxDuration = 8 * time.Hour
)

// ValidateWindow checks a candidate [start, end) event window against the
// shared time rules: end after start, duration within bounds, start in the
// future. Edits re-check futureness the same way creates do; an admin moving
// an event keeps it bookable.
func ValidateWindow(start, end, now time.Time) error {
	if !end.After(start) {
		return validationf("end time must be after the start time")
	}
	if end.Sub(start) < MinDuration {
		return validationf("event must be at least %d minutes long", int(MinDuration.Minutes()))
	}
	if end.Sub(start) > MaxDuration {
		return validationf("event duration cannot exceed %d hours", int(MaxDuration.Hours()))
	}
	if !start.After(now) {
		return validationf("event start time must be in the future")
	}
	return nil
}

// FindConflict scans the existing events at a venue for one whose buffered
// window overlaps the candidate's buffered window. Both windows are expanded
// by VenueBuffer on each side and compared half-open with strict inequalities,
// so windows that merely touch at the buffer boundary do not conflict.
//
// The scan reports the first overlap in the order given; callers pass events
// in ascending start order so the reported conflict is deterministic. The
// caller is responsible for excluding the event being edited and for running
// the scan in the same transaction as the insert or update it guards.
func FindConflict(start, end time.Time, existing []model.Event) *model.Event {
	bufStart := start.Add(-VenueBuffer)
	bufEnd := end.Add(VenueBuffer)

	for i := range existing {
		ev := &existing[i]
		evBufStart := ev.StartTime.Add(-VenueBuffer)
		evBufEnd := ev.EndTime.Add(VenueBuffer)
		if bufStart.Before(evBufEnd) && bufEnd.After(evBufStart) {
			return ev
		}
	}
	return nil
}

// CheckCapacityChange verifies that a capacity edit does not drop below the
// seats already booked, and returns the recomputed seats_left for the event.
func CheckCapacityChange(newCapacity, booked int) (seatsLeft int, err error) {
	seatsLeft = newCapacity - booked
	if seatsLeft < 0 {
		return 0, ErrCapacityTooLow
	}
	return seatsLeft, nil
}
