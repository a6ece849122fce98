package booking

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors surfaced distinctly so handlers can map each to its own HTTP
// status instead of collapsing everything into a generic failure.
var (
	// ErrNotFound is returned when an event, venue, or ticket does not exist
	// (or is not visible to the caller).
	ErrNotFound = errors.New("not found")

	// ErrNotOwner is returned when an admin operates on an event they do not
	// organize.
	ErrNotOwner = errors.New("not the organizer of this event")

	// ErrQuotaExceeded is returned when a booking would push a user past the
	// per-event ticket quota.
	ErrQuotaExceeded = errors.New("ticket quota exceeded")

	// ErrInsufficientSeats is returned when fewer seats remain than requested.
	ErrInsufficientSeats = errors.New("not enough seats available")

	// ErrTooLate is returned when a cancellation arrives inside the cutoff
	// window before the event starts.
	ErrTooLate = errors.New("too late to cancel")

	// ErrTooEarly is returned when a check-in arrives before the check-in
	// window opens.
	ErrTooEarly = errors.New("too early to check in")

	// ErrAlreadyCheckedIn is returned on a repeat check-in attempt. Check-in
	// is deliberately not idempotent: a second scan of the same ticket is a
	// signal the operator should see, not a silent success.
	ErrAlreadyCheckedIn = errors.New("ticket already checked in")

	// ErrCapacityTooLow is returned when an edit would shrink capacity below
	// the number of seats already booked.
	ErrCapacityTooLow = errors.New("capacity below booked seats")

	// ErrReportNotReady is returned when a report is requested before the
	// event has finished.
	ErrReportNotReady = errors.New("report not available until the event has finished")

	// ErrValidation wraps all time-window and quantity validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrScheduleConflict is the sentinel matched by ConflictError.
	ErrScheduleConflict = errors.New("schedule conflict")
)

// ConflictError reports the first existing event whose buffered window
// overlaps the candidate's. errors.Is(err, ErrScheduleConflict) matches it.
type ConflictError struct {
	EventID string
	Title   string
	Start   time.Time
	End     time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlaps %q (%s - %s); events at the same venue need a %d minute gap on each side",
		e.Title,
		e.Start.Format("15:04"), e.End.Format("15:04"),
		int(VenueBuffer.Minutes()))
}

func (e *ConflictError) Unwrap() error { return ErrScheduleConflict }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
