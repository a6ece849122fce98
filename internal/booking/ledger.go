// Package booking holds the pure admission rules of the ticketing core: seat
// and quota accounting, cancellation and check-in time gates, refund math,
// venue schedule-conflict detection, and report figures. It performs no I/O;
// the repository layer evaluates these rules inside its transactions so the
// same logic guards both the real store and the in-memory test store.
package booking

import "time"

const (
	// MaxTicketsPerUser is the quota: tickets one user may hold for a single
	// event, across all of their bookings.
	MaxTicketsPerUser = 4

	// CancelCutoff is how close to the event start cancellations are still
	// accepted. Exactly at the cutoff is allowed.
	CancelCutoff = 30 * time.Minute

	// CheckInWindow is how far before the event start check-in opens.
	// Exactly at the boundary is allowed.
	CheckInWindow = 25 * time.Minute

	// RefundRate is the fraction of the ticket price returned on
	// cancellation.
	RefundRate = 0.9
)

// CheckReserve decides whether a booking of quantity tickets is admissible
// given one consistent snapshot of the event's remaining seats and the number
// of tickets the user already holds for it. Callers must take the snapshot
// and apply the mutation inside the same transaction or critical section.
func CheckReserve(seatsLeft, ticketsHeld, quantity int) error {
	if quantity < 1 || quantity > MaxTicketsPerUser {
		return validationf("quantity must be between 1 and %d", MaxTicketsPerUser)
	}
	if ticketsHeld+quantity > MaxTicketsPerUser {
		return ErrQuotaExceeded
	}
	if seatsLeft < quantity {
		return ErrInsufficientSeats
	}
	return nil
}

// CheckCancel decides whether a purchased ticket may still be cancelled at
// now, given the event start. Cancellation closes CancelCutoff before start;
// the boundary itself is still allowed.
func CheckCancel(start, now time.Time) error {
	if start.Sub(now) < CancelCutoff {
		return ErrTooLate
	}
	return nil
}

// CheckIn decides whether a ticket may check in at now. The window opens
// CheckInWindow before start, boundary inclusive, and never closes: late
// arrivals can still be admitted.
func CheckIn(start, now time.Time) error {
	if start.Sub(now) > CheckInWindow {
		return ErrTooEarly
	}
	return nil
}

// Refund computes the amount shown to a user cancelling a ticket at the given
// price: RefundRate of the price, rounded to two decimals. Display-only; no
// money moves.
func Refund(price float64) float64 {
	return round2(price * RefundRate)
}
