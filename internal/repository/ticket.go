package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslabs/campus-ticketing/internal/booking"
	"github.com/campuslabs/campus-ticketing/internal/model"
)

// TicketRepository owns every mutation of the seat ledger: reservations,
// cancellations, and check-ins.
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

// Reserve books quantity tickets for a user inside one transaction.
//
// SELECT ... FOR UPDATE takes an exclusive row-level lock on the event the
// moment it executes, so concurrent reservations for the same event queue up
// behind each other. The seats_left and tickets-held snapshot is therefore
// consistent with the insert and decrement that follow; two callers racing
// for the last seat cannot both pass the check.
func (r *TicketRepository) Reserve(ctx context.Context, eventID, userID string, quantity int) (serials []string, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var seatsLeft int
	err = tx.QueryRow(ctx,
		`SELECT seats_left FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&seatsLeft)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var ticketsHeld int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	).Scan(&ticketsHeld)
	if err != nil {
		return nil, fmt.Errorf("count held tickets: %w", err)
	}

	if err = booking.CheckReserve(seatsLeft, ticketsHeld, quantity); err != nil {
		return nil, err
	}

	serials = make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		serial, insertErr := insertTicket(ctx, tx, userID, eventID)
		if insertErr != nil {
			err = insertErr
			return nil, err
		}
		serials = append(serials, serial)
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET seats_left = seats_left - $1 WHERE id = $2`,
		quantity, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement seats: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return serials, nil
}

// insertTicket generates a serial and inserts the ticket row, regenerating on
// a serial collision. The unique constraint makes uniqueness a guarantee
// rather than a probability.
func insertTicket(ctx context.Context, tx pgx.Tx, userID, eventID string) (string, error) {
	for attempt := 0; attempt < booking.SerialAttempts; attempt++ {
		serial, err := booking.NewSerial()
		if err != nil {
			return "", err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO tickets (serial, user_id, event_id, status)
			 VALUES ($1, $2, $3, $4)`,
			serial, userID, eventID, model.StatusPurchased,
		)
		if err == nil {
			return serial, nil
		}
		if !isUniqueViolation(err) {
			return "", fmt.Errorf("insert ticket: %w", err)
		}
	}
	return "", fmt.Errorf("insert ticket: serial collisions on %d attempts", booking.SerialAttempts)
}

// Cancel deletes a purchased ticket and returns the seat to the event, all in
// one transaction, and reports the computed refund together with the event
// title. Checked-in tickets cannot be cancelled; the lookup only matches
// status 'purchased' so they surface as not found, same as a ticket owned by
// someone else.
func (r *TicketRepository) Cancel(ctx context.Context, serial, userID string) (resp *model.CancelResponse, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var (
		ticketID int64
		eventID  string
		title    string
		start    time.Time
		price    float64
	)
	err = tx.QueryRow(ctx,
		`SELECT t.id, t.event_id, e.title, e.start_time, e.price
		 FROM tickets t
		 JOIN events e ON t.event_id = e.id
		 WHERE t.serial = $1 AND t.user_id = $2 AND t.status = $3
		 FOR UPDATE OF t, e`,
		serial, userID, model.StatusPurchased,
	).Scan(&ticketID, &eventID, &title, &start, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, fmt.Errorf("lock ticket row: %w", err)
	}

	if err = booking.CheckCancel(start, time.Now()); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, ticketID); err != nil {
		return nil, fmt.Errorf("delete ticket: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE events SET seats_left = seats_left + 1 WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment seats: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.CancelResponse{
		Message:    "Ticket cancelled successfully",
		EventTitle: title,
		Refund:     booking.Refund(price),
	}, nil
}

// CheckIn transitions a ticket from purchased to checked_in once the check-in
// window is open. A ticket that is already checked in is rejected, not
// silently accepted: a second scan of the same serial should alert the
// operator at the door.
func (r *TicketRepository) CheckIn(ctx context.Context, serial string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var (
		ticketID int64
		status   model.TicketStatus
		start    time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT t.id, t.status, e.start_time
		 FROM tickets t
		 JOIN events e ON t.event_id = e.id
		 WHERE t.serial = $1
		 FOR UPDATE OF t`,
		serial,
	).Scan(&ticketID, &status, &start)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrNotFound
		}
		return fmt.Errorf("lock ticket row: %w", err)
	}

	if err = booking.CheckIn(start, time.Now()); err != nil {
		return err
	}
	if status == model.StatusCheckedIn {
		return booking.ErrAlreadyCheckedIn
	}

	_, err = tx.Exec(ctx,
		`UPDATE tickets SET status = $1 WHERE id = $2`,
		model.StatusCheckedIn, ticketID,
	)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListByUser returns the user's tickets with event and venue details, ordered
// by event start.
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.serial, t.user_id, t.event_id, t.status,
		        e.title, e.start_time, e.end_time, e.price, v.name
		 FROM tickets t
		 JOIN events e ON t.event_id = e.id
		 JOIN venues v ON e.venue_id = v.id
		 WHERE t.user_id = $1
		 ORDER BY e.start_time ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(
			&t.Serial, &t.UserID, &t.EventID, &t.Status,
			&t.EventTitle, &t.StartTime, &t.EndTime, &t.Price, &t.VenueName,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ListAttendees returns every ticket holder for an event, for the admin
// attendee view.
func (r *TicketRepository) ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.username, u.email, t.serial, t.status
		 FROM tickets t
		 JOIN users u ON t.user_id = u.id
		 WHERE t.event_id = $1
		 ORDER BY t.id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.Username, &a.Email, &a.Serial, &a.Status); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
