package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslabs/campus-ticketing/internal/booking"
	"github.com/campuslabs/campus-ticketing/internal/model"
)

// EventRepository handles persistence for events, including the
// conflict-checked create and edit paths.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event after checking the venue schedule. The venue row
// is locked for the duration of the transaction so two admins creating
// overlapping events at the same venue are serialised: the second sees the
// first's insert and gets the conflict error instead of a double booking.
func (r *EventRepository) Create(ctx context.Context, req model.EventRequest, organizerID string) (ev *model.Event, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockVenue(ctx, tx, req.VenueID); err != nil {
		return nil, err
	}

	existing, err := eventsAtVenue(ctx, tx, req.VenueID, "")
	if err != nil {
		return nil, err
	}
	if conflict := booking.FindConflict(req.StartTime, req.EndTime, existing); conflict != nil {
		return nil, &booking.ConflictError{
			EventID: conflict.ID,
			Title:   conflict.Title,
			Start:   conflict.StartTime,
			End:     conflict.EndTime,
		}
	}

	ev = &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Capacity:    req.Capacity,
		SeatsLeft:   req.Capacity,
		Price:       req.Price,
		OrganizerID: organizerID,
		VenueID:     req.VenueID,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO events (id, title, start_time, end_time, capacity, seats_left, price, organizer_id, venue_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.Title, ev.StartTime, ev.EndTime, ev.Capacity, ev.SeatsLeft, ev.Price, ev.OrganizerID, ev.VenueID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ev, nil
}

// Update edits an event's fields after re-running the schedule check against
// the (possibly new) venue, excluding the event itself, and verifying the new
// capacity still covers the seats already booked. seats_left is recomputed as
// new capacity minus booked so the ledger invariant holds across the edit.
func (r *EventRepository) Update(ctx context.Context, eventID, organizerID string, req model.EventRequest) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row: the booked count must not move under the capacity
	// check, so concurrent reservations wait for the edit to finish.
	var ownerID string
	var capacity, seatsLeft int
	err = tx.QueryRow(ctx,
		`SELECT organizer_id, capacity, seats_left FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&ownerID, &capacity, &seatsLeft)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}
	if ownerID != organizerID {
		return booking.ErrNotOwner
	}

	if err = lockVenue(ctx, tx, req.VenueID); err != nil {
		return err
	}

	existing, err := eventsAtVenue(ctx, tx, req.VenueID, eventID)
	if err != nil {
		return err
	}
	if conflict := booking.FindConflict(req.StartTime, req.EndTime, existing); conflict != nil {
		return &booking.ConflictError{
			EventID: conflict.ID,
			Title:   conflict.Title,
			Start:   conflict.StartTime,
			End:     conflict.EndTime,
		}
	}

	newSeatsLeft, err := booking.CheckCapacityChange(req.Capacity, capacity-seatsLeft)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET title = $1, start_time = $2, end_time = $3, capacity = $4, seats_left = $5, price = $6, venue_id = $7
		 WHERE id = $8`,
		req.Title, req.StartTime.UTC(), req.EndTime.UTC(), req.Capacity, newSeatsLeft, req.Price, req.VenueID, eventID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes an event owned by the given organizer. Tickets cascade.
func (r *EventRepository) Delete(ctx context.Context, eventID, organizerID string) error {
	ev, err := r.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.OrganizerID != organizerID {
		return booking.ErrNotOwner
	}

	_, err = r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// GetByID returns a single event or booking.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, title, start_time, end_time, capacity, seats_left, price, organizer_id, venue_id
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.StartTime, &e.EndTime, &e.Capacity, &e.SeatsLeft, &e.Price, &e.OrganizerID, &e.VenueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ListForUser returns all events with their venue details and the number of
// tickets the given user already holds for each, ordered by start time.
func (r *EventRepository) ListForUser(ctx context.Context, userID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.title, e.start_time, e.end_time, e.capacity, e.seats_left, e.price,
		        e.organizer_id, e.venue_id, v.name, v.location,
		        (SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id AND t.user_id = $1)
		 FROM events e
		 JOIN venues v ON e.venue_id = v.id
		 ORDER BY e.start_time ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.StartTime, &e.EndTime, &e.Capacity, &e.SeatsLeft, &e.Price,
			&e.OrganizerID, &e.VenueID, &e.VenueName, &e.VenueLocation, &e.TicketsHeld,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.IsActive = e.SeatsLeft > 0 && e.StartTime.After(now)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListByOrganizer returns the admin's own events, newest first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.title, e.start_time, e.end_time, e.capacity, e.seats_left, e.price,
		        e.organizer_id, e.venue_id, v.name, v.location
		 FROM events e
		 JOIN venues v ON e.venue_id = v.id
		 WHERE e.organizer_id = $1
		 ORDER BY e.start_time DESC`,
		organizerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.StartTime, &e.EndTime, &e.Capacity, &e.SeatsLeft, &e.Price,
			&e.OrganizerID, &e.VenueID, &e.VenueName, &e.VenueLocation,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// TicketCounts returns how many tickets exist for an event and how many of
// those are checked in. Used by the report.
func (r *EventRepository) TicketCounts(ctx context.Context, eventID string) (sold, checkedIn int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'checked_in')
		 FROM tickets WHERE event_id = $1`,
		eventID,
	).Scan(&sold, &checkedIn)
	if err != nil {
		return 0, 0, fmt.Errorf("count tickets: %w", err)
	}
	return sold, checkedIn, nil
}

// lockVenue takes a row-level lock on the venue, serialising schedule checks
// for it. Returns booking.ErrNotFound for an unknown venue.
func lockVenue(ctx context.Context, tx pgx.Tx, venueID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM venues WHERE id = $1 FOR UPDATE`, venueID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.ErrNotFound
		}
		return fmt.Errorf("lock venue row: %w", err)
	}
	return nil
}

// eventsAtVenue returns the events scheduled at a venue in ascending start
// order, optionally excluding one event (the one being edited).
func eventsAtVenue(ctx context.Context, tx pgx.Tx, venueID, excludeID string) ([]model.Event, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, title, start_time, end_time
		 FROM events
		 WHERE venue_id = $1 AND id != $2
		 ORDER BY start_time ASC`,
		venueID, excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list venue events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartTime, &e.EndTime); err != nil {
			return nil, fmt.Errorf("scan venue event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
