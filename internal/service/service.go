// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campuslabs/campus-ticketing/internal/auth"
	"github.com/campuslabs/campus-ticketing/internal/booking"
	"github.com/campuslabs/campus-ticketing/internal/model"
)

// EventStore is the persistence surface the event service needs. The
// repository's implementations run the schedule-conflict scan and the
// capacity check inside the same transaction as the write they guard.
type EventStore interface {
	Create(ctx context.Context, req model.EventRequest, organizerID string) (*model.Event, error)
	Update(ctx context.Context, eventID, organizerID string, req model.EventRequest) error
	Delete(ctx context.Context, eventID, organizerID string) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListForUser(ctx context.Context, userID string) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
	TicketCounts(ctx context.Context, eventID string) (sold, checkedIn int, err error)
}

// TicketStore is the persistence surface of the seat ledger. Implementations
// must make Reserve and Cancel linearizable per event: a consistent snapshot
// of seats_left and the caller's held tickets, the admission check, and the
// mutation must form one atomic step.
type TicketStore interface {
	Reserve(ctx context.Context, eventID, userID string, quantity int) ([]string, error)
	Cancel(ctx context.Context, serial, userID string) (*model.CancelResponse, error)
	CheckIn(ctx context.Context, serial string) error
	ListByUser(ctx context.Context, userID string) ([]model.Ticket, error)
	ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error)
}

// UserStore is the persistence surface for accounts.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string, role model.Role, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// EventService orchestrates event scheduling, editing, and reporting.
type EventService struct {
	events EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEvent validates the time window and delegates the conflict-checked
// insert to the store.
func (s *EventService) CreateEvent(ctx context.Context, req model.EventRequest, organizerID string) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", booking.ErrValidation)
	}
	if err := booking.ValidateWindow(req.StartTime, req.EndTime, time.Now()); err != nil {
		return nil, err
	}
	return s.events.Create(ctx, req, organizerID)
}

// EditEvent re-validates the window the same way CreateEvent does and
// delegates the conflict- and capacity-checked update.
func (s *EventService) EditEvent(ctx context.Context, eventID, organizerID string, req model.EventRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fmt.Errorf("%w: title is required", booking.ErrValidation)
	}
	if err := booking.ValidateWindow(req.StartTime, req.EndTime, time.Now()); err != nil {
		return err
	}
	return s.events.Update(ctx, eventID, organizerID, req)
}

// DeleteEvent removes an organizer's event; its tickets go with it.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, organizerID string) error {
	return s.events.Delete(ctx, eventID, organizerID)
}

// ListEvents returns the student-facing listing for a user.
func (s *EventService) ListEvents(ctx context.Context, userID string) ([]model.Event, error) {
	return s.events.ListForUser(ctx, userID)
}

// ListOwnEvents returns the events organized by the given admin.
func (s *EventService) ListOwnEvents(ctx context.Context, organizerID string) ([]model.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

// GetReport builds the organizer's summary for a finished event.
func (s *EventService) GetReport(ctx context.Context, eventID, organizerID string) (*model.Report, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != organizerID {
		return nil, booking.ErrNotOwner
	}
	sold, checkedIn, err := s.events.TicketCounts(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return booking.BuildReport(ev, sold, checkedIn, time.Now())
}

// TicketService orchestrates the seat ledger operations.
type TicketService struct {
	tickets TicketStore
}

// NewTicketService constructs a TicketService.
func NewTicketService(tickets TicketStore) *TicketService {
	return &TicketService{tickets: tickets}
}

// Reserve books between 1 and 4 tickets for a user. The quantity bounds are
// checked up front; the quota and seat checks happen in the store under the
// event lock, against the same snapshot the mutation commits with.
func (s *TicketService) Reserve(ctx context.Context, eventID, userID string, quantity int) ([]string, error) {
	if quantity < 1 || quantity > booking.MaxTicketsPerUser {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", booking.ErrValidation, booking.MaxTicketsPerUser)
	}
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", booking.ErrValidation)
	}
	return s.tickets.Reserve(ctx, eventID, userID, quantity)
}

// Cancel releases a purchased ticket and reports the refund figure.
func (s *TicketService) Cancel(ctx context.Context, serial, userID string) (*model.CancelResponse, error) {
	if serial == "" {
		return nil, booking.ErrNotFound
	}
	return s.tickets.Cancel(ctx, serial, userID)
}

// CheckIn admits a ticket holder at the door.
func (s *TicketService) CheckIn(ctx context.Context, serial string) error {
	if serial == "" {
		return booking.ErrNotFound
	}
	return s.tickets.CheckIn(ctx, serial)
}

// MyTickets returns the caller's tickets.
func (s *TicketService) MyTickets(ctx context.Context, userID string) ([]model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// Attendees returns the ticket holders for an event.
func (s *TicketService) Attendees(ctx context.Context, eventID string) ([]model.Attendee, error) {
	return s.tickets.ListAttendees(ctx, eventID)
}

// UserService handles account registration and login.
type UserService struct {
	users UserStore
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Register hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, req.Username, hash, req.Role, req.Email)
}

// Login verifies credentials and returns the account on success.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if err := auth.VerifyPassword(user.Password, req.Password); err != nil {
		return nil, err
	}
	return user, nil
}
