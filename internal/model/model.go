// Package model defines the core domain types for the campus ticketing system.
package model

import "time"

// Role distinguishes the two account types.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// TicketStatus tracks a ticket through its lifecycle. A cancelled ticket is
// deleted rather than given a third status.
type TicketStatus string

const (
	StatusPurchased TicketStatus = "purchased"
	StatusCheckedIn TicketStatus = "checked_in"
)

// User is an account holder. Password stores the bcrypt hash, never the
// plaintext credential.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Venue is a bookable location owned by an admin. Venue names are unique.
type Venue struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	AdminID  string `json:"admin_id"`
}

// Event is a scheduled happening at a venue.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	SeatsLeft   int       `json:"seats_left"`
	Price       float64   `json:"price"`
	OrganizerID string    `json:"organizer_id"`
	VenueID     string    `json:"venue_id"`

	// Populated by list queries that join venues.
	VenueName     string `json:"venue_name,omitempty"`
	VenueLocation string `json:"venue_location,omitempty"`
	// Populated by the student listing: how many tickets the caller holds.
	TicketsHeld int  `json:"tickets_held"`
	IsActive    bool `json:"is_active"`
}

// Booked returns the number of seats already consumed by tickets.
func (e *Event) Booked() int {
	return e.Capacity - e.SeatsLeft
}

// Ticket binds one user to one seat at one event. Serial is the printable
// identifier handed to the attendee (e.g. "TKT-1A2B3C4D").
type Ticket struct {
	ID      int64        `json:"-"`
	Serial  string       `json:"ticket_id"`
	UserID  string       `json:"user_id"`
	EventID string       `json:"event_id"`
	Status  TicketStatus `json:"status"`

	// Populated by list queries that join events and venues.
	EventTitle string    `json:"event_title,omitempty"`
	StartTime  time.Time `json:"start_time,omitzero"`
	EndTime    time.Time `json:"end_time,omitzero"`
	Price      float64   `json:"price,omitempty"`
	VenueName  string    `json:"venue_name,omitempty"`
}

// Attendee is one row of the admin attendee listing.
type Attendee struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Serial   string       `json:"ticket_id"`
	Status   TicketStatus `json:"status"`
}

// Report summarises a finished event for its organizer. Money figures carry
// two decimals, rates one.
type Report struct {
	EventTitle       string    `json:"event_title"`
	EventEndTime     time.Time `json:"event_end_time"`
	PricePerTicket   float64   `json:"price_per_ticket"`
	Capacity         int       `json:"capacity"`
	TotalSold        int       `json:"total_tickets_sold"`
	TotalCheckedIn   int       `json:"total_checked_in"`
	TotalRevenue     float64   `json:"total_revenue"`
	PotentialRevenue float64   `json:"potential_revenue"`
	AttendanceRate   float64   `json:"attendance_rate"`
	SellThroughRate  float64   `json:"sell_through_rate"`
}

// ─── Request / response payloads ─────────────────────────────────────────────

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=student admin"`
	Email    string `json:"email" validate:"required,email"`
}

// LoginRequest is the payload for opening a session.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateVenueRequest is the payload for creating a venue.
type CreateVenueRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Location string `json:"location" validate:"required,max=256"`
}

// EventRequest is the payload for creating or editing an event.
type EventRequest struct {
	Title     string    `json:"title" validate:"required,max=200"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	VenueID   string    `json:"venue_id" validate:"required,uuid4"`
	Capacity  int       `json:"capacity" validate:"required,min=1,max=100000"`
	Price     float64   `json:"price" validate:"min=0"`
}

// ReserveRequest is the payload for booking tickets.
type ReserveRequest struct {
	EventID  string `json:"event_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=4"`
}

// TicketActionRequest identifies a ticket by serial for cancel and check-in.
type TicketActionRequest struct {
	Serial string `json:"ticket_id" validate:"required"`
}

// ReserveResponse returns the serials generated by a booking.
type ReserveResponse struct {
	Message   string   `json:"message"`
	TicketIDs []string `json:"ticket_ids"`
}

// CancelResponse reports the computed refund for a cancelled ticket. No real
// money moves; the figure is for caller display.
type CancelResponse struct {
	Message    string  `json:"message"`
	EventTitle string  `json:"event_title"`
	Refund     float64 `json:"refund"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
