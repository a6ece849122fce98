// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuslabs/campus-ticketing/internal/auth"
	"github.com/campuslabs/campus-ticketing/internal/booking"
	"github.com/campuslabs/campus-ticketing/internal/model"
	"github.com/campuslabs/campus-ticketing/internal/repository"
	"github.com/campuslabs/campus-ticketing/internal/service"
)

// validate checks the struct tags on request payloads.
var validate = validator.New()

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// writeDomainError maps each domain error to its own HTTP status so the UI
// can react differently per failure kind.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrScheduleConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrCapacityTooLow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrQuotaExceeded),
		errors.Is(err, booking.ErrInsufficientSeats),
		errors.Is(err, booking.ErrAlreadyCheckedIn):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrTooLate),
		errors.Is(err, booking.ErrTooEarly),
		errors.Is(err, booking.ErrReportNotReady):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrDuplicateUser),
		errors.Is(err, repository.ErrDuplicateVenue):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Auth handlers ────────────────────────────────────────────────────────────

// AuthHandler serves registration, login, and session endpoints.
type AuthHandler struct {
	users    *service.UserService
	sessions *auth.Manager
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *service.UserService, sessions *auth.Manager) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/login
// On success it sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.users.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.sessions.Issue(user, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.SessionTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "login successful", "role": user.Role})
}

// Logout handles GET /api/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// CurrentUser handles GET /api/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       session.UserID,
		"username": session.Username,
		"role":     session.Role,
	})
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// EventHandler serves venue and event endpoints.
type EventHandler struct {
	events *service.EventService
	venues *repository.VenueRepository
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService, venues *repository.VenueRepository) *EventHandler {
	return &EventHandler{events: events, venues: venues}
}

// CreateVenue handles POST /api/venues (admin only).
func (h *EventHandler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req model.CreateVenueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	venue, err := h.venues.Create(r.Context(), req.Name, req.Location, sessionFrom(r).UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

// ListVenues handles GET /api/venues
func (h *EventHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.venues.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list venues")
		return
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

// CreateEvent handles POST /api/events (admin only).
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev, err := h.events.CreateEvent(r.Context(), req, sessionFrom(r).UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// EditEvent handles PUT /api/events/{id} (admin only).
func (h *EventHandler) EditEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	err := h.events.EditEvent(r.Context(), chi.URLParam(r, "id"), sessionFrom(r).UserID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event updated"})
}

// DeleteEvent handles DELETE /api/events/{id} (admin only).
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id"), sessionFrom(r).UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// ListEvents handles GET /api/events — the student-facing listing.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListOwnEvents handles GET /api/admin/events (admin only).
func (h *EventHandler) ListOwnEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListOwnEvents(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetReport handles GET /api/events/{id}/report (admin only).
func (h *EventHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.events.GetReport(r.Context(), chi.URLParam(r, "id"), sessionFrom(r).UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ─── Ticket handlers ──────────────────────────────────────────────────────────

// TicketHandler serves booking, cancellation, check-in, and listing endpoints.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Reserve handles POST /api/rsvp (students only; admins cannot hold tickets).
func (h *TicketHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req model.ReserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	serials, err := h.tickets.Reserve(r.Context(), req.EventID, sessionFrom(r).UserID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.ReserveResponse{
		Message:   "tickets reserved",
		TicketIDs: serials,
	})
}

// Cancel handles POST /api/cancel-ticket
func (h *TicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req model.TicketActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.tickets.Cancel(r.Context(), req.Serial, sessionFrom(r).UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CheckIn handles POST /api/checkin (admin only).
func (h *TicketHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.TicketActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.tickets.CheckIn(r.Context(), req.Serial); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "attendee checked in"})
}

// MyTickets handles GET /api/mytickets
func (h *TicketHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.MyTickets(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Attendees handles GET /api/events/{id}/attendees (admin only).
func (h *TicketHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.tickets.Attendees(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list attendees")
		return
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, attendees)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
