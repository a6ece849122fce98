package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslabs/campus-ticketing/internal/auth"
	"github.com/campuslabs/campus-ticketing/internal/booking"
	"github.com/campuslabs/campus-ticketing/internal/model"
	"github.com/campuslabs/campus-ticketing/internal/service"
)

// ─── Stub stores ──────────────────────────────────────────────────────────────

// userStoreStub keeps accounts in a map so registration and login go through
// the real hashing and token paths.
type userStoreStub struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: make(map[string]*model.User)}
}

func (s *userStoreStub) Create(_ context.Context, username, passwordHash string, role model.Role, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, fmt.Errorf("duplicate")
	}
	u := &model.User{
		ID:       fmt.Sprintf("u-%d", len(s.users)+1),
		Username: username,
		Password: passwordHash,
		Role:     role,
		Email:    email,
	}
	s.users[username] = u
	return u, nil
}

func (s *userStoreStub) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return u, nil
}

// eventStoreStub returns canned results so each handler's error mapping can
// be driven directly.
type eventStoreStub struct {
	createEvent *model.Event
	createErr   error
	updateErr   error
	reportEvent *model.Event
	sold, in    int
}

func (s *eventStoreStub) Create(context.Context, model.EventRequest, string) (*model.Event, error) {
	return s.createEvent, s.createErr
}
func (s *eventStoreStub) Update(context.Context, string, string, model.EventRequest) error {
	return s.updateErr
}
func (s *eventStoreStub) Delete(context.Context, string, string) error { return nil }
func (s *eventStoreStub) GetByID(context.Context, string) (*model.Event, error) {
	if s.reportEvent == nil {
		return nil, booking.ErrNotFound
	}
	return s.reportEvent, nil
}
func (s *eventStoreStub) ListForUser(context.Context, string) ([]model.Event, error) {
	return nil, nil
}
func (s *eventStoreStub) ListByOrganizer(context.Context, string) ([]model.Event, error) {
	return nil, nil
}
func (s *eventStoreStub) TicketCounts(context.Context, string) (int, int, error) {
	return s.sold, s.in, nil
}

type ticketStoreStub struct {
	serials    []string
	reserveErr error
	cancelResp *model.CancelResponse
	cancelErr  error
	checkInErr error
}

func (s *ticketStoreStub) Reserve(context.Context, string, string, int) ([]string, error) {
	return s.serials, s.reserveErr
}
func (s *ticketStoreStub) Cancel(context.Context, string, string) (*model.CancelResponse, error) {
	return s.cancelResp, s.cancelErr
}
func (s *ticketStoreStub) CheckIn(context.Context, string) error { return s.checkInErr }
func (s *ticketStoreStub) ListByUser(context.Context, string) ([]model.Ticket, error) {
	return nil, nil
}
func (s *ticketStoreStub) ListAttendees(context.Context, string) ([]model.Attendee, error) {
	return nil, nil
}

// ─── Harness ──────────────────────────────────────────────────────────────────

type testServer struct {
	router   chi.Router
	sessions *auth.Manager
	users    *userStoreStub
}

func newTestServer(t *testing.T, events service.EventStore, tickets service.TicketStore) *testServer {
	t.Helper()

	sessions, err := auth.NewManager("test-secret")
	require.NoError(t, err)

	users := newUserStoreStub()
	authHandler := NewAuthHandler(service.NewUserService(users), sessions)
	eventHandler := NewEventHandler(service.NewEventService(events), nil)
	ticketHandler := NewTicketHandler(service.NewTicketService(tickets))

	r := chi.NewRouter()
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Get("/health", HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(Authenticated(sessions))
		r.Get("/api/user", authHandler.CurrentUser)
		r.Get("/api/events", eventHandler.ListEvents)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(model.RoleStudent))
			r.Post("/api/rsvp", ticketHandler.Reserve)
			r.Post("/api/cancel-ticket", ticketHandler.Cancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(model.RoleAdmin))
			r.Post("/api/events", eventHandler.CreateEvent)
			r.Put("/api/events/{id}", eventHandler.EditEvent)
			r.Get("/api/events/{id}/report", eventHandler.GetReport)
			r.Post("/api/checkin", ticketHandler.CheckIn)
		})
	})

	return &testServer{router: r, sessions: sessions, users: users}
}

// sessionCookie registers a user directly and returns a valid session cookie
// for them.
func (ts *testServer) sessionCookie(t *testing.T, username string, role model.Role) *http.Cookie {
	t.Helper()
	hash, err := auth.HashPassword("password-123")
	require.NoError(t, err)
	user, err := ts.users.Create(context.Background(), username, hash, role, username+"@campus.edu")
	require.NoError(t, err)
	token, err := ts.sessions.Issue(user, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{})
	rec := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{})

	// Register.
	rec := ts.do(t, http.MethodPost, "/api/register", model.RegisterRequest{
		Username: "asha", Password: "password-123", Role: model.RoleStudent, Email: "asha@campus.edu",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Login sets the session cookie.
	rec = ts.do(t, http.MethodPost, "/api/login", model.LoginRequest{
		Username: "asha", Password: "password-123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, auth.SessionCookie, cookies[0].Name)

	// The cookie authenticates further requests.
	rec = ts.do(t, http.MethodGet, "/api/user", nil, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asha")

	// Wrong password.
	rec = ts.do(t, http.MethodPost, "/api/login", model.LoginRequest{
		Username: "asha", Password: "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{})

	rec := ts.do(t, http.MethodGet, "/api/events", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/events", nil, &http.Cookie{Name: auth.SessionCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{})
	student := ts.sessionCookie(t, "student1", model.RoleStudent)
	admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)

	// Students cannot use admin endpoints.
	rec := ts.do(t, http.MethodPost, "/api/checkin", model.TicketActionRequest{Serial: "TKT-AAAA1111"}, student)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins cannot hold tickets.
	rec = ts.do(t, http.MethodPost, "/api/rsvp", model.ReserveRequest{EventID: "11111111-1111-4111-8111-111111111111", Quantity: 1}, admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReserveEndpoint(t *testing.T) {
	eventID := "11111111-1111-4111-8111-111111111111"

	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{serials: []string{"TKT-AAAA1111", "TKT-BBBB2222"}})
		student := ts.sessionCookie(t, "student1", model.RoleStudent)

		rec := ts.do(t, http.MethodPost, "/api/rsvp", model.ReserveRequest{EventID: eventID, Quantity: 2}, student)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp model.ReserveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"TKT-AAAA1111", "TKT-BBBB2222"}, resp.TicketIDs)
	})

	t.Run("quantity above limit rejected by payload validation", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{})
		student := ts.sessionCookie(t, "student1", model.RoleStudent)

		rec := ts.do(t, http.MethodPost, "/api/rsvp", model.ReserveRequest{EventID: eventID, Quantity: 5}, student)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("domain errors map to statuses", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
		}{
			{booking.ErrQuotaExceeded, http.StatusConflict},
			{booking.ErrInsufficientSeats, http.StatusConflict},
			{booking.ErrNotFound, http.StatusNotFound},
		}
		for _, tc := range cases {
			ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{reserveErr: tc.err})
			student := ts.sessionCookie(t, "student1", model.RoleStudent)
			rec := ts.do(t, http.MethodPost, "/api/rsvp", model.ReserveRequest{EventID: eventID, Quantity: 1}, student)
			assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
		}
	})
}

func TestCancelEndpoint(t *testing.T) {
	t.Run("success returns refund", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{
			cancelResp: &model.CancelResponse{Message: "Ticket cancelled successfully", EventTitle: "Spring Concert", Refund: 18.00},
		})
		student := ts.sessionCookie(t, "student1", model.RoleStudent)

		rec := ts.do(t, http.MethodPost, "/api/cancel-ticket", model.TicketActionRequest{Serial: "TKT-AAAA1111"}, student)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp model.CancelResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 18.00, resp.Refund)
	})

	t.Run("too late maps to 400", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{cancelErr: booking.ErrTooLate})
		student := ts.sessionCookie(t, "student1", model.RoleStudent)
		rec := ts.do(t, http.MethodPost, "/api/cancel-ticket", model.TicketActionRequest{Serial: "TKT-AAAA1111"}, student)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckInEndpoint(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"success", nil, http.StatusOK},
		{"too early", booking.ErrTooEarly, http.StatusBadRequest},
		{"already checked in", booking.ErrAlreadyCheckedIn, http.StatusConflict},
		{"unknown ticket", booking.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{checkInErr: tc.err})
			admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)
			rec := ts.do(t, http.MethodPost, "/api/checkin", model.TicketActionRequest{Serial: "TKT-AAAA1111"}, admin)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCreateEventEndpoint(t *testing.T) {
	venueID := "22222222-2222-4222-8222-222222222222"
	start := time.Now().Add(24 * time.Hour)

	t.Run("schedule conflict maps to 409", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{
			createErr: &booking.ConflictError{EventID: "ev-1", Title: "First", Start: start, End: start.Add(time.Hour)},
		}, &ticketStoreStub{})
		admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)

		rec := ts.do(t, http.MethodPost, "/api/events", model.EventRequest{
			Title: "Second", StartTime: start, EndTime: start.Add(time.Hour),
			VenueID: venueID, Capacity: 10, Price: 5,
		}, admin)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "First")
	})

	t.Run("short window maps to 400", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{}, &ticketStoreStub{})
		admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)

		rec := ts.do(t, http.MethodPost, "/api/events", model.EventRequest{
			Title: "Blip", StartTime: start, EndTime: start.Add(10 * time.Minute),
			VenueID: venueID, Capacity: 10, Price: 5,
		}, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEditEventEndpoint(t *testing.T) {
	venueID := "22222222-2222-4222-8222-222222222222"
	start := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"capacity too low", booking.ErrCapacityTooLow, http.StatusBadRequest},
		{"not owner", booking.ErrNotOwner, http.StatusForbidden},
		{"unknown event", booking.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, &eventStoreStub{updateErr: tc.err}, &ticketStoreStub{})
			admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)
			rec := ts.do(t, http.MethodPut, "/api/events/ev-1", model.EventRequest{
				Title: "Edit", StartTime: start, EndTime: start.Add(time.Hour),
				VenueID: venueID, Capacity: 10, Price: 5,
			}, admin)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestReportEndpoint(t *testing.T) {
	t.Run("not ready maps to 400", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{
			reportEvent: &model.Event{ID: "ev-1", OrganizerID: "u-1", EndTime: time.Now().Add(time.Hour), Capacity: 10, Price: 5},
		}, &ticketStoreStub{})
		admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)
		rec := ts.do(t, http.MethodGet, "/api/events/ev-1/report", nil, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("finished event reports figures", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{
			reportEvent: &model.Event{
				ID: "ev-1", OrganizerID: "u-1", Title: "Spring Concert",
				EndTime: time.Now().Add(-time.Hour), Capacity: 100, Price: 10,
			},
			sold: 40, in: 30,
		}, &ticketStoreStub{})
		admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)

		rec := ts.do(t, http.MethodGet, "/api/events/ev-1/report", nil, admin)
		require.Equal(t, http.StatusOK, rec.Code)

		var report model.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 400.00, report.TotalRevenue)
		assert.Equal(t, 1000.00, report.PotentialRevenue)
		assert.Equal(t, 75.0, report.AttendanceRate)
		assert.Equal(t, 40.0, report.SellThroughRate)
	})

	t.Run("not owner maps to 403", func(t *testing.T) {
		ts := newTestServer(t, &eventStoreStub{
			reportEvent: &model.Event{ID: "ev-1", OrganizerID: "someone-else", EndTime: time.Now().Add(-time.Hour)},
		}, &ticketStoreStub{})
		admin := ts.sessionCookie(t, "admin1", model.RoleAdmin)
		rec := ts.do(t, http.MethodGet, "/api/events/ev-1/report", nil, admin)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
