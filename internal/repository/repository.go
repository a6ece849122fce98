// Package repository implements all database queries for the ticketing
// system. It uses pgx directly (no ORM) for transparency and performance.
//
// Seat accounting and schedule-conflict checks run inside transactions that
// take row-level locks (SELECT ... FOR UPDATE) so concurrent requests are
// serialised per event or per venue; the admission rules themselves live in
// the booking package and are evaluated between the locked read and the
// write.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslabs/campus-ticketing/internal/auth"
	"github.com/campuslabs/campus-ticketing/internal/model"
)

// pgUniqueViolation is the SQLSTATE for unique-constraint violations.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// UserRepository handles persistence for user accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// ErrDuplicateUser is returned when a username or email is already taken.
var ErrDuplicateUser = errors.New("username or email already exists")

// Create inserts a new user with an already-hashed password.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string, role model.Role, email string) (*model.User, error) {
	user := &model.User{
		ID:        uuid.New().String(),
		Username:  username,
		Password:  passwordHash,
		Role:      role,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, password, role, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Password, user.Role, user.Email, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByUsername returns a user for login, or auth.ErrInvalidCredentials when
// the username is unknown so callers never learn which usernames exist.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password, role, email, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
